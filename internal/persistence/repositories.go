package persistence

import "context"

// DocumentStore persists whole JSON documents keyed by name.
type DocumentStore interface {
	// LoadDocument returns the current document or ErrNotFound.
	LoadDocument(ctx context.Context, name string) (Document, error)
	// SaveDocument writes doc.Body if doc.Version matches the stored version and
	// returns the document with its new version token.
	SaveDocument(ctx context.Context, doc Document) (Document, error)
}

// ValidDocumentName reports whether name is usable as a document key. Names are
// also used as file names by the file store, so path separators are rejected.
func ValidDocumentName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
