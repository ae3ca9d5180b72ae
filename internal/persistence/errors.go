package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrVersionConflict is returned when a document changed since it was loaded.
	ErrVersionConflict = errors.New("persistence: version conflict")
	// ErrInvalidDocument is returned when a document name or body is unusable.
	ErrInvalidDocument = errors.New("persistence: invalid document")
)
