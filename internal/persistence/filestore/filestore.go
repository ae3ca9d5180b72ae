// Package filestore keeps each document as an indented JSON file in a directory.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/classroom-bot/internal/persistence"
)

// Store implements persistence.DocumentStore on the local filesystem. The
// version token is the SHA-256 of the file contents, so edits made by hand
// between a load and a save are detected as conflicts.
type Store struct {
	dir   string
	locks sync.Map // document name -> *sync.Mutex
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) lock(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// LoadDocument implements persistence.DocumentStore.
func (s *Store) LoadDocument(ctx context.Context, name string) (persistence.Document, error) {
	if !persistence.ValidDocumentName(name) {
		return persistence.Document{}, fmt.Errorf("%w: %q", persistence.ErrInvalidDocument, name)
	}
	if err := ctx.Err(); err != nil {
		return persistence.Document{}, err
	}

	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	return s.readLocked(name)
}

func (s *Store) readLocked(name string) (persistence.Document, error) {
	path := s.path(name)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.Document{}, persistence.ErrNotFound
		}
		return persistence.Document{}, fmt.Errorf("filestore: read %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return persistence.Document{}, fmt.Errorf("filestore: stat %s: %w", name, err)
	}

	return persistence.Document{
		Name:      name,
		Body:      body,
		Version:   checksum(body),
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

// SaveDocument implements persistence.DocumentStore.
func (s *Store) SaveDocument(ctx context.Context, doc persistence.Document) (persistence.Document, error) {
	if !persistence.ValidDocumentName(doc.Name) {
		return persistence.Document{}, fmt.Errorf("%w: %q", persistence.ErrInvalidDocument, doc.Name)
	}
	if err := ctx.Err(); err != nil {
		return persistence.Document{}, err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, doc.Body, "", "  "); err != nil {
		return persistence.Document{}, fmt.Errorf("%w: %s is not JSON: %v", persistence.ErrInvalidDocument, doc.Name, err)
	}
	indented.WriteByte('\n')

	mu := s.lock(doc.Name)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.readLocked(doc.Name)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		if doc.Version != "" {
			return persistence.Document{}, fmt.Errorf("filestore: save %s: %w", doc.Name, persistence.ErrVersionConflict)
		}
	case err != nil:
		return persistence.Document{}, err
	case current.Version != doc.Version:
		return persistence.Document{}, fmt.Errorf("filestore: save %s: %w", doc.Name, persistence.ErrVersionConflict)
	}

	if err := writeAtomic(s.path(doc.Name), indented.Bytes()); err != nil {
		return persistence.Document{}, fmt.Errorf("filestore: write %s: %w", doc.Name, err)
	}

	return s.readLocked(doc.Name)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

var _ persistence.DocumentStore = (*Store)(nil)
