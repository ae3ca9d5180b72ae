package testfixtures

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/example/classroom-bot/internal/persistence"
)

// MemoryStore is an in-memory persistence.DocumentStore with integer
// version tokens and optional failure injection.
type MemoryStore struct {
	mu    sync.Mutex
	docs  map[string]persistence.Document
	saves int

	// SaveErr, when set, is returned by every SaveDocument call.
	SaveErr error
	// LoadErr, when set, is returned by every LoadDocument call.
	LoadErr error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]persistence.Document)}
}

// LoadDocument implements persistence.DocumentStore.
func (s *MemoryStore) LoadDocument(ctx context.Context, name string) (persistence.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return persistence.Document{}, s.LoadErr
	}
	doc, ok := s.docs[name]
	if !ok {
		return persistence.Document{}, persistence.ErrNotFound
	}
	doc.Body = append([]byte(nil), doc.Body...)
	return doc, nil
}

// SaveDocument implements persistence.DocumentStore.
func (s *MemoryStore) SaveDocument(ctx context.Context, doc persistence.Document) (persistence.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return persistence.Document{}, s.SaveErr
	}

	current, exists := s.docs[doc.Name]
	if (exists && current.Version != doc.Version) || (!exists && doc.Version != "") {
		return persistence.Document{}, persistence.ErrVersionConflict
	}

	next := 1
	if exists {
		n, _ := strconv.Atoi(current.Version)
		next = n + 1
	}
	saved := persistence.Document{
		Name:      doc.Name,
		Body:      append([]byte(nil), doc.Body...),
		Version:   strconv.Itoa(next),
		UpdatedAt: time.Now().UTC(),
	}
	s.docs[doc.Name] = saved
	s.saves++
	return saved, nil
}

// Body returns the raw stored JSON of name, or nil.
func (s *MemoryStore) Body(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.docs[name].Body...)
}

// Put overwrites name with body, bumping its version as an external writer would.
func (s *MemoryStore) Put(name string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := strconv.Atoi(s.docs[name].Version)
	s.docs[name] = persistence.Document{Name: name, Body: append([]byte(nil), body...), Version: strconv.Itoa(n + 1)}
}

// Saves reports how many writes succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var _ persistence.DocumentStore = (*MemoryStore)(nil)
