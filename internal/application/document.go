package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/example/classroom-bot/internal/persistence"
)

const maxConflictRetries = 3

// documentCell holds one whole JSON document. Reads decode a fresh value so
// callers never alias cached state; updates apply a function to a fresh copy
// and save it with the version token it was read at. A version conflict
// reloads the document and reapplies the function.
type documentCell[T any] struct {
	store persistence.DocumentStore
	name  string
	empty func() T

	mu      sync.Mutex
	loaded  bool
	body    []byte
	version string
}

func newDocumentCell[T any](store persistence.DocumentStore, name string, empty func() T) *documentCell[T] {
	return &documentCell[T]{store: store, name: name, empty: empty}
}

// read returns the current document value.
func (c *documentCell[T]) read(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoadedLocked(ctx); err != nil {
		var zero T
		return zero, err
	}
	return c.decodeLocked()
}

// update applies fn to the document and persists the result. When fn returns
// an error nothing is written and that error is returned unchanged.
func (c *documentCell[T]) update(ctx context.Context, fn func(*T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return zero, err
	}

	for attempt := 0; ; attempt++ {
		value, err := c.decodeLocked()
		if err != nil {
			return zero, err
		}
		if err := fn(&value); err != nil {
			return zero, err
		}

		body, err := json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("application: encode %s: %w", c.name, err)
		}

		saved, err := c.store.SaveDocument(ctx, persistence.Document{Name: c.name, Body: body, Version: c.version})
		if err == nil {
			c.body = body
			c.version = saved.Version
			return value, nil
		}

		if !errors.Is(err, persistence.ErrVersionConflict) || attempt >= maxConflictRetries {
			return zero, &PersistenceError{Document: c.name, Err: err}
		}
		// someone else wrote the document; start over from their version
		c.loaded = false
		if err := c.ensureLoadedLocked(ctx); err != nil {
			return zero, err
		}
	}
}

func (c *documentCell[T]) ensureLoadedLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	doc, err := c.store.LoadDocument(ctx, c.name)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		c.body = nil
		c.version = ""
	case err != nil:
		return &PersistenceError{Document: c.name, Err: err}
	default:
		c.body = doc.Body
		c.version = doc.Version
	}
	c.loaded = true
	return nil
}

func (c *documentCell[T]) decodeLocked() (T, error) {
	value := c.empty()
	if len(c.body) == 0 {
		return value, nil
	}
	if err := json.Unmarshal(c.body, &value); err != nil {
		var zero T
		return zero, &PersistenceError{Document: c.name, Err: fmt.Errorf("decode: %w", err)}
	}
	return value, nil
}
