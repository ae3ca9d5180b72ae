package application

import (
	"sync"
	"time"
)

// sessionStore keeps live wizard sessions keyed by kind and user. Entries
// idle for longer than ttl are treated as absent and removed lazily on access
// or by sweep.
type sessionStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	ttl     time.Duration
	entries map[string]*wizardSession
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &sessionStore{
		now:     now,
		ttl:     ttl,
		entries: make(map[string]*wizardSession),
	}
}

func sessionKey(kind WizardKind, userID string) string {
	return string(kind) + ":" + userID
}

func (c *sessionStore) Get(key string) (*wizardSession, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.expired(entry) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry, true
}

// Store puts session under key and returns the session it replaced, if any.
func (c *sessionStore) Store(key string, session *wizardSession) *wizardSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.entries[key]
	c.entries[key] = session
	if previous != nil && c.expired(previous) {
		previous = nil
	}
	return previous
}

// Remove deletes key only while it still maps to session.
func (c *sessionStore) Remove(key string, session *wizardSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries[key]; ok && (session == nil || current == session) {
		delete(c.entries, key)
		return true
	}
	return false
}

// Sweep removes expired sessions and returns how many were dropped.
func (c *sessionStore) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *sessionStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *sessionStore) expired(entry *wizardSession) bool {
	return c.now().Sub(entry.touched()) > c.ttl
}
