package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out "<prefix>-1", "<prefix>-2", ... so record ids in
// tests are predictable ("class-id-1" with the default prefix).
type IDGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewIDGenerator returns a generator for prefix, defaulting to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// Last returns the most recently issued id, or "" before the first call.
func (g *IDGenerator) Last() string {
	n := g.n.Load()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%s-%d", g.prefix, n)
}

// NextFunc is injected wherever a service takes an id generator.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}
