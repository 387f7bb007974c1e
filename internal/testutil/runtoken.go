package testutil

import (
	"fmt"
	"sync"
)

// CountingRunTokens generates "<prefix>-0001", "<prefix>-0002", ... and never
// runs out, unlike engine.FixedGenerator. The same scenario with a fresh
// generator produces byte-identical run logs.
//
// Safe for concurrent use.
type CountingRunTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingRunTokens creates a generator. An empty prefix becomes "run".
func NewCountingRunTokens(prefix string) *CountingRunTokens {
	if prefix == "" {
		prefix = "run"
	}
	return &CountingRunTokens{prefix: prefix}
}

// Generate returns the next token. Implements engine.RunTokenGenerator.
func (g *CountingRunTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the count.
func (g *CountingRunTokens) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
