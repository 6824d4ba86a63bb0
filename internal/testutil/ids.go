package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same execution id every time.
//
// This keeps log output byte-identical across runs so it can be compared
// in tests.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed execution id generator.
// If id is empty, Generate() returns "exec-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "exec-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements execute.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator returns "exec-1", "exec-2", ... in call order.
//
// Unlike FixedIDGenerator it distinguishes statements, and unlike
// uuid-based ids it can be reset so the same test produces the same ids.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequenceIDGenerator creates a generator starting at 0.
// The first call to Generate() returns "exec-1".
func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

// Generate increments the sequence and returns the next id.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("exec-%d", g.seq)
}

// Current returns the current sequence number without incrementing.
func (g *SequenceIDGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset resets the sequence to 0.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
