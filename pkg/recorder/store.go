package recorder

import (
	"context"
	"sync"
)

// MemoryStore keeps flushed batches in memory. Used by deployments without a
// database and by tests.
type MemoryStore struct {
	mu      sync.Mutex
	batches [][]DetectedAttack
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveBatch records the batch.
func (m *MemoryStore) SaveBatch(_ context.Context, batch []DetectedAttack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]DetectedAttack, len(batch))
	copy(cp, batch)
	m.batches = append(m.batches, cp)
	return nil
}

// Batches returns a copy of every flushed batch, in flush order.
func (m *MemoryStore) Batches() [][]DetectedAttack {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]DetectedAttack, len(m.batches))
	copy(out, m.batches)
	return out
}

// Records returns every stored record across batches.
func (m *MemoryStore) Records() []DetectedAttack {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DetectedAttack
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}
