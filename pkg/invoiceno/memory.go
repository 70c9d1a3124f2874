package invoiceno

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. It is only correct when a
// single instance issues invoices, and it forgets everything on restart.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

// Increment implements CounterStore.
func (s *MemoryStore) Increment(ctx context.Context, dateKey string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[dateKey]++
	return s.counters[dateKey], nil
}
