package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used for single-node deployments and
// tests.
type MemoryStore struct {
	opening int64

	mu       sync.Mutex
	balances map[string]int64
	entries  map[string][]Entry
}

// NewMemoryStore creates a store where unknown players start at opening.
func NewMemoryStore(opening int64) *MemoryStore {
	return &MemoryStore{
		opening:  opening,
		balances: make(map[string]int64),
		entries:  make(map[string][]Entry),
	}
}

func (s *MemoryStore) Balance(_ context.Context, player string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[player]; !ok {
		s.balances[player] = s.opening
	}
	return s.balances[player], nil
}

func (s *MemoryStore) RecordSettlement(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[e.Player] = e.NewBalance
	s.entries[e.Player] = append(s.entries[e.Player], e)
	return nil
}

func (s *MemoryStore) Entries(_ context.Context, player string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries[player]))
	copy(out, s.entries[player])
	return out, nil
}
