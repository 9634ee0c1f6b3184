package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
)

// Ensure StackStore implements the interface.
var _ driven.StackStore = (*StackStore)(nil)

// StackStore is an in-memory implementation of driven.StackStore.
type StackStore struct {
	mu      sync.RWMutex
	entries []domain.StackEntry
	saves   int
}

// NewStackStore creates a new in-memory stack store.
func NewStackStore() *StackStore {
	return &StackStore{}
}

// Save replaces the stored stack.
func (s *StackStore) Save(_ context.Context, entries []domain.StackEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.Clone(entries)
	s.saves++
	return nil
}

// Load returns the stored stack ordered by position.
func (s *StackStore) Load(_ context.Context) ([]domain.StackEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.entries)
	slices.SortStableFunc(out, func(a, b domain.StackEntry) int { return a.Position - b.Position })
	return out, nil
}

// Saves returns how many times Save was called.
func (s *StackStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close is a no-op.
func (s *StackStore) Close() error {
	return nil
}
