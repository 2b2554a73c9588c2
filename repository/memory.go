package repository

import (
	"context"
	"sync"

	"paper-trader/models"
)

// MemoryStore is an in-process ledger store: the ephemeral backing used
// when no database is configured, and the store of choice in tests.
// States survive only for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.LedgerState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]models.LedgerState)}
}

// LoadState returns the last saved state for a user, or false when the
// user has never saved one.
func (s *MemoryStore) LoadState(ctx context.Context, userID string) (models.LedgerState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return models.LedgerState{}, false, nil
	}
	return state.Clone(), true, nil
}

// SaveState stores a copy of the state for a user.
func (s *MemoryStore) SaveState(ctx context.Context, userID string, state models.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = state.Clone()
	return nil
}

// DeleteState removes a user's saved state.
func (s *MemoryStore) DeleteState(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

// Health always reports healthy.
func (s *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() {}
