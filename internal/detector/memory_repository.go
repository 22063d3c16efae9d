package detector

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory StateRepository for tests and for
// running the detector without durable state.
type InMemoryRepository struct {
	mu     sync.RWMutex
	states map[string]PersistedState
}

// NewInMemoryRepository creates an empty in-memory state repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{states: make(map[string]PersistedState)}
}

// Get retrieves the persisted state for a provider.
func (r *InMemoryRepository) Get(_ context.Context, provider string) (PersistedState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.states[provider]
	if !ok {
		return PersistedState{}, ErrStateNotFound
	}
	return st, nil
}

// Put creates or replaces the persisted state for a provider.
func (r *InMemoryRepository) Put(_ context.Context, provider string, state PersistedState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[provider] = state
	return nil
}

// Ensure InMemoryRepository implements StateRepository.
var _ StateRepository = (*InMemoryRepository)(nil)
