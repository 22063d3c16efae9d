package aggregator

import (
	"context"
	"sync"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// InMemoryRepository is an in-memory Repository used in tests and as
// the fallback when no database is configured.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[string][]event.Scope
}

// NewInMemoryRepository creates an empty in-memory scope-event
// repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{events: make(map[string][]event.Scope)}
}

// InsertScopeEvent records one scope change.
func (r *InMemoryRepository) InsertScopeEvent(_ context.Context, ev event.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Newest first.
	r.events[ev.Provider] = append([]event.Scope{ev}, r.events[ev.Provider]...)
	return nil
}

// ListScopeEvents returns the most recent scope events for a provider.
func (r *InMemoryRepository) ListScopeEvents(_ context.Context, provider string, limit int) ([]event.Scope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[provider]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	out := make([]event.Scope, len(events))
	copy(out, events)
	return out, nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
