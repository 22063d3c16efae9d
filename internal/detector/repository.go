package detector

import (
	"context"
	"errors"
)

// ErrStateNotFound is returned when no persisted state exists for a
// provider. Callers treat it as "fresh state, all counters zero".
var ErrStateNotFound = errors.New("provider state not found")

// StateRepository is the durable store for per-provider hysteresis
// state, keyed by provider name. The detector process is its only
// reader and writer.
type StateRepository interface {
	// Get retrieves the persisted state for a provider.
	// Returns ErrStateNotFound when the provider has no record.
	Get(ctx context.Context, provider string) (PersistedState, error)

	// Put creates or replaces the persisted state for a provider.
	Put(ctx context.Context, provider string, state PersistedState) error
}
