package aggregator

import (
	"context"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// Repository stores the history of published scope events.
type Repository interface {
	// InsertScopeEvent records one scope change.
	InsertScopeEvent(ctx context.Context, ev event.Scope) error

	// ListScopeEvents returns the most recent scope events for a
	// provider, newest first, up to limit.
	ListScopeEvents(ctx context.Context, provider string, limit int) ([]event.Scope, error)
}
