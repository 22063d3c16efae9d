package aggregator_test

import (
	"context"
	"testing"
	"time"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/event"
)

func TestInMemoryRepository_NewestFirstAndLimit(t *testing.T) {
	repo := aggregator.NewInMemoryRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := repo.InsertScopeEvent(ctx, event.Scope{
			ID:       string(rune('a' + i)),
			Provider: "vzn",
			Scope:    "LOCAL",
			Ts:       t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	events, err := repo.ListScopeEvents(ctx, "vzn", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].ID != "c" || events[1].ID != "b" {
		t.Errorf("order = %s, %s; want newest first", events[0].ID, events[1].ID)
	}
}

func TestInMemoryRepository_UnknownProviderIsEmpty(t *testing.T) {
	repo := aggregator.NewInMemoryRepository()

	events, err := repo.ListScopeEvents(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}
