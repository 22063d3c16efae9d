package aggregator_test

import (
	"testing"
	"time"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/event"
)

func nodes(states ...string) []event.NodeStatus {
	out := make([]event.NodeStatus, 0, len(states))
	for i, st := range states {
		out = append(out, event.NodeStatus{
			NodeID: string(rune('a' + i)),
			State:  st,
		})
	}
	return out
}

func TestClassifier_RawScope(t *testing.T) {
	c := aggregator.NewClassifier(aggregator.DefaultClassifierConfig())

	tests := []struct {
		name  string
		group []event.NodeStatus
		want  aggregator.Scope
	}{
		{"empty group", nil, aggregator.ScopeLocal},
		{"single node", nodes("CA"), aggregator.ScopeLocal},
		{"two nodes in one state", nodes("CA", "CA"), aggregator.ScopeState},
		{"two nodes in two states", nodes("CA", "NY"), aggregator.ScopeLocal},
		{"three distinct states", nodes("CA", "NY", "TX"), aggregator.ScopeNationwide},
		{"five nodes two states", nodes("CA", "CA", "CA", "NY", "NY"), aggregator.ScopeNationwide},
		{"nodes without state codes", nodes("", "", "", ""), aggregator.ScopeLocal},
		{"five stateless nodes", nodes("", "", "", "", ""), aggregator.ScopeNationwide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.RawScope(tt.group); got != tt.want {
				t.Errorf("RawScope = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_EscalationIsDebounced(t *testing.T) {
	c := aggregator.NewClassifier(aggregator.ClassifierConfig{Debounce: 90 * time.Second})
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	scope, changed := c.Classify("vzn", nodes("CA"), t0)
	if scope != aggregator.ScopeLocal || !changed {
		t.Fatalf("initial = %s changed=%v, want LOCAL changed", scope, changed)
	}

	// Escalation pressure inside the debounce window is held back.
	scope, changed = c.Classify("vzn", nodes("CA", "NY", "TX"), t0.Add(30*time.Second))
	if scope != aggregator.ScopeLocal || changed {
		t.Errorf("at +30s = %s changed=%v, want LOCAL unchanged", scope, changed)
	}

	// Once the debounce has elapsed the escalation is accepted.
	scope, changed = c.Classify("vzn", nodes("CA", "NY", "TX"), t0.Add(91*time.Second))
	if scope != aggregator.ScopeNationwide || !changed {
		t.Errorf("at +91s = %s changed=%v, want NATIONWIDE changed", scope, changed)
	}
}

func TestClassifier_DeescalationIsImmediate(t *testing.T) {
	c := aggregator.NewClassifier(aggregator.ClassifierConfig{Debounce: 90 * time.Second})
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Classify("vzn", nodes("CA", "NY", "TX"), t0)

	scope, changed := c.Classify("vzn", nodes("CA"), t0.Add(time.Second))
	if scope != aggregator.ScopeLocal || !changed {
		t.Errorf("= %s changed=%v, want LOCAL changed immediately", scope, changed)
	}
}

func TestClassifier_UnchangedScopeReportsNoChange(t *testing.T) {
	c := aggregator.NewClassifier(aggregator.DefaultClassifierConfig())
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Classify("vzn", nodes("CA"), t0)
	_, changed := c.Classify("vzn", nodes("CA"), t0.Add(time.Minute))
	if changed {
		t.Error("same raw scope should not report a change")
	}
}

func TestClassifier_DebounceAnchorsToLastChange(t *testing.T) {
	c := aggregator.NewClassifier(aggregator.ClassifierConfig{Debounce: 90 * time.Second})
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Classify("vzn", nodes("CA"), t0)

	// Repeated held-back escalations do not reset the anchor; the
	// escalation lands 91s after the last accepted change.
	for i := 1; i <= 3; i++ {
		scope, _ := c.Classify("vzn", nodes("CA", "NY", "TX"), t0.Add(time.Duration(i)*20*time.Second))
		if scope != aggregator.ScopeLocal {
			t.Fatalf("at +%ds = %s, want LOCAL", i*20, scope)
		}
	}
	scope, changed := c.Classify("vzn", nodes("CA", "NY", "TX"), t0.Add(95*time.Second))
	if scope != aggregator.ScopeNationwide || !changed {
		t.Errorf("= %s changed=%v, want NATIONWIDE changed", scope, changed)
	}
}

func TestClassifier_ResetForgetsProvider(t *testing.T) {
	c := aggregator.NewClassifier(aggregator.ClassifierConfig{Debounce: 90 * time.Second})
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Classify("vzn", nodes("CA"), t0)
	c.Reset("vzn")

	// After a reset the next classification is accepted without
	// debounce, even an escalation.
	scope, changed := c.Classify("vzn", nodes("CA", "NY", "TX"), t0.Add(time.Second))
	if scope != aggregator.ScopeNationwide || !changed {
		t.Errorf("= %s changed=%v, want NATIONWIDE changed after reset", scope, changed)
	}
}
