// Package aggregator combines node status reports from independent
// detector nodes into a geographic scope judgment per provider, with
// confidence and severity scoring.
package aggregator

import "time"

// Scope is the inferred geographic breadth of an outage.
type Scope string

// Scopes, ordered by rank. Escalation is debounced, de-escalation is
// immediate.
const (
	ScopeLocal      Scope = "LOCAL"
	ScopeState      Scope = "STATE"
	ScopeNationwide Scope = "NATIONWIDE"
)

// Severity labels attached to scope events.
const (
	SeverityMinor    = "minor"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)

func scopeRank(s Scope) int {
	switch s {
	case ScopeState:
		return 1
	case ScopeNationwide:
		return 2
	default:
		return 0
	}
}

// scopeState tracks a provider's current scope and when it last
// changed; it exists only to implement escalation debounce.
type scopeState struct {
	scope Scope
	since time.Time
}

// Assessment is the aggregator's current judgment for one provider.
type Assessment struct {
	Provider       string    `json:"provider"`
	Scope          Scope     `json:"scope"`
	Severity       string    `json:"severity"`
	Confidence     float64   `json:"confidence"`
	ImpactedCount  int       `json:"impactedCount"`
	AffectedStates []string  `json:"affectedStates"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
