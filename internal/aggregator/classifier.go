package aggregator

import (
	"time"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// ClassifierConfig holds the cardinality thresholds and the escalation
// debounce for scope classification.
type ClassifierConfig struct {
	// NationwideStatesMin is the number of distinct impacted states
	// that makes an outage NATIONWIDE.
	NationwideStatesMin int

	// NationwideNodesMin is the number of impacted nodes that makes an
	// outage NATIONWIDE regardless of spread.
	NationwideNodesMin int

	// StateMin is the number of impacted nodes within one state that
	// makes an outage STATE-wide.
	StateMin int

	// Debounce is how long an escalated raw classification must persist
	// since the last scope change before it is accepted.
	Debounce time.Duration
}

// DefaultClassifierConfig returns the standard classification tuning.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		NationwideStatesMin: 3,
		NationwideNodesMin:  5,
		StateMin:            2,
		Debounce:            90 * time.Second,
	}
}

// Classifier maps impacted-node groups to scopes. It keeps per-provider
// scope state solely to debounce upward transitions: the system is slow
// to claim a wide outage and quick to withdraw the claim.
type Classifier struct {
	cfg    ClassifierConfig
	scopes map[string]scopeState
}

// NewClassifier creates a classifier with the given configuration.
// Zero-valued fields fall back to the defaults.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{scopes: make(map[string]scopeState)}
	c.SetConfig(cfg)
	return c
}

// SetConfig replaces the classification thresholds, keeping the
// per-provider scope state. Zero-valued fields fall back to defaults.
func (c *Classifier) SetConfig(cfg ClassifierConfig) {
	def := DefaultClassifierConfig()
	if cfg.NationwideStatesMin <= 0 {
		cfg.NationwideStatesMin = def.NationwideStatesMin
	}
	if cfg.NationwideNodesMin <= 0 {
		cfg.NationwideNodesMin = def.NationwideNodesMin
	}
	if cfg.StateMin <= 0 {
		cfg.StateMin = def.StateMin
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	c.cfg = cfg
}

// RawScope classifies an impacted group by cardinality alone, without
// debounce.
func (c *Classifier) RawScope(group []event.NodeStatus) Scope {
	states := distinctStates(group)

	if len(states) >= c.cfg.NationwideStatesMin || len(group) >= c.cfg.NationwideNodesMin {
		return ScopeNationwide
	}

	perState := make(map[string]int)
	for _, n := range group {
		if n.State == "" {
			continue
		}
		perState[n.State]++
		if perState[n.State] >= c.cfg.StateMin {
			return ScopeState
		}
	}
	return ScopeLocal
}

// Classify returns the reported scope for a provider's impacted group
// at the given instant, applying the escalation debounce, and whether
// the reported scope changed.
//
// An upward transition is retained only once Debounce has elapsed since
// the provider's scope last changed. Downward transitions apply
// immediately.
func (c *Classifier) Classify(provider string, group []event.NodeStatus, now time.Time) (Scope, bool) {
	raw := c.RawScope(group)

	prev, ok := c.scopes[provider]
	if !ok {
		c.scopes[provider] = scopeState{scope: raw, since: now}
		return raw, true
	}

	if raw == prev.scope {
		return prev.scope, false
	}

	if scopeRank(raw) > scopeRank(prev.scope) && now.Sub(prev.since) < c.cfg.Debounce {
		return prev.scope, false
	}

	c.scopes[provider] = scopeState{scope: raw, since: now}
	return raw, true
}

// Reset drops a provider's scope state, so its next classification is
// accepted as-is.
func (c *Classifier) Reset(provider string) {
	delete(c.scopes, provider)
}

func distinctStates(group []event.NodeStatus) []string {
	seen := make(map[string]bool)
	var states []string
	for _, n := range group {
		if n.State == "" || seen[n.State] {
			continue
		}
		seen[n.State] = true
		states = append(states, n.State)
	}
	return states
}
