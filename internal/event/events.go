// Package event defines the wire-level messages exchanged between the
// detector nodes and the aggregator.
package event

import "time"

// Event type discriminators carried in the "type" field and as the
// transport message attribute.
const (
	TypeOutage    = "carrier_outage"
	TypeHeartbeat = "carrier_outage_heartbeat"
	TypeScope     = "carrier_outage_scope"
	TypeSummary   = "carrier_outage_summary"
	TypeStatus    = "carrier_node_status"
)

// Presence values for NodeStatus.
const (
	PresenceOnline  = "ONLINE"
	PresenceOffline = "OFFLINE"
)

// SignalResult is one reachability check as it appears on the wire.
type SignalResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Ms     int64  `json:"ms"`
	Detail string `json:"detail,omitempty"`
}

// Outage is published by a detector node for each provider whose
// confirmed state is not OK.
type Outage struct {
	Type         string         `json:"type"`
	Region       string         `json:"region"`
	Provider     string         `json:"provider"`
	ProviderType string         `json:"providerType"`
	State        string         `json:"state"`
	Confidence   float64        `json:"confidence"`
	Signals      []SignalResult `json:"signals"`
	FirstSeen    *time.Time     `json:"firstSeen,omitempty"`
	LastSeen     time.Time      `json:"lastSeen"`
}

// Heartbeat is published by a detector node when every provider is OK.
type Heartbeat struct {
	Type      string    `json:"type"`
	NodeID    string    `json:"nodeId"`
	Region    string    `json:"region"`
	ControlOK bool      `json:"controlOk"`
	Ts        time.Time `json:"ts"`
}

// NodeStatus is the per-node message the aggregator consumes. State is
// the node's geographic code (e.g. a US state abbreviation), Region a
// free-form label.
type NodeStatus struct {
	NodeID       string    `json:"nodeId"`
	ProviderHint string    `json:"providerHint"`
	State        string    `json:"state"`
	Region       string    `json:"region"`
	RegionWeight float64   `json:"regionWeight"`
	ControlOK    bool      `json:"controlOk"`
	Presence     string    `json:"presence"`
	Ts           time.Time `json:"ts"`
}

// Scope is published by the aggregator whenever a provider's inferred
// outage scope changes. The last value is retained for late subscribers.
type Scope struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	Scope          string    `json:"scope"`
	Severity       string    `json:"severity"`
	Confidence     float64   `json:"confidence"`
	ImpactedCount  int       `json:"impactedCount"`
	AffectedStates []string  `json:"affectedStates"`
	Ts             time.Time `json:"ts"`
}

// SummaryEntry is one provider's line in a Summary.
type SummaryEntry struct {
	Scope         string  `json:"scope"`
	Severity      string  `json:"severity"`
	Confidence    float64 `json:"confidence"`
	ImpactedCount int     `json:"impactedCount"`
}

// Summary is the aggregator's periodic roll-up over all providers.
type Summary struct {
	Type      string                  `json:"type"`
	Ts        time.Time               `json:"ts"`
	Providers map[string]SummaryEntry `json:"providers"`
}
