package aggregator

import (
	"time"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// UnknownProvider is the grouping label for nodes that report no
// provider hint.
const UnknownProvider = "unknown"

// DefaultWindow is how far back a node's last report may lie before it
// is excluded from classification.
const DefaultWindow = 10 * time.Minute

// Window holds the latest status from each known node. Entries are
// overwritten on every report (last write wins) and never deleted;
// staleness is evaluated at read time against the sliding window.
type Window struct {
	window time.Duration
	nodes  map[string]event.NodeStatus
}

// NewWindow creates a node window with the given sliding duration.
// A zero duration selects DefaultWindow.
func NewWindow(window time.Duration) *Window {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Window{
		window: window,
		nodes:  make(map[string]event.NodeStatus),
	}
}

// SetDuration replaces the sliding window duration.
func (w *Window) SetDuration(window time.Duration) {
	if window <= 0 {
		window = DefaultWindow
	}
	w.window = window
}

// Observe records a node's latest status, replacing any previous entry.
func (w *Window) Observe(msg event.NodeStatus) {
	w.nodes[msg.NodeID] = msg
}

// Len returns the number of known nodes, stale or not.
func (w *Window) Len() int {
	return len(w.nodes)
}

// impacted reports whether a node entry counts against its provider at
// the given instant: its report must be inside the window and the node
// must be offline or failing its own control gate.
func (w *Window) impacted(n event.NodeStatus, now time.Time) bool {
	if now.Sub(n.Ts) > w.window {
		return false
	}
	return n.Presence == event.PresenceOffline || !n.ControlOK
}

// ImpactedByProvider groups the currently impacted nodes by provider
// hint. Nodes without a hint fall under UnknownProvider.
func (w *Window) ImpactedByProvider(now time.Time) map[string][]event.NodeStatus {
	groups := make(map[string][]event.NodeStatus)
	for _, n := range w.nodes {
		if !w.impacted(n, now) {
			continue
		}
		hint := n.ProviderHint
		if hint == "" {
			hint = UnknownProvider
		}
		groups[hint] = append(groups[hint], n)
	}
	return groups
}
