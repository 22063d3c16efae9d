// Package detector implements the single-node outage detector: the
// control gate, the per-provider evaluator and the hysteresis state
// machine that turns noisy per-run observations into confirmed
// provider states.
package detector

import (
	"time"

	"github.com/carrierwatch/carrierwatch/internal/probe"
)

// State is a provider's health classification.
type State string

// Provider states, ordered from healthy to confirmed outage. RECOVERED
// is a one-shot pulse emitted on the run that ends an outage.
const (
	StateOK          State = "OK"
	StateDegraded    State = "DEGRADED"
	StateMajorOutage State = "MAJOR_OUTAGE"
	StateRecovered   State = "RECOVERED"
)

// PersistedState is the durable per-provider record the hysteresis
// machine carries across runs. FailStreak and OKStreak are mutually
// exclusive: at most one of them is non-zero.
type PersistedState struct {
	State      State
	FailStreak int
	OKStreak   int
	FirstSeen  *time.Time
}

// Report is the detector's externally visible output for one provider
// in one run. Re-created every run, never persisted.
type Report struct {
	Provider       string
	ProviderType   string
	RawState       State
	ConfirmedState State
	Confidence     float64
	Signals        []probe.Signal
	FirstSeen      *time.Time
	LastSeen       time.Time
	ControlOK      bool
}
