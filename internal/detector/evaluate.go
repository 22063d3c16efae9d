package detector

import (
	"github.com/carrierwatch/carrierwatch/internal/probe"
)

// degradedMaxFrac is the failure fraction above which a single run is
// classified MAJOR_OUTAGE rather than DEGRADED.
const degradedMaxFrac = 0.34

// confidenceCap keeps confidence below certainty: public reachability
// signals are indirect evidence.
const confidenceCap = 0.95

// Evaluation is the raw per-run classification of one provider before
// hysteresis is applied.
type Evaluation struct {
	Raw        State
	FailFrac   float64
	Confidence float64
}

// Evaluate turns one provider's signal set into a raw state for this
// run. When the control gate reports unhealthy the raw state is forced
// to OK: the system never blames a provider while it cannot trust its
// own measurement path.
func Evaluate(signals []probe.Signal, controlOK bool) Evaluation {
	total := len(signals)
	failed := 0
	for _, s := range signals {
		if !s.OK {
			failed++
		}
	}

	// No configured signals yields failFrac 0, i.e. default OK.
	failFrac := 0.0
	if total > 0 {
		failFrac = float64(failed) / float64(total)
	}

	raw := StateOK
	switch {
	case failFrac == 0:
		raw = StateOK
	case failFrac <= degradedMaxFrac:
		raw = StateDegraded
	default:
		raw = StateMajorOutage
	}
	if !controlOK {
		raw = StateOK
	}

	confidence := 0.0
	if controlOK && total > 0 {
		confidence = 0.2 + 0.9*failFrac
		if confidence > confidenceCap {
			confidence = confidenceCap
		}
	}

	return Evaluation{Raw: raw, FailFrac: failFrac, Confidence: confidence}
}
