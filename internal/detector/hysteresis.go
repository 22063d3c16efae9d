package detector

import "time"

// Thresholds configures how much sustained evidence the hysteresis
// machine requires before escalating or de-escalating.
type Thresholds struct {
	// FailForMajor is the number of consecutive failing runs required
	// before MAJOR_OUTAGE is confirmed.
	FailForMajor int

	// OKForRecovery is the number of consecutive healthy runs required
	// before the RECOVERED pulse is emitted.
	OKForRecovery int
}

// DefaultThresholds returns the detector's standard hysteresis tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{FailForMajor: 3, OKForRecovery: 2}
}

// Advance applies one run's raw state to the persisted record and
// returns the updated record carrying the confirmed state.
//
// DEGRADED needs no streak: any single failing run is visible. MAJOR
// is a stronger claim and requires FailForMajor consecutive failing
// runs. RECOVERED is a one-shot transition marker; the OK run that
// follows it clears FirstSeen and settles back to plain OK.
func (t Thresholds) Advance(prev PersistedState, raw State, now time.Time) PersistedState {
	prevState := prev.State
	if prevState == "" {
		prevState = StateOK
	}

	next := prev
	next.State = prevState

	if raw != StateOK {
		next.FailStreak++
		next.OKStreak = 0
		if next.FirstSeen == nil {
			ts := now
			next.FirstSeen = &ts
		}
		if raw == StateMajorOutage && next.FailStreak >= t.FailForMajor {
			next.State = StateMajorOutage
		} else {
			next.State = StateDegraded
		}
		return next
	}

	next.OKStreak++
	next.FailStreak = 0

	switch prevState {
	case StateOK:
		next.State = StateOK
	case StateRecovered:
		next.State = StateOK
		next.FirstSeen = nil
	default:
		// Holding DEGRADED or MAJOR_OUTAGE until recovery is sustained.
		if next.OKStreak >= t.OKForRecovery {
			next.State = StateRecovered
		}
	}
	return next
}
