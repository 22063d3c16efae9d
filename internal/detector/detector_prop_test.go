package detector_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/carrierwatch/carrierwatch/internal/detector"
	"github.com/carrierwatch/carrierwatch/internal/probe"
)

func genSignals(failed, total int) []probe.Signal {
	sigs := make([]probe.Signal, 0, total)
	for i := 0; i < total; i++ {
		sigs = append(sigs, probe.Signal{Name: "p", OK: i >= failed})
	}
	return sigs
}

func TestPropertyEvaluate(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("unhealthy control gate always yields OK with zero confidence", prop.ForAll(
		func(failed, total int) bool {
			if failed > total {
				return true
			}
			eval := detector.Evaluate(genSignals(failed, total), false)
			return eval.Raw == detector.StateOK && eval.Confidence == 0
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	props.Property("confidence stays within [0, 0.95]", prop.ForAll(
		func(failed, total int) bool {
			if failed > total {
				return true
			}
			eval := detector.Evaluate(genSignals(failed, total), true)
			return eval.Confidence >= 0 && eval.Confidence <= 0.95
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	props.Property("confidence never decreases as more signals fail", prop.ForAll(
		func(failed, total int) bool {
			if total < 1 || failed >= total {
				return true
			}
			lower := detector.Evaluate(genSignals(failed, total), true)
			higher := detector.Evaluate(genSignals(failed+1, total), true)
			return higher.Confidence >= lower.Confidence
		},
		gen.IntRange(0, 20),
		gen.IntRange(1, 20),
	))

	props.TestingRun(t)
}

func TestPropertyHysteresis(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	rawStates := []detector.State{
		detector.StateOK,
		detector.StateDegraded,
		detector.StateMajorOutage,
	}
	genRawSeq := gen.SliceOf(gen.IntRange(0, len(rawStates)-1))

	props.Property("exactly one streak counter is active after any step", prop.ForAll(
		func(seq []int) bool {
			th := detector.DefaultThresholds()
			now := time.Now()
			var st detector.PersistedState
			for _, i := range seq {
				st = th.Advance(st, rawStates[i], now)
				if st.FailStreak > 0 && st.OKStreak > 0 {
					return false
				}
				now = now.Add(time.Minute)
			}
			return true
		},
		genRawSeq,
	))

	props.Property("major is never entered before the failure streak threshold", prop.ForAll(
		func(seq []int, failForMajor int) bool {
			th := detector.Thresholds{FailForMajor: failForMajor, OKForRecovery: 2}
			now := time.Now()
			var st detector.PersistedState
			for _, i := range seq {
				raw := rawStates[i]
				st = th.Advance(st, raw, now)
				// An OK run resets the failure streak while the
				// confirmed state legitimately holds MAJOR_OUTAGE
				// until recovery is sustained, so the floor only
				// binds on failing runs.
				if raw != detector.StateOK &&
					st.State == detector.StateMajorOutage && st.FailStreak < failForMajor {
					return false
				}
				now = now.Add(time.Minute)
			}
			return true
		},
		genRawSeq,
		gen.IntRange(1, 6),
	))

	props.Property("recovered only appears after the recovery streak threshold", prop.ForAll(
		func(seq []int, okForRecovery int) bool {
			th := detector.Thresholds{FailForMajor: 3, OKForRecovery: okForRecovery}
			now := time.Now()
			var st detector.PersistedState
			for _, i := range seq {
				st = th.Advance(st, rawStates[i], now)
				if st.State == detector.StateRecovered && st.OKStreak < okForRecovery {
					return false
				}
				now = now.Add(time.Minute)
			}
			return true
		},
		genRawSeq,
		gen.IntRange(1, 6),
	))

	props.TestingRun(t)
}
