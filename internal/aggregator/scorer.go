package aggregator

import (
	"math"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// groupConfidenceCap mirrors the single-node cap: aggregated public
// signals remain indirect evidence.
const groupConfidenceCap = 0.95

// GroupConfidence derives a 0–1 confidence from an impacted group's
// region-weighted size and geographic spread. Nodes representing larger
// populations carry a higher configured weight; a missing weight counts
// as 1.
func GroupConfidence(group []event.NodeStatus) float64 {
	if len(group) == 0 {
		return 0
	}

	var weights float64
	for _, n := range group {
		w := n.RegionWeight
		if w <= 0 {
			w = 1.0
		}
		weights += w
	}

	spread := float64(len(distinctStates(group)))
	confidence := 1 - math.Exp(-(math.Log1p(weights) + math.Log1p(spread)))
	if confidence > groupConfidenceCap {
		confidence = groupConfidenceCap
	}
	return confidence
}

// Severity maps a scope, confidence and impacted count to a label.
func Severity(scope Scope, confidence float64, impacted int) string {
	switch {
	case scope == ScopeNationwide && confidence >= 0.7:
		return SeverityCritical
	case scope == ScopeState && confidence >= 0.55:
		return SeverityMajor
	case impacted >= 4 && confidence >= 0.5:
		return SeverityMajor
	default:
		return SeverityMinor
	}
}
