package detector

import (
	"github.com/carrierwatch/carrierwatch/internal/probe"
)

// ControlOK judges the observing node's own Internet path from the
// control probe results. A two-thirds supermajority must pass: a
// single flaky control endpoint must not suppress provider detection,
// while a majority of control failures implies the local path is
// broken. An empty control set means no gate is available and
// detection proceeds ungated.
//
// The quorum is computed in integer arithmetic so exactly two of three
// probes passing counts as healthy.
func ControlOK(signals []probe.Signal) bool {
	if len(signals) == 0 {
		return true
	}
	ok := 0
	for _, s := range signals {
		if s.OK {
			ok++
		}
	}
	return 3*ok >= 2*len(signals)
}
