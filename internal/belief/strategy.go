// File: internal/belief/strategy.go
// Description: The capability interface shared by the two decision strategies
// (sequential Bayesian and two-phase quorum benchmark).

package belief

import (
	"fmt"

	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// Decision is the tri-state outcome of testing a hypothesis.
type Decision int

const (
	Undecided Decision = -1
	False     Decision = 0
	True      Decision = 1
)

func (d Decision) String() string {
	switch d {
	case Undecided:
		return "undecided"
	case False:
		return "false"
	case True:
		return "true"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Strategy is what an agent needs from its belief model. Both implementations
// are driven only by their owning agent, one call at a time.
type Strategy interface {
	comms.Publisher

	// Observe feeds one own sample: true when the sampled cell carries the
	// hypothesis colour under test.
	Observe(success bool)
	// Tick advances one own step on which nothing was sampled.
	Tick()
	// Fuse incorporates a peer's message.
	Fuse(msg comms.Message)
	// Decision returns the current decision.
	Decision() Decision
	// Hypothesis returns the colour index currently under test.
	Hypothesis() int
	// Params returns the current Beta shape parameters.
	Params() (alpha, beta float64)
	// Reset re-arms the model for a new hypothesis.
	Reset(hypothesis int)
}

func successValue(success bool) int {
	if success {
		return 1
	}
	return 0
}
