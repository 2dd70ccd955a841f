// File: internal/belief/bayesian.go
// Description: Per-agent sequential Bayesian estimator. Evidence for and
// against the hypothesis colour accumulates as Beta(alpha, beta) and a
// decision is committed once the posterior mass on either side of 0.5
// exceeds the credible threshold.

package belief

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// BayesianParams configures a Bayesian model.
type BayesianParams struct {
	Prior              float64
	PosteriorThreshold float64
	// PositiveFeedback makes a decided agent broadcast its decision instead
	// of its last raw observation.
	PositiveFeedback bool
}

// Validate rejects out-of-range parameters.
func (p BayesianParams) Validate() error {
	if p.Prior < 0 {
		return fmt.Errorf("prior must be non-negative, got %v", p.Prior)
	}
	if p.PosteriorThreshold <= 0 || p.PosteriorThreshold >= 1 {
		return fmt.Errorf("posterior threshold must be in (0,1), got %v", p.PosteriorThreshold)
	}
	return nil
}

// Bayesian is the belief state of one agent.
type Bayesian struct {
	params     BayesianParams
	alpha      float64
	beta       float64
	hypothesis int
	decision   Decision
	last       int
	hasLast    bool
	ledger     *comms.Ledger
}

var _ Strategy = (*Bayesian)(nil)

// NewBayesian creates an undecided model testing the given hypothesis colour.
func NewBayesian(params BayesianParams, hypothesis int) (*Bayesian, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := &Bayesian{params: params, ledger: comms.NewLedger()}
	b.Reset(hypothesis)
	return b, nil
}

// Reset restores alpha = beta = prior, clears the decision, the last
// observation and the ledger, and switches to a new hypothesis.
func (b *Bayesian) Reset(hypothesis int) {
	b.alpha = b.params.Prior
	b.beta = b.params.Prior
	b.hypothesis = hypothesis
	b.decision = Undecided
	b.last = 0
	b.hasLast = false
	b.ledger.Reset()
}

// Observe records an own sample and then runs the stopping rule.
func (b *Bayesian) Observe(success bool) {
	b.Update(successValue(success))
}

// Tick is a no-op: the Bayesian model only moves on evidence.
func (b *Bayesian) Tick() {}

// Update applies a 0/1 sample and, if still undecided, checks the stopping rule.
func (b *Bayesian) Update(observation int) {
	b.UpdateRatio(observation)
	b.last = observation
	b.hasLast = true
	if b.decision != Undecided {
		return
	}
	if p, ok := massBelowHalf(b.alpha, b.beta); ok {
		b.decision = thresholdDecision(p, b.params.PosteriorThreshold)
	}
}

// UpdateRatio adds one count to alpha (value 1) or beta (anything else). It
// does not evaluate the stopping rule: fused evidence is only checked at the
// agent's next own Update.
func (b *Bayesian) UpdateRatio(value int) {
	if value == 1 {
		b.alpha++
		return
	}
	b.beta++
}

// Fuse applies a peer's observation unless the ledger has already seen the
// same (round, value) from that peer.
func (b *Bayesian) Fuse(msg comms.Message) {
	if msg.Payload.Kind != comms.KindObservation {
		return
	}
	if !b.ledger.Accept(msg.From, msg.Round, msg.Payload.Value) {
		return
	}
	b.UpdateRatio(msg.Payload.Value)
}

// Publish returns the last own observation, or the decision once decided when
// positive feedback is enabled. Nothing is published before the first sample.
func (b *Bayesian) Publish() (comms.Payload, bool) {
	if !b.hasLast {
		return comms.Payload{}, false
	}
	if b.decision != Undecided && b.params.PositiveFeedback {
		return comms.Observation(int(b.decision)), true
	}
	return comms.Observation(b.last), true
}

func (b *Bayesian) Decision() Decision            { return b.decision }
func (b *Bayesian) Hypothesis() int               { return b.hypothesis }
func (b *Bayesian) Params() (alpha, beta float64) { return b.alpha, b.beta }
func (b *Bayesian) Prior() float64                { return b.params.Prior }

// LastObservation returns the last own sample and whether there is one.
func (b *Bayesian) LastObservation() (int, bool) { return b.last, b.hasLast }

// massBelowHalf returns P(X < 0.5) for X ~ Beta(alpha, beta). There is no
// posterior while either shape parameter is zero, so a zero prior needs at
// least one success and one failure before the agent can decide.
func massBelowHalf(alpha, beta float64) (float64, bool) {
	if alpha <= 0 || beta <= 0 {
		return 0, false
	}
	return distuv.Beta{Alpha: alpha, Beta: beta}.CDF(0.5), true
}

// thresholdDecision applies the strict credible-threshold test.
func thresholdDecision(p, threshold float64) Decision {
	switch {
	case p > threshold:
		return False
	case 1-p > threshold:
		return True
	default:
		return Undecided
	}
}
