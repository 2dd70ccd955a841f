// File: internal/belief/quorum.go
// Description: Two-phase benchmark estimator. Each agent first samples
// privately for a fixed budget, then gossips its raw (alpha, beta) for a fixed
// number of rounds, and finally decides from the sum of everything it heard.

package belief

import (
	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// Phase is the benchmark state machine position.
type Phase int

const (
	PhasePrivate Phase = iota
	PhaseGossip
	PhaseDecided
)

func (p Phase) String() string {
	switch p {
	case PhasePrivate:
		return "private_sampling"
	case PhaseGossip:
		return "gossip_aggregation"
	case PhaseDecided:
		return "decided"
	default:
		return "unknown"
	}
}

// benchmarkPrior is the starting value of both shape parameters.
const benchmarkPrior = 1.0

type pair struct {
	alpha float64
	beta  float64
}

// Quorum is the benchmark state of one agent.
type Quorum struct {
	self         comms.AgentID
	budget       Budget
	hypothesis   int
	alpha        float64
	beta         float64
	sampleBudget int
	commBudget   int
	gossipSteps  int
	phase        Phase
	decision     Decision
	collected    map[comms.AgentID]pair
}

var _ Strategy = (*Quorum)(nil)

// NewQuorum creates a benchmark model for agent self using a precomputed budget.
func NewQuorum(self comms.AgentID, budget Budget, hypothesis int) *Quorum {
	q := &Quorum{self: self, budget: budget, collected: make(map[comms.AgentID]pair)}
	q.Reset(hypothesis)
	return q
}

// Reset returns to the private phase with fresh budgets.
func (q *Quorum) Reset(hypothesis int) {
	q.hypothesis = hypothesis
	q.alpha = benchmarkPrior
	q.beta = benchmarkPrior
	q.sampleBudget = max(q.budget.SamplesPerAgent, 0)
	q.commBudget = max(q.budget.CommRounds, 0)
	q.gossipSteps = 0
	q.decision = Undecided
	clear(q.collected)
	q.phase = PhasePrivate
	if q.sampleBudget == 0 {
		q.phase = PhaseGossip
	}
}

// Observe advances the state machine by one own step carrying a sample.
// Samples only count during the private phase.
func (q *Quorum) Observe(success bool) {
	if q.phase != PhasePrivate {
		q.Tick()
		return
	}
	q.UpdateRatio(successValue(success))
	q.sampleBudget--
	if q.sampleBudget == 0 {
		q.phase = PhaseGossip
	}
}

// Tick advances one own step without a sample. The gossip countdown runs on
// rounds, not on samples, so it moves whether or not the agent sampled.
func (q *Quorum) Tick() {
	if q.phase != PhaseGossip {
		return
	}
	if q.commBudget > 0 {
		q.collected[q.self] = pair{q.alpha, q.beta}
		q.commBudget--
		q.gossipSteps++
		return
	}
	q.decide()
}

// UpdateRatio adds one count to alpha (value 1) or beta.
func (q *Quorum) UpdateRatio(value int) {
	if value == 1 {
		q.alpha++
		return
	}
	q.beta++
}

// ReceiveInfo stores a peer's reported parameters, replacing any earlier
// report. Ignored during private sampling and after the decision.
func (q *Quorum) ReceiveInfo(peer comms.AgentID, alpha, beta float64) {
	if q.phase != PhaseGossip {
		return
	}
	q.collected[peer] = pair{alpha, beta}
}

// Fuse accepts belief payloads only.
func (q *Quorum) Fuse(msg comms.Message) {
	if msg.Payload.Kind != comms.KindBelief {
		return
	}
	q.ReceiveInfo(msg.From, msg.Payload.Alpha, msg.Payload.Beta)
}

// Publish returns the agent's own parameters on gossip rounds.
func (q *Quorum) Publish() (comms.Payload, bool) {
	if q.phase != PhaseGossip || q.gossipSteps == 0 {
		return comms.Payload{}, false
	}
	return comms.Belief(q.alpha, q.beta), true
}

// decide sums everything collected, including the agent's own entry.
func (q *Quorum) decide() {
	q.collected[q.self] = pair{q.alpha, q.beta}
	alphaTotal, betaTotal := q.Totals()
	// NOTE: exact ties fall through to True.
	if betaTotal > alphaTotal {
		q.decision = False
	} else {
		q.decision = True
	}
	q.phase = PhaseDecided
}

// Totals sums alpha and beta over every collected report.
func (q *Quorum) Totals() (alpha, beta float64) {
	for _, p := range q.collected {
		alpha += p.alpha
		beta += p.beta
	}
	return alpha, beta
}

func (q *Quorum) Decision() Decision            { return q.decision }
func (q *Quorum) Hypothesis() int               { return q.hypothesis }
func (q *Quorum) Params() (alpha, beta float64) { return q.alpha, q.beta }
func (q *Quorum) Phase() Phase                  { return q.phase }
func (q *Quorum) SampleBudget() int             { return q.sampleBudget }
func (q *Quorum) CommBudget() int               { return q.commBudget }
func (q *Quorum) Collected() int                { return len(q.collected) }
