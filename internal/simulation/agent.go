package simulation

import (
	"github.com/xkilldash9x/ghostswarm/internal/belief"
	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// Agent is one ghost. It is addressed by ID and touches other agents only
// through message batches.
type Agent struct {
	ID       comms.AgentID
	Pos      comms.Position
	Strategy belief.Strategy

	// decisions holds the converged decision for each tested hypothesis.
	decisions []belief.Decision
	samples   int
}

var _ comms.Receiver = (*Agent)(nil)

func newAgent(id comms.AgentID, pos comms.Position, s belief.Strategy, tested int) *Agent {
	decisions := make([]belief.Decision, tested)
	for i := range decisions {
		decisions[i] = belief.Undecided
	}
	return &Agent{ID: id, Pos: pos, Strategy: s, decisions: decisions}
}

// Receive hands a peer message to the strategy.
func (a *Agent) Receive(msg comms.Message) {
	a.Strategy.Fuse(msg)
}

func (a *Agent) sender() comms.Sender {
	return comms.Sender{ID: a.ID, Pos: a.Pos, Publisher: a.Strategy}
}

func (a *Agent) record(hypothesis int) {
	if hypothesis >= 0 && hypothesis < len(a.decisions) {
		a.decisions[hypothesis] = a.Strategy.Decision()
	}
}

// Decisions returns the recorded decision per tested hypothesis.
func (a *Agent) Decisions() []belief.Decision {
	out := make([]belief.Decision, len(a.decisions))
	copy(out, a.decisions)
	return out
}

// NoAnswer is the answer of an agent that left a tested hypothesis undecided.
const NoAnswer = -1

// Answer is the colour the agent settled on: the first tested hypothesis it
// decided true on, or the untested final colour once every tested hypothesis
// was decided false. An undecided hypothesis before any true decision eliminates
// nothing, so the agent has NoAnswer.
func (a *Agent) Answer() int {
	for h, d := range a.decisions {
		switch d {
		case belief.True:
			return h
		case belief.Undecided:
			return NoAnswer
		}
	}
	return len(a.decisions)
}

// Snapshot is a read-only view of an agent for reports and progress logs.
type Snapshot struct {
	ID         comms.AgentID     `json:"id"`
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Hypothesis int               `json:"hypothesis"`
	Decision   string            `json:"decision"`
	Alpha      float64           `json:"alpha"`
	Beta       float64           `json:"beta"`
	Samples    int               `json:"samples"`
	Decisions  []belief.Decision `json:"decisions"`
	Answer     int               `json:"answer"`
}

// Snapshot captures the agent's current state.
func (a *Agent) Snapshot() Snapshot {
	alpha, beta := a.Strategy.Params()
	return Snapshot{
		ID:         a.ID,
		X:          a.Pos.X,
		Y:          a.Pos.Y,
		Hypothesis: a.Strategy.Hypothesis(),
		Decision:   a.Strategy.Decision().String(),
		Alpha:      alpha,
		Beta:       beta,
		Samples:    a.samples,
		Decisions:  a.Decisions(),
		Answer:     a.Answer(),
	}
}
