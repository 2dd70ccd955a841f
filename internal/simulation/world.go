// File: internal/simulation/world.go
// Description: The explicit simulation context and its round driver. A round
// moves and samples every agent, then builds and delivers one message batch
// from the end-of-round positions, then checks for population convergence.

package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/ghostswarm/internal/belief"
	"github.com/xkilldash9x/ghostswarm/internal/comms"
	"github.com/xkilldash9x/ghostswarm/internal/environment"
)

// ErrTooManyAgents is returned when the population does not fit on the
// passable cells of the grid.
var ErrTooManyAgents = errors.New("more agents than passable cells")

// StrategyFactory builds the belief model for one agent.
type StrategyFactory func(id comms.AgentID, hypothesis int) (belief.Strategy, error)

// Options configures a World.
type Options struct {
	Agents  int
	Colours int
	Radius  int
	// MaxRounds stops an unconverged run. Zero means no limit.
	MaxRounds int
	// Limiter paces rounds when set.
	Limiter *rate.Limiter
	// OnRound is called after every completed round.
	OnRound func(RoundReport)
}

// RoundReport summarises one round for progress output.
type RoundReport struct {
	Round      int
	Hypothesis int
	Decided    int
	Agents     int
	Messages   int
	Dropped    int
}

// Outcome is the result of a run.
type Outcome struct {
	Rounds    int
	Converged bool
	// SweepRounds is the round at which each tested hypothesis converged.
	SweepRounds []int
	Answers     []int
}

// World owns the grid, the agents and the random source of a single run.
// It is not safe for concurrent use.
type World struct {
	grid     *environment.Grid
	walker   *environment.Walker
	protocol *comms.Protocol
	agents   []*Agent
	opts     Options
	logger   *zap.Logger

	round       int
	hypothesis  int
	tested      int
	finished    bool
	sweepRounds []int
}

// NewWorld spawns opts.Agents agents on distinct random passable cells and
// arms each with a strategy testing hypothesis 0.
func NewWorld(grid *environment.Grid, opts Options, factory StrategyFactory, rng *rand.Rand, logger *zap.Logger) (*World, error) {
	if opts.Agents <= 0 {
		return nil, fmt.Errorf("agent count must be positive, got %d", opts.Agents)
	}
	if opts.Colours < 2 {
		return nil, fmt.Errorf("at least two colours are required, got %d", opts.Colours)
	}
	if opts.Radius < 1 {
		return nil, fmt.Errorf("communication range must be at least 1, got %d", opts.Radius)
	}

	cells := grid.PassableCells()
	if opts.Agents > len(cells) {
		return nil, fmt.Errorf("%w: %d agents, %d cells", ErrTooManyAgents, opts.Agents, len(cells))
	}

	w := &World{
		grid:     grid,
		walker:   environment.NewWalker(grid, rng),
		protocol: comms.NewProtocol(opts.Radius),
		opts:     opts,
		logger:   logger.Named("world"),
		tested:   opts.Colours - 1,
	}

	spawn := rng.Perm(len(cells))[:opts.Agents]
	w.agents = make([]*Agent, opts.Agents)
	for i, cell := range spawn {
		id := comms.AgentID(i)
		s, err := factory(id, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create strategy for agent %d: %w", i, err)
		}
		w.agents[i] = newAgent(id, cells[cell], s, w.tested)
	}
	return w, nil
}

// Agents exposes the population in ID order.
func (w *World) Agents() []*Agent { return w.agents }

// Round is the number of completed rounds.
func (w *World) Round() int { return w.round }

// Hypothesis is the colour currently under test.
func (w *World) Hypothesis() int { return w.hypothesis }

// Finished reports whether the final hypothesis has converged.
func (w *World) Finished() bool { return w.finished }

// Step plays one round.
func (w *World) Step() RoundReport {
	if w.finished {
		return w.report(0, 0)
	}
	w.round++

	for _, a := range w.agents {
		a.Pos = w.walker.Step(a.Pos)
		c := w.grid.ColourAt(a.Pos.X, a.Pos.Y)
		// Background floor carries no hypothesis colour to sample, but the
		// step still counts.
		if c == environment.NoColour {
			a.Strategy.Tick()
			continue
		}
		a.samples++
		a.Strategy.Observe(int(c) == a.Strategy.Hypothesis())
	}

	senders := make([]comms.Sender, len(w.agents))
	for i, a := range w.agents {
		senders[i] = a.sender()
	}
	batch := w.protocol.Exchange(w.round, senders)
	delivered, dropped := comms.Deliver(batch, w.lookup)

	report := w.report(delivered, dropped)
	w.checkConvergence()

	if ce := w.logger.Check(zap.DebugLevel, "round complete"); ce != nil {
		ce.Write(
			zap.Int("round", report.Round),
			zap.Int("hypothesis", report.Hypothesis),
			zap.Int("decided", report.Decided),
			zap.Int("messages", report.Messages),
		)
	}
	if w.opts.OnRound != nil {
		w.opts.OnRound(report)
	}
	return report
}

// Run steps until the sweep finishes, MaxRounds is reached or ctx is done.
// Cancellation is observed at round boundaries only.
func (w *World) Run(ctx context.Context) (Outcome, error) {
	for !w.finished {
		if err := ctx.Err(); err != nil {
			return w.Outcome(), err
		}
		if w.opts.MaxRounds > 0 && w.round >= w.opts.MaxRounds {
			w.logger.Info("Round limit reached before convergence.",
				zap.Int("rounds", w.round), zap.Int("hypothesis", w.hypothesis))
			break
		}
		if w.opts.Limiter != nil {
			if err := w.opts.Limiter.Wait(ctx); err != nil {
				return w.Outcome(), err
			}
		}
		w.Step()
	}
	return w.Outcome(), nil
}

// Outcome summarises the run so far.
func (w *World) Outcome() Outcome {
	answers := make([]int, len(w.agents))
	for i, a := range w.agents {
		answers[i] = a.Answer()
	}
	sweep := make([]int, len(w.sweepRounds))
	copy(sweep, w.sweepRounds)
	return Outcome{
		Rounds:      w.round,
		Converged:   w.finished,
		SweepRounds: sweep,
		Answers:     answers,
	}
}

// Snapshots captures every agent.
func (w *World) Snapshots() []Snapshot {
	out := make([]Snapshot, len(w.agents))
	for i, a := range w.agents {
		out[i] = a.Snapshot()
	}
	return out
}

func (w *World) lookup(id comms.AgentID) (comms.Receiver, bool) {
	if id < 0 || int(id) >= len(w.agents) {
		return nil, false
	}
	return w.agents[id], true
}

func (w *World) decided() int {
	n := 0
	for _, a := range w.agents {
		if a.Strategy.Decision() != belief.Undecided {
			n++
		}
	}
	return n
}

// checkConvergence records the population's decisions once every agent has
// decided, then either re-arms everyone with the next hypothesis or finishes.
// The last colour is never tested; it is inferred by elimination.
func (w *World) checkConvergence() {
	if w.decided() < len(w.agents) {
		return
	}
	for _, a := range w.agents {
		a.record(w.hypothesis)
	}
	w.sweepRounds = append(w.sweepRounds, w.round)
	w.logger.Debug("Population converged.",
		zap.Int("round", w.round), zap.Int("hypothesis", w.hypothesis))

	if w.hypothesis+1 < w.tested {
		w.hypothesis++
		for _, a := range w.agents {
			a.Strategy.Reset(w.hypothesis)
		}
		return
	}
	w.finished = true
}

func (w *World) report(delivered, dropped int) RoundReport {
	return RoundReport{
		Round:      w.round,
		Hypothesis: w.hypothesis,
		Decided:    w.decided(),
		Agents:     len(w.agents),
		Messages:   delivered,
		Dropped:    dropped,
	}
}
