package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/ghostswarm/internal/environment"
	"github.com/xkilldash9x/ghostswarm/internal/results"
	"github.com/xkilldash9x/ghostswarm/internal/simulation"
)

// -- Interfaces for Dependency Inversion --

// Store defines the interface for any component that can persist a batch.
type Store interface {
	SaveBatch(ctx context.Context, batch *results.Batch) error
}

// Settings is everything needed to repeat a run.
type Settings struct {
	Algorithm string
	Layout    string
	Painter   environment.Painter
	World     simulation.Options
	Factory   simulation.StrategyFactory
	BaseSeed  int64
	Workers   int
	// KeepSnapshots stores the final agent snapshots in every run result.
	KeepSnapshots bool
}

// Runner executes batches of independent runs on a bounded worker pool.
type Runner struct {
	settings Settings
	template *environment.Grid
	store    Store
	logger   *zap.Logger
}

// New loads the layout once and prepares a runner. store may be nil.
func New(settings Settings, store Store, logger *zap.Logger) (*Runner, error) {
	if settings.Workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", settings.Workers)
	}
	if settings.Factory == nil {
		return nil, errors.New("strategy factory cannot be nil")
	}
	grid, err := environment.LoadLayout(settings.Layout)
	if err != nil {
		return nil, err
	}
	return &Runner{
		settings: settings,
		template: grid,
		store:    store,
		logger:   logger.With(zap.String("component", "engine")),
	}, nil
}

// RunBatch executes n runs, at most Workers at a time. Results are ordered by
// run index whatever order the runs finish in. The first failure cancels the
// remaining runs.
func (r *Runner) RunBatch(ctx context.Context, n int) (*results.Batch, error) {
	if n <= 0 {
		return nil, fmt.Errorf("run count must be positive, got %d", n)
	}
	batch := &results.Batch{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Algorithm: r.settings.Algorithm,
		Agents:    r.settings.World.Agents,
		Colours:   r.settings.World.Colours,
		Layout:    r.settings.Layout,
		BaseSeed:  r.settings.BaseSeed,
		Runs:      make([]results.RunResult, n),
	}
	logger := r.logger.With(zap.String("batch_id", batch.ID.String()))
	logger.Info("Starting batch", zap.Int("runs", n), zap.Int("workers", r.settings.Workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.settings.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := r.RunOne(gctx, i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			batch.Runs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("Batch aborted", zap.Error(err))
		return nil, err
	}

	summary := results.Summarize(batch.Runs)
	logger.Info("Batch complete",
		zap.Int("converged", summary.Converged),
		zap.Float64("mean_accuracy", summary.Accuracy.Mean))

	if r.store != nil {
		// Persist with a fresh context so a late cancellation does not drop
		// finished work.
		persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.store.SaveBatch(persistCtx, batch); err != nil {
			return batch, fmt.Errorf("failed to persist batch: %w", err)
		}
		logger.Info("Successfully persisted batch.")
	}
	return batch, nil
}

// RunOne plays run index on a freshly painted copy of the layout, seeded with
// BaseSeed+index.
func (r *Runner) RunOne(ctx context.Context, index int) (results.RunResult, error) {
	seed := r.settings.BaseSeed + int64(index)
	rng := rand.New(rand.NewSource(seed))
	id := uuid.New()
	logger := r.logger.With(zap.Int("run", index), zap.String("run_id", id.String()))

	grid := r.template.Clone()
	if err := r.settings.Painter.Paint(grid, rng); err != nil {
		return results.RunResult{}, fmt.Errorf("failed to paint grid: %w", err)
	}
	world, err := simulation.NewWorld(grid, r.settings.World, r.settings.Factory, rng, logger)
	if err != nil {
		return results.RunResult{}, err
	}

	start := time.Now()
	out, err := world.Run(ctx)
	if err != nil {
		return results.RunResult{}, err
	}
	truth := int(grid.Majority(r.settings.World.Colours))

	res := results.RunResult{
		ID:           id,
		Index:        index,
		Seed:         seed,
		Rounds:       out.Rounds,
		Converged:    out.Converged,
		SweepRounds:  out.SweepRounds,
		TrueMajority: truth,
		Answers:      out.Answers,
		Accuracy:     results.Accuracy(out.Answers, truth),
		Duration:     time.Since(start),
	}
	if r.settings.KeepSnapshots {
		res.Agents = world.Snapshots()
	}
	logger.Info("Run complete",
		zap.Int("rounds", res.Rounds),
		zap.Bool("converged", res.Converged),
		zap.Float64("accuracy", res.Accuracy))
	return res, nil
}
