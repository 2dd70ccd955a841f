package cmd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/ghostswarm/internal/config"
	"github.com/xkilldash9x/ghostswarm/internal/engine"
	"github.com/xkilldash9x/ghostswarm/internal/observability"
	"github.com/xkilldash9x/ghostswarm/internal/results"
	"github.com/xkilldash9x/ghostswarm/internal/simulation"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Plays a single run round by round",
		Long: `Plays one simulation, logging progress after every round, and reports the
final state of every agent. A positive --tick-rate paces the run to that
many rounds per second.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runWatch(ctx, cfg)
		},
	}

	cmd.Flags().IntP("agents", "n", 0, "Number of agents")
	cmd.Flags().Int64("seed", 0, "Run seed")
	cmd.Flags().StringP("algorithm", "a", "", "Decision algorithm (bayesian, benchmark)")
	cmd.Flags().StringP("layout", "l", "", "Built-in layout name or path to a layout file")
	cmd.Flags().Float64("tick-rate", 0, "Rounds per second; 0 runs unpaced")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	bindFlag(cmd, "agents", "simulation.agents")
	bindFlag(cmd, "seed", "simulation.seed")
	bindFlag(cmd, "algorithm", "simulation.algorithm")
	bindFlag(cmd, "layout", "environment.layout")
	bindFlag(cmd, "tick-rate", "simulation.tick_rate")
	bindFlag(cmd, "format", "report.format")
	bindFlag(cmd, "output", "report.output")
	return cmd
}

func runWatch(ctx context.Context, cfg config.Interface) error {
	logger := observability.GetLogger()

	settings, err := buildSettings(cfg)
	if err != nil {
		return err
	}
	settings.Workers = 1
	settings.KeepSnapshots = true
	if tick := cfg.Simulation().TickRate; tick > 0 {
		settings.World.Limiter = rate.NewLimiter(rate.Limit(tick), 1)
	}
	settings.World.OnRound = func(r simulation.RoundReport) {
		logger.Info("Round",
			zap.Int("round", r.Round),
			zap.Int("hypothesis", r.Hypothesis),
			zap.Int("decided", r.Decided),
			zap.Int("agents", r.Agents),
			zap.Int("messages", r.Messages))
	}

	runner, err := engine.New(settings, nil, logger)
	if err != nil {
		return err
	}
	res, err := runner.RunOne(ctx, 0)
	if err != nil {
		return err
	}

	batch := &results.Batch{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Algorithm: settings.Algorithm,
		Agents:    settings.World.Agents,
		Colours:   settings.World.Colours,
		Layout:    settings.Layout,
		BaseSeed:  settings.BaseSeed,
		Runs:      []results.RunResult{res},
	}
	return writeReport(cfg.Report(), results.NewReport(batch))
}
