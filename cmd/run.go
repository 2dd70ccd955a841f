package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghostswarm/internal/config"
	"github.com/xkilldash9x/ghostswarm/internal/engine"
	"github.com/xkilldash9x/ghostswarm/internal/observability"
	"github.com/xkilldash9x/ghostswarm/internal/results"
)

func newRunCmd(provider storeProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs a batch of independent simulations",
		Long: `Runs the configured number of independent simulations in parallel, each on a
freshly painted copy of the layout, and reports convergence and accuracy
statistics. When a database URL is configured the batch is persisted.`,
		Example: `  ghostswarm run --agents 50 --runs 20
  ghostswarm run --algorithm benchmark --layout open --format json -o batch.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runBatch(ctx, cfg, provider)
		},
	}

	cmd.Flags().IntP("agents", "n", 0, "Number of agents per run")
	cmd.Flags().IntP("runs", "r", 0, "Number of independent runs")
	cmd.Flags().Int64("seed", 0, "Base seed; run i uses seed+i")
	cmd.Flags().IntP("workers", "w", 0, "Maximum runs executing in parallel")
	cmd.Flags().StringP("algorithm", "a", "", "Decision algorithm (bayesian, benchmark)")
	cmd.Flags().StringP("layout", "l", "", "Built-in layout name or path to a layout file")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().Bool("keep-agents", false, "Include final agent snapshots in the report")

	bindFlag(cmd, "agents", "simulation.agents")
	bindFlag(cmd, "runs", "simulation.runs")
	bindFlag(cmd, "seed", "simulation.seed")
	bindFlag(cmd, "workers", "simulation.workers")
	bindFlag(cmd, "algorithm", "simulation.algorithm")
	bindFlag(cmd, "layout", "environment.layout")
	bindFlag(cmd, "format", "report.format")
	bindFlag(cmd, "output", "report.output")
	bindFlag(cmd, "keep-agents", "simulation.keep_agents")
	return cmd
}

func runBatch(ctx context.Context, cfg config.Interface, provider storeProvider) error {
	logger := observability.GetLogger()

	settings, err := buildSettings(cfg)
	if err != nil {
		return err
	}

	var sink engine.Store
	if cfg.Database().URL != "" {
		s, cleanup, err := provider.Create(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer cleanup()
		if err := s.Migrate(ctx); err != nil {
			return err
		}
		sink = s
	} else {
		logger.Debug("No database configured; batch will not be persisted.")
	}

	runner, err := engine.New(settings, sink, logger)
	if err != nil {
		return err
	}

	batch, err := runner.RunBatch(ctx, cfg.Simulation().Runs)
	if err != nil && batch == nil {
		return err
	}
	// A batch that failed to persist is still reported.
	if reportErr := writeReport(cfg.Report(), results.NewReport(batch)); reportErr != nil {
		return errors.Join(err, reportErr)
	}
	if err != nil {
		return err
	}
	logger.Info("Batch finished", zap.String("batch_id", batch.ID.String()))
	return nil
}
