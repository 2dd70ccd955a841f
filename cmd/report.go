// File: cmd/report.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghostswarm/internal/config"
	"github.com/xkilldash9x/ghostswarm/internal/observability"
	"github.com/xkilldash9x/ghostswarm/internal/reporting"
	"github.com/xkilldash9x/ghostswarm/internal/results"
	"github.com/xkilldash9x/ghostswarm/internal/store"
)

// errNoDatabase is returned when a command needs the store but no database
// URL is configured.
var errNoDatabase = errors.New("database URL is not configured (GHOSTSWARM_DATABASE_URL)")

// batchStore is the persistence surface the commands use.
type batchStore interface {
	Migrate(ctx context.Context) error
	SaveBatch(ctx context.Context, batch *results.Batch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*results.Batch, error)
}

// storeProvider creates a batchStore. Tests inject an in-memory one instead
// of a live database connection.
type storeProvider interface {
	// Create returns the store and a cleanup function releasing it.
	Create(ctx context.Context, cfg config.Interface) (batchStore, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL backed provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to PostgreSQL using the configured URL.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (batchStore, func(), error) {
	if cfg.Database().URL == "" {
		return nil, nil, errNoDatabase
	}
	s, cleanup, err := store.Connect(ctx, cfg.Database().URL, observability.GetLogger())
	if err != nil {
		return nil, nil, err
	}
	return s, cleanup, nil
}

func newReportCmd(provider storeProvider) *cobra.Command {
	var batchID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarises a persisted batch",
		Long:  `Loads a batch from the database by ID and writes its run table and summary statistics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(batchID)
			if err != nil {
				return fmt.Errorf("invalid batch ID %q: %w", batchID, err)
			}
			return runReport(ctx, cfg, provider, id)
		},
	}

	cmd.Flags().StringVar(&batchID, "batch-id", "", "ID of the batch to report on (required)")
	_ = cmd.MarkFlagRequired("batch-id")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	bindFlag(cmd, "format", "report.format")
	bindFlag(cmd, "output", "report.output")
	return cmd
}

func runReport(ctx context.Context, cfg config.Interface, provider storeProvider, id uuid.UUID) error {
	logger := observability.GetLogger().With(zap.String("batch_id", id.String()))

	ctx, cancel := context.WithTimeout(ctx, cfg.Report().Timeout)
	defer cancel()

	s, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer cleanup()

	report, err := results.NewPipeline(s, logger).ProcessBatch(ctx, id)
	if err != nil {
		return err
	}
	return writeReport(cfg.Report(), report)
}

// writeReport renders report in the configured format and destination.
func writeReport(cfg config.ReportConfig, report *results.Report) error {
	reporter, err := reporting.New(cfg.Format, cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}
	if err := reporter.Write(report); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to close report output: %w", err)
	}
	if cfg.Output != "" {
		observability.GetLogger().Info("Report written", zap.String("path", cfg.Output))
	}
	return nil
}
