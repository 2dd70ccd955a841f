// File: internal/results/pipeline.go
package results

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchSource loads stored batches.
type BatchSource interface {
	GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error)
}

// Pipeline turns stored batches back into reports.
type Pipeline struct {
	source BatchSource
	logger *zap.Logger
}

// NewPipeline creates a results pipeline over a batch source.
func NewPipeline(source BatchSource, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source: source,
		logger: logger.Named("results_pipeline"),
	}
}

// ProcessBatch loads a batch, orders its runs by index and summarises it.
func (p *Pipeline) ProcessBatch(ctx context.Context, id uuid.UUID) (*Report, error) {
	p.logger.Info("Starting results processing", zap.String("batch_id", id.String()))

	batch, err := p.source.GetBatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", id, err)
	}
	SortRuns(batch.Runs)
	p.logger.Info("Retrieved runs", zap.Int("count", len(batch.Runs)))

	report := NewReport(batch)
	p.logger.Info("Results processing complete",
		zap.Float64("mean_accuracy", report.Summary.Accuracy.Mean),
		zap.Int("converged", report.Summary.Converged))
	return report, nil
}

// SortRuns orders runs by index in place.
func SortRuns(runs []RunResult) {
	slices.SortFunc(runs, func(a, b RunResult) int { return cmp.Compare(a.Index, b.Index) })
}
