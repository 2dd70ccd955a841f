package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghostswarm/internal/results"
	"github.com/xkilldash9x/ghostswarm/internal/simulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrBatchNotFound is returned by GetBatch for an unknown batch ID.
var ErrBatchNotFound = errors.New("batch not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var _ DBPool = (*pgxpool.Pool)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS batches (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    algorithm TEXT NOT NULL,
    agents INTEGER NOT NULL,
    colours INTEGER NOT NULL,
    layout TEXT NOT NULL,
    base_seed BIGINT NOT NULL,
    summary JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
    id UUID PRIMARY KEY,
    batch_id UUID NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    run_index INTEGER NOT NULL,
    seed BIGINT NOT NULL,
    rounds INTEGER NOT NULL,
    converged BOOLEAN NOT NULL,
    true_majority INTEGER NOT NULL,
    accuracy DOUBLE PRECISION NOT NULL,
    sweep_rounds JSONB NOT NULL,
    answers JSONB NOT NULL,
    agents JSONB NOT NULL,
    duration_ms BIGINT NOT NULL,
    UNIQUE (batch_id, run_index)
);
`

const sqlInsertBatch = `
        INSERT INTO batches (id, created_at, algorithm, agents, colours, layout, base_seed, summary)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `

const sqlGetBatch = `
        SELECT id, created_at, algorithm, agents, colours, layout, base_seed
        FROM batches
        WHERE id = $1;
    `

const sqlGetRuns = `
        SELECT id, run_index, seed, rounds, converged, true_majority, accuracy, sweep_rounds, answers, agents, duration_ms
        FROM runs
        WHERE batch_id = $1
        ORDER BY run_index ASC;
    `

var runColumns = []string{
	"id", "batch_id", "run_index", "seed", "rounds", "converged", "true_majority",
	"accuracy", "sweep_rounds", "answers", "agents", "duration_ms",
}

// Store persists batches and their runs in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pgx pool for url and wraps it in a Store. The returned
// func closes the pool.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveBatch writes a batch and all of its runs in one transaction.
func (s *Store) SaveBatch(ctx context.Context, batch *results.Batch) error {
	summary, err := json.Marshal(results.Summarize(batch.Runs))
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	_, err = tx.Exec(ctx, sqlInsertBatch,
		batch.ID.String(), batch.CreatedAt.UTC(), batch.Algorithm, batch.Agents,
		batch.Colours, batch.Layout, batch.BaseSeed, summary)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	if len(batch.Runs) > 0 {
		if err := s.persistRuns(ctx, tx, batch); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Persisted batch", zap.String("batch_id", batch.ID.String()), zap.Int("runs", len(batch.Runs)))
	return nil
}

func (s *Store) persistRuns(ctx context.Context, tx pgx.Tx, batch *results.Batch) error {
	rows := make([][]interface{}, len(batch.Runs))
	for i, r := range batch.Runs {
		sweep, err := marshalArray(r.SweepRounds)
		if err != nil {
			return err
		}
		answers, err := marshalArray(r.Answers)
		if err != nil {
			return err
		}
		agents, err := marshalArray(r.Agents)
		if err != nil {
			return err
		}
		rows[i] = []interface{}{
			r.ID.String(), batch.ID.String(), r.Index, r.Seed, r.Rounds, r.Converged,
			r.TrueMajority, r.Accuracy, sweep, answers, agents, r.Duration.Milliseconds(),
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"runs"}, runColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy runs: %w", err)
	}
	if int(copyCount) != len(batch.Runs) {
		return fmt.Errorf("mismatch in copied runs count: expected %d, got %d", len(batch.Runs), copyCount)
	}
	return nil
}

// marshalArray encodes v as JSON, writing nil slices as [] so the JSONB
// columns never hold null.
func marshalArray[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run column: %w", err)
	}
	return b, nil
}

// GetBatch loads a batch and its runs ordered by index.
func (s *Store) GetBatch(ctx context.Context, id uuid.UUID) (*results.Batch, error) {
	rows, err := s.pool.Query(ctx, sqlGetBatch, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}
	var (
		batch   results.Batch
		batchID string
		found   bool
	)
	for rows.Next() {
		if err := rows.Scan(&batchID, &batch.CreatedAt, &batch.Algorithm, &batch.Agents,
			&batch.Colours, &batch.Layout, &batch.BaseSeed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		found = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if batch.ID, err = uuid.Parse(batchID); err != nil {
		return nil, fmt.Errorf("stored batch id %q is not a UUID: %w", batchID, err)
	}

	batch.Runs, err = s.getRuns(ctx, id)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *Store) getRuns(ctx context.Context, batchID uuid.UUID) ([]results.RunResult, error) {
	rows, err := s.pool.Query(ctx, sqlGetRuns, batchID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []results.RunResult
	for rows.Next() {
		var (
			r                      results.RunResult
			id                     string
			sweep, answers, agents []byte
			durationMs             int64
		)
		err := rows.Scan(&id, &r.Index, &r.Seed, &r.Rounds, &r.Converged, &r.TrueMajority,
			&r.Accuracy, &sweep, &answers, &agents, &durationMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("stored run id %q is not a UUID: %w", id, err)
		}
		if err := json.Unmarshal(sweep, &r.SweepRounds); err != nil {
			return nil, fmt.Errorf("failed to decode sweep rounds of run %d: %w", r.Index, err)
		}
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers of run %d: %w", r.Index, err)
		}
		var snapshots []simulation.Snapshot
		if err := json.Unmarshal(agents, &snapshots); err != nil {
			return nil, fmt.Errorf("failed to decode agents of run %d: %w", r.Index, err)
		}
		if len(snapshots) > 0 {
			r.Agents = snapshots
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return runs, nil
}
