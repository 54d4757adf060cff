package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gridswarm/internal/swarm"
	"github.com/banshee-data/gridswarm/internal/trainer"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("training run not found")

// Run matches the training_runs table.
type Run struct {
	RunID             string        // set by CreateRun when empty
	Dims              []int         // stored as dims_json
	Limits            []swarm.Limit // stored as limits_json
	LearningRate      float64
	Momentum          float64
	BatchSize         int
	NoiseStdDev       float64
	Seed              uint64 // stored bit-for-bit in a signed INTEGER
	Version           string
	StartedUnixNanos  int64
	FinishedUnixNanos *int64   // nil until FinishRun
	FinalMSE          *float64 // nil until FinishRun
}

// CreateRun inserts r and returns its run ID, generating a UUID if r.RunID
// is empty.
func (s *Store) CreateRun(ctx context.Context, r Run) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	dimsJSON, err := json.Marshal(r.Dims)
	if err != nil {
		return "", fmt.Errorf("failed to encode dims: %w", err)
	}
	limitsJSON, err := json.Marshal(r.Limits)
	if err != nil {
		return "", fmt.Errorf("failed to encode limits: %w", err)
	}

	_, err = s.ExecContext(ctx,
		`INSERT INTO training_runs (
			run_id, dims_json, limits_json, learning_rate, momentum,
			batch_size, noise_stddev, seed, version, started_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, string(dimsJSON), string(limitsJSON), r.LearningRate, r.Momentum,
		r.BatchSize, r.NoiseStdDev, int64(r.Seed), r.Version, r.StartedUnixNanos,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", r.RunID, err)
	}
	return r.RunID, nil
}

// FinishRun stamps the completion time and final batch MSE.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedUnixNanos int64, finalMSE float64) error {
	res, err := s.ExecContext(ctx,
		`UPDATE training_runs SET finished_unix_nanos = ?, final_mse = ? WHERE run_id = ?`,
		finishedUnixNanos, finalMSE, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun loads one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		r          Run
		dimsJSON   string
		limitsJSON string
		seed       int64
		finished   sql.NullInt64
		finalMSE   sql.NullFloat64
	)
	err := s.QueryRowContext(ctx,
		`SELECT run_id, dims_json, limits_json, learning_rate, momentum,
			batch_size, noise_stddev, seed, version, started_unix_nanos,
			finished_unix_nanos, final_mse
		FROM training_runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &dimsJSON, &limitsJSON, &r.LearningRate, &r.Momentum,
		&r.BatchSize, &r.NoiseStdDev, &seed, &r.Version, &r.StartedUnixNanos,
		&finished, &finalMSE)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(dimsJSON), &r.Dims); err != nil {
		return nil, fmt.Errorf("failed to decode dims for run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(limitsJSON), &r.Limits); err != nil {
		return nil, fmt.Errorf("failed to decode limits for run %s: %w", runID, err)
	}
	r.Seed = uint64(seed)
	if finished.Valid {
		r.FinishedUnixNanos = &finished.Int64
	}
	if finalMSE.Valid {
		r.FinalMSE = &finalMSE.Float64
	}
	return &r, nil
}

// RecordBatch appends one batch result to a run.
func (s *Store) RecordBatch(ctx context.Context, runID string, b trainer.BatchResult) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO training_batches (run_id, batch, samples, mse, elapsed_nanos)
		VALUES (?, ?, ?, ?, ?)`,
		runID, b.Batch, b.Samples, b.MSE, b.Elapsed.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record batch %d for run %s: %w", b.Batch, runID, err)
	}
	return nil
}

// ListBatches returns a run's batches in batch order.
func (s *Store) ListBatches(ctx context.Context, runID string) ([]trainer.BatchResult, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT batch, samples, mse, elapsed_nanos FROM training_batches
		WHERE run_id = ? ORDER BY batch`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []trainer.BatchResult
	for rows.Next() {
		var (
			b       trainer.BatchResult
			elapsed int64
		)
		if err := rows.Scan(&b.Batch, &b.Samples, &b.MSE, &elapsed); err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		b.Elapsed = time.Duration(elapsed)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Recorder returns a trainer.Recorder that appends batches to runID.
func (s *Store) Recorder(runID string) trainer.Recorder {
	return trainer.RecorderFunc(func(ctx context.Context, b trainer.BatchResult) error {
		return s.RecordBatch(ctx, runID, b)
	})
}
