package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pipeline_runs (
			run_id, window_start, window_end, status,
			table_hash, row_count, column_count, warnings, error,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Start, r.End, string(r.Status),
		r.TableHash, r.RowCount, r.Columns, nonNil(r.Warnings), r.Error,
		r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

// Finish records the terminal state of a run. Returns ErrNotFound if not exists.
func (s *RunStore) Finish(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE pipeline_runs SET
			status = $2,
			table_hash = $3,
			row_count = $4,
			column_count = $5,
			warnings = $6,
			error = $7,
			finished_at = $8
		WHERE run_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		r.RunID, string(r.Status), r.TableHash, r.RowCount, r.Columns,
		nonNil(r.Warnings), r.Error, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish pipeline run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT
			run_id, window_start, window_end, status,
			table_hash, row_count, column_count, warnings, error,
			started_at, finished_at
		FROM pipeline_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRunRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pipeline run: %w", err)
	}
	return r, nil
}

func scanRunRecord(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var status string
	err := row.Scan(
		&r.RunID, &r.Start, &r.End, &status,
		&r.TableHash, &r.RowCount, &r.Columns, &r.Warnings, &r.Error,
		&r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.RunStatus(status)
	r.Start = domain.Date(r.Start)
	r.End = domain.Date(r.End)
	if len(r.Warnings) == 0 {
		r.Warnings = nil
	}
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
