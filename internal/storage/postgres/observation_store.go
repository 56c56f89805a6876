package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// ReplaceSeries upserts the series row and swaps its observations inside [first, last]
// of s in one transaction.
func (s *ObservationStore) ReplaceSeries(ctx context.Context, series domain.Series) error {
	if series.Name == "" {
		return storage.ErrInvalidInput
	}
	if err := series.CheckDates(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidInput, err)
	}

	rows := make([][]any, 0, len(series.Observations))
	var first, last time.Time
	for i, o := range series.Observations {
		d := domain.Date(o.Date)
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
		rows = append(rows, []any{series.Name, d, o.Value})
	}

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO series (name, frequency, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE SET
				frequency = CASE WHEN EXCLUDED.frequency = '' THEN series.frequency ELSE EXCLUDED.frequency END,
				updated_at = now()
		`, series.Name, string(series.Frequency))
		if err != nil {
			return fmt.Errorf("upsert series %s: %w", series.Name, err)
		}
		if len(rows) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM observations
			WHERE series_name = $1 AND obs_date BETWEEN $2 AND $3
		`, series.Name, first, last)
		if err != nil {
			return fmt.Errorf("delete observations %s: %w", series.Name, err)
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"observations"},
			[]string{"series_name", "obs_date", "value"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy observations %s: %w", series.Name, err)
		}
		return nil
	})
}

// GetSeries retrieves observations within [from, to] (inclusive), ordered by date ASC.
func (s *ObservationStore) GetSeries(ctx context.Context, name string, from, to time.Time) (domain.Series, error) {
	var frequency string
	err := s.pool.QueryRow(ctx, `SELECT frequency FROM series WHERE name = $1`, name).Scan(&frequency)
	if err != nil {
		if isNotFoundError(err) {
			return domain.Series{}, storage.ErrNotFound
		}
		return domain.Series{}, fmt.Errorf("get series %s: %w", name, err)
	}

	query := `
		SELECT obs_date, value
		FROM observations
		WHERE series_name = $1 AND obs_date BETWEEN $2 AND $3
		ORDER BY obs_date ASC
	`

	rows, err := s.pool.Query(ctx, query, name, domain.Date(from), domain.Date(to))
	if err != nil {
		return domain.Series{}, fmt.Errorf("query observations %s: %w", name, err)
	}
	defer rows.Close()

	series := domain.Series{Name: name, Frequency: domain.Frequency(frequency)}
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.Date, &o.Value); err != nil {
			return domain.Series{}, fmt.Errorf("scan observation: %w", err)
		}
		o.Date = domain.Date(o.Date)
		series.Observations = append(series.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Series{}, fmt.Errorf("iterate observations: %w", err)
	}

	return series, nil
}
