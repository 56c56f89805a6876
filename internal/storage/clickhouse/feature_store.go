package clickhouse

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/idhash"
	"gld-feature-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse.
// Tables are stored in long format: one feature_rows row per cell.
type FeatureStore struct {
	conn *Conn
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(conn *Conn) *FeatureStore {
	return &FeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// InsertTable writes the schema, every cell, and finally the feature_runs marker.
// A table without its marker is treated as not stored.
func (s *FeatureStore) InsertTable(ctx context.Context, runID string, t *domain.Table) error {
	if runID == "" || t == nil {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	cols := t.Columns()

	// 1. Column schema
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO feature_columns (run_id, column_index, column_name, frequency)
	`)
	if err != nil {
		return fmt.Errorf("prepare columns batch: %w", err)
	}
	for i, c := range cols {
		if err := batch.Append(runID, uint16(i), c.Name, string(c.Frequency)); err != nil {
			return fmt.Errorf("append column: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send columns batch: %w", err)
	}

	// 2. Cells
	batch, err = s.conn.PrepareBatch(ctx, `
		INSERT INTO feature_rows (run_id, row_date, column_index, column_name, frequency, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare rows batch: %w", err)
	}
	for i, c := range cols {
		for row, v := range c.Values {
			// Pass nil values directly for Nullable columns
			if err := batch.Append(runID, t.Date(row), uint16(i), c.Name, string(c.Frequency), v); err != nil {
				return fmt.Errorf("append cell: %w", err)
			}
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send rows batch: %w", err)
	}

	// 3. Marker
	err = s.conn.Exec(ctx, `
		INSERT INTO feature_runs (run_id, row_count, column_count, table_hash)
		VALUES (?, ?, ?, ?)
	`, runID, uint32(t.Len()), uint16(len(cols)), idhash.TableHash(t))
	if err != nil {
		return fmt.Errorf("insert feature run: %w", err)
	}

	return nil
}

// GetTable rebuilds the table stored under runID and checks it against the stored hash.
func (s *FeatureStore) GetTable(ctx context.Context, runID string) (*domain.Table, error) {
	var rowCount uint32
	var columnCount uint16
	var hash string

	rows, err := s.conn.Query(ctx, `
		SELECT row_count, column_count, table_hash
		FROM feature_runs FINAL
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query feature run: %w", err)
	}
	found := rows.Next()
	if found {
		err = rows.Scan(&rowCount, &columnCount, &hash)
	}
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan feature run: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	cols, err := s.columns(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(cols) != int(columnCount) {
		return nil, fmt.Errorf("feature table %s: %d of %d columns stored", runID, len(cols), columnCount)
	}

	dates, err := s.fillCells(ctx, runID, cols)
	if err != nil {
		return nil, err
	}
	if len(dates) != int(rowCount) {
		return nil, fmt.Errorf("feature table %s: %d of %d rows stored", runID, len(dates), rowCount)
	}

	t, err := domain.NewTable(dates, cols...)
	if err != nil {
		return nil, fmt.Errorf("rebuild feature table %s: %w", runID, err)
	}
	if got := idhash.TableHash(t); got != hash {
		return nil, fmt.Errorf("feature table %s: hash mismatch %s != %s", runID, got, hash)
	}
	return t, nil
}

func (s *FeatureStore) columns(ctx context.Context, runID string) ([]domain.Column, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT column_index, column_name, frequency
		FROM feature_columns
		WHERE run_id = ?
		ORDER BY column_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query feature columns: %w", err)
	}
	defer rows.Close()

	return scanColumns(rows)
}

// fillCells loads every cell into cols and returns the sorted date axis.
func (s *FeatureStore) fillCells(ctx context.Context, runID string, cols []domain.Column) ([]time.Time, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT row_date, column_index, value
		FROM feature_rows
		WHERE run_id = ?
		ORDER BY column_index ASC, row_date ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query feature rows: %w", err)
	}
	defer rows.Close()

	type cell struct {
		date  time.Time
		index uint16
		value *float64
	}
	var cells []cell
	dateSet := make(map[time.Time]struct{})
	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.date, &c.index, &c.value); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		c.date = domain.Date(c.date)
		dateSet[c.date] = struct{}{}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rowOf := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		rowOf[d] = i
	}
	for i := range cols {
		cols[i].Values = make([]*float64, len(dates))
	}
	for _, c := range cells {
		if int(c.index) >= len(cols) {
			return nil, fmt.Errorf("feature row references column %d of %d", c.index, len(cols))
		}
		cols[c.index].Values[rowOf[c.date]] = c.value
	}

	return dates, nil
}

// exists checks if a table is stored under runID.
func (s *FeatureStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM feature_runs WHERE run_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanColumns scans feature_columns rows.
func scanColumns(rows chRows) ([]domain.Column, error) {
	var cols []domain.Column

	for rows.Next() {
		var index uint16
		var name, frequency string
		if err := rows.Scan(&index, &name, &frequency); err != nil {
			return nil, fmt.Errorf("scan feature column: %w", err)
		}
		if int(index) != len(cols) {
			return nil, fmt.Errorf("feature columns not contiguous at index %d", index)
		}
		cols = append(cols, domain.Column{Name: name, Frequency: domain.Frequency(frequency)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature columns: %w", err)
	}

	return cols, nil
}
