package normalization

import (
	"context"
	"fmt"
	"time"

	"gld-feature-lab/internal/domain"
)

// Normalize loads series from the observation store and builds the filled table.
// Steps:
//  1. Load every configured series for [from, to]
//  2. Outer-join them on the union of their dates
//  3. Forward-fill each input column by its own history
//  4. Log remaining null counts per column
func (r *Runner) Normalize(ctx context.Context, specs []domain.SeriesSpec, from, to time.Time) (*Result, error) {
	// 1. Load raw series
	series := make([]domain.Series, 0, len(specs))
	for _, spec := range specs {
		s, err := r.observationStore.GetSeries(ctx, spec.Name, from, to)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", spec.Name, err)
		}
		s.Name = spec.Name
		s.Frequency = spec.Frequency
		series = append(series, s)
	}

	// 2-3. Align and fill
	res, err := NormalizeSeries(series...)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		r.log.Warn().Str("column", w.Column).Str("frequency", string(w.Frequency)).Msg("sparse column left null")
	}

	// 4. Cleaning summary
	for _, col := range res.Table.Columns() {
		r.log.Debug().
			Str("column", col.Name).
			Str("frequency", string(col.Frequency)).
			Int("nulls", countNulls(col.Values)).
			Int("rows", res.Table.Len()).
			Msg("forward-filled column")
	}

	return res, nil
}

// NormalizeSeries aligns and fills already-loaded series without touching a store.
func NormalizeSeries(series ...domain.Series) (*Result, error) {
	aligned, err := AlignSeries(series...)
	if err != nil {
		return nil, err
	}
	filled, warnings, err := FillForward(aligned)
	if err != nil {
		return nil, err
	}
	return &Result{Table: filled, Warnings: warnings}, nil
}

func countNulls(values []*float64) int {
	n := 0
	for _, v := range values {
		if v == nil {
			n++
		}
	}
	return n
}
