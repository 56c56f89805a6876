package reporting

import (
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/lookup"
)

// RunReport is the content of RUN_REPORT.md for one pipeline run.
type RunReport struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time
	Start, End  time.Time // requested window
	Status      domain.RunStatus
	TableHash   string
	Error       string

	// Table shape
	Rows    int
	Columns []ColumnSummary

	// Sparse-column warnings, as logged
	Warnings []string

	// Data sufficiency checks, empty when not evaluated
	Checks []CheckRow

	// Walk-forward windows mapped to dates
	Windows []WindowRow

	// Last value per column at or before End
	Latest []lookup.ColumnLatest
}

// CheckRow represents one data sufficiency criterion.
type CheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// ColumnSummary describes one column of the aligned table.
type ColumnSummary struct {
	Name      string
	Frequency domain.Frequency // empty for derived columns
	NonNull   int
	Nulls     int
	FirstDate *time.Time // first non-null row, nil if none
}

// WindowRow is one walk-forward window with row bounds resolved to dates.
type WindowRow struct {
	Index      int
	TrainStart time.Time
	TrainEnd   time.Time // last train row, inclusive
	TestStart  time.Time
	TestEnd    time.Time // last test row, inclusive
	TrainRows  int
	TestRows   int
}

// Build assembles a report from a run record, its table and its windows.
// t may be nil for a failed run.
func Build(rec *domain.RunRecord, t *domain.Table, windows []domain.WindowPair, generatedAt time.Time) *RunReport {
	r := &RunReport{
		RunID:       rec.RunID,
		GeneratedAt: generatedAt,
		Start:       rec.Start,
		End:         rec.End,
		Status:      rec.Status,
		TableHash:   rec.TableHash,
		Error:       rec.Error,
		Warnings:    rec.Warnings,
	}
	if t == nil {
		return r
	}

	r.Rows = t.Len()
	r.Columns = SummarizeColumns(t)
	r.Windows = WindowRows(t, windows)
	r.Latest = lookup.TableLatest(t, rec.End)
	return r
}

// SummarizeColumns counts nulls and finds the first observed row of every column.
func SummarizeColumns(t *domain.Table) []ColumnSummary {
	cols := t.Columns()
	out := make([]ColumnSummary, 0, len(cols))
	for _, c := range cols {
		s := ColumnSummary{Name: c.Name, Frequency: c.Frequency}
		for i, v := range c.Values {
			if v == nil {
				s.Nulls++
				continue
			}
			if s.NonNull == 0 {
				d := t.Date(i)
				s.FirstDate = &d
			}
			s.NonNull++
		}
		out = append(out, s)
	}
	return out
}

// WindowRows resolves window row ranges against the table's dates.
// Windows that do not fit the table are skipped.
func WindowRows(t *domain.Table, windows []domain.WindowPair) []WindowRow {
	out := make([]WindowRow, 0, len(windows))
	for i, w := range windows {
		if w.Train.Len() <= 0 || w.Test.Len() <= 0 || w.Test.End > t.Len() {
			continue
		}
		out = append(out, WindowRow{
			Index:      i,
			TrainStart: t.Date(w.Train.Start),
			TrainEnd:   t.Date(w.Train.End - 1),
			TestStart:  t.Date(w.Test.Start),
			TestEnd:    t.Date(w.Test.End - 1),
			TrainRows:  w.Train.Len(),
			TestRows:   w.Test.Len(),
		})
	}
	return out
}
