package normalization

import (
	"gld-feature-lab/internal/domain"
)

// FillForward carries each frequency-tagged column's last known value forward.
//
// Rules, applied per column and independently of every other column:
//   - a null cell takes the most recent non-null value at or before its row
//   - rows before the column's first non-null value stay null
//   - values are held constant between observations, never interpolated
//   - columns without a frequency tag (derived columns) are left as they are
//
// A tagged column with no value at all stays null and is reported as a
// domain.SparseColumnWarning.
func FillForward(t *domain.Table) (*domain.Table, []domain.SparseColumnWarning, error) {
	var warnings []domain.SparseColumnWarning
	out := t

	for _, col := range t.Columns() {
		if col.Frequency == "" {
			continue
		}

		filled, observed := fillColumn(col.Values)
		if !observed {
			warnings = append(warnings, domain.SparseColumnWarning{
				Column:    col.Name,
				Frequency: col.Frequency,
			})
			continue
		}

		next, err := out.WithColumnValues(col.Name, filled)
		if err != nil {
			return nil, nil, err
		}
		out = next
	}

	return out, warnings, nil
}

// fillColumn returns a forward-filled copy of values and whether any value was non-null.
func fillColumn(values []*float64) ([]*float64, bool) {
	filled := make([]*float64, len(values))
	var last *float64

	for i, v := range values {
		if v != nil {
			cell := *v
			last = &cell
			filled[i] = last
			continue
		}
		if last != nil {
			cell := *last
			filled[i] = &cell
		}
	}

	return filled, last != nil
}
