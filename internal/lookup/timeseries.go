package lookup

import (
	"time"

	"gld-feature-lab/internal/domain"
)

// Latest returns the last non-null observation of a series at or before target,
// including its date. ok is false when there is none, so nothing before the
// first observation is ever reported. obs must be ordered by date ASC.
func Latest(target time.Time, obs []domain.Observation) (o domain.Observation, ok bool) {
	target = domain.Date(target)
	for i := len(obs) - 1; i >= 0; i-- {
		if obs[i].Value != nil && !domain.Date(obs[i].Date).After(target) {
			return obs[i], true
		}
	}
	return domain.Observation{}, false
}

// ColumnLatest is the last non-null value of one table column.
type ColumnLatest struct {
	Column string
	Date   time.Time
	Value  float64
}

// TableLatest returns, per column in table order, the last non-null value at or
// before target. Columns without one are omitted.
func TableLatest(t *domain.Table, target time.Time) []ColumnLatest {
	var out []ColumnLatest
	obs := make([]domain.Observation, t.Len())
	for _, col := range t.Columns() {
		for i := range obs {
			obs[i] = domain.Observation{Date: t.Date(i), Value: col.Values[i]}
		}
		if last, ok := Latest(target, obs); ok {
			out = append(out, ColumnLatest{Column: col.Name, Date: last.Date, Value: *last.Value})
		}
	}
	return out
}
