package normalization

import (
	"fmt"
	"sort"
	"time"

	"gld-feature-lab/internal/domain"
)

// AlignSeries outer-joins series onto one calendar.
//
// The date column is the sorted union of every input date. Column i holds
// series i's value at the dates it observed and null everywhere else.
// A series that repeats a date fails with domain.ErrMalformedSeries; the
// aligner never picks between two same-date values.
func AlignSeries(series ...domain.Series) (*domain.Table, error) {
	seen := make(map[time.Time]struct{})
	perSeries := make([]map[time.Time]*float64, len(series))

	for i, s := range series {
		values := make(map[time.Time]*float64, len(s.Observations))
		for _, o := range s.Observations {
			d := domain.Date(o.Date)
			if _, dup := values[d]; dup {
				return nil, fmt.Errorf("%w: series %s has duplicate date %s",
					domain.ErrMalformedSeries, s.Name, d.Format(domain.DateLayout))
			}
			values[d] = o.Value
			seen[d] = struct{}{}
		}
		perSeries[i] = values
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	columns := make([]domain.Column, len(series))
	for i, s := range series {
		values := make([]*float64, len(dates))
		for row, d := range dates {
			if v, ok := perSeries[i][d]; ok && v != nil {
				cell := *v
				values[row] = &cell
			}
		}
		columns[i] = domain.Column{Name: s.Name, Frequency: s.Frequency, Values: values}
	}

	return domain.NewTable(dates, columns...)
}
