package pipeline

import (
	"math"
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/sources"
	"gld-feature-lab/internal/sources/stub"
)

// FixtureRegistry returns a registry that answers every source named in specs
// with deterministic synthetic data, for offline runs and demos.
//
// Daily series have a value on every weekday, monthly series on the first of
// each month and quarterly series on the first day of each quarter. Values are
// a smooth function of the day index, so repeated runs are identical.
func FixtureRegistry(specs []domain.SeriesSpec, start, end time.Time) sources.Registry {
	f := stub.NewFetcher()
	for i, spec := range specs {
		f.Add(spec.ID, fixtureSeries(spec, i, domain.Date(start), domain.Date(end)))
	}

	reg := sources.Registry{}
	for _, spec := range specs {
		reg[spec.Source] = f
	}
	return reg
}

func fixtureSeries(spec domain.SeriesSpec, seed int, start, end time.Time) domain.Series {
	s := domain.Series{Name: spec.ID, Frequency: spec.Frequency}
	base := 100.0 * float64(seed+1)

	for d, n := start, 0; !d.After(end); d, n = d.AddDate(0, 0, 1), n+1 {
		if !fixtureDay(spec.Frequency, d) {
			continue
		}
		v := base + 0.02*float64(n) + 5*math.Sin(float64(n)/17+float64(seed))
		// Round to cents so the fixture looks like provider data.
		v = math.Round(v*100) / 100
		s.Observations = append(s.Observations, domain.Observation{Date: d, Value: &v})
	}
	return s
}

func fixtureDay(freq domain.Frequency, d time.Time) bool {
	switch freq {
	case domain.FrequencyMonthly:
		return d.Day() == 1
	case domain.FrequencyQuarterly:
		return d.Day() == 1 && (d.Month()-1)%3 == 0
	default:
		return d.Weekday() != time.Saturday && d.Weekday() != time.Sunday
	}
}
