// Package stub provides fixed-data fetchers for tests and offline runs.
package stub

import (
	"context"
	"errors"
	"sync"
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/sources"
)

// ErrNotFound is returned when a series id has no fixture.
var ErrNotFound = errors.New("not found")

// Fetcher implements sources.SeriesFetcher from in-memory fixtures.
type Fetcher struct {
	mu     sync.Mutex
	Series map[string]domain.Series
	Errors map[string]error
	calls  map[string]int
}

// NewFetcher creates an empty stub fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Series: make(map[string]domain.Series),
		Errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// Add registers a fixture under id.
func (f *Fetcher) Add(id string, s domain.Series) *Fetcher {
	f.Series[id] = s
	return f
}

// Fail makes every fetch of id return a FetchError wrapping err.
func (f *Fetcher) Fail(id string, err error) *Fetcher {
	f.Errors[id] = err
	return f
}

// Calls returns how many times id was fetched.
func (f *Fetcher) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// Fetch returns the observations of the fixture inside [start, end].
func (f *Fetcher) Fetch(_ context.Context, seriesID string, start, end time.Time) (domain.Series, error) {
	f.mu.Lock()
	f.calls[seriesID]++
	f.mu.Unlock()

	if err, ok := f.Errors[seriesID]; ok {
		return domain.Series{}, &sources.FetchError{Source: "stub", SeriesID: seriesID, Err: err}
	}

	s, ok := f.Series[seriesID]
	if !ok {
		return domain.Series{}, &sources.FetchError{Source: "stub", SeriesID: seriesID, Err: ErrNotFound}
	}

	start, end = domain.Date(start), domain.Date(end)
	out := domain.Series{Name: s.Name, Frequency: s.Frequency}
	for _, o := range s.Observations {
		d := domain.Date(o.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		obs := domain.Observation{Date: d}
		if o.Value != nil {
			v := *o.Value
			obs.Value = &v
		}
		out.Observations = append(out.Observations, obs)
	}
	return out, nil
}

var _ sources.SeriesFetcher = (*Fetcher)(nil)
