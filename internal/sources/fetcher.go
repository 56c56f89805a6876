// Package sources fetches raw series and news from external providers.
package sources

import (
	"context"
	"fmt"
	"time"

	"gld-feature-lab/internal/domain"
)

// SeriesFetcher retrieves one series for [start, end] (inclusive).
// Observations are returned in ascending date order with explicit nulls.
// Network, auth and decoding failures are returned as *FetchError.
type SeriesFetcher interface {
	Fetch(ctx context.Context, seriesID string, start, end time.Time) (domain.Series, error)
}

// FetchError describes a failed provider call. It matches domain.ErrFetchFailure.
type FetchError struct {
	Source     string // provider name: fred, yahoo, newsapi
	SeriesID   string
	StatusCode int // HTTP status, 0 if no response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s %s: status %d: %v", e.Source, e.SeriesID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.Source, e.SeriesID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports domain.ErrFetchFailure as a match.
func (e *FetchError) Is(target error) bool {
	return target == domain.ErrFetchFailure
}

// Registry maps a SeriesSpec source name to its fetcher.
type Registry map[string]SeriesFetcher

// Fetch resolves spec.Source and fetches spec.ID, naming the result spec.Name.
func (r Registry) Fetch(ctx context.Context, spec domain.SeriesSpec, start, end time.Time) (domain.Series, error) {
	f, ok := r[spec.Source]
	if !ok {
		return domain.Series{}, fmt.Errorf("%w: no fetcher for source %q", domain.ErrInvalidParameter, spec.Source)
	}
	s, err := f.Fetch(ctx, spec.ID, start, end)
	if err != nil {
		return domain.Series{}, err
	}
	s.Name = spec.Name
	s.Frequency = spec.Frequency
	return s, nil
}
