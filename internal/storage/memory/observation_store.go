package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]*storedSeries // keyed by series name
}

type storedSeries struct {
	frequency domain.Frequency
	values    map[time.Time]*float64 // keyed by calendar date
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]*storedSeries),
	}
}

// ReplaceSeries stores s, dropping previously stored observations inside s's date span.
// Fails with ErrInvalidInput on an empty name, and also with domain.ErrMalformedSeries
// on a repeated date.
func (s *ObservationStore) ReplaceSeries(_ context.Context, series domain.Series) error {
	if series.Name == "" {
		return storage.ErrInvalidInput
	}
	if err := series.CheckDates(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidInput, err)
	}

	// First pass: validate and find the span
	batch := make(map[time.Time]*float64, len(series.Observations))
	var first, last time.Time
	for i, o := range series.Observations {
		d := domain.Date(o.Date)
		batch[d] = copyValue(o.Value)
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[series.Name]
	if !ok {
		stored = &storedSeries{values: make(map[time.Time]*float64)}
		s.data[series.Name] = stored
	}
	if series.Frequency != "" {
		stored.frequency = series.Frequency
	}

	// Second pass: replace the span
	if len(batch) > 0 {
		for d := range stored.values {
			if !d.Before(first) && !d.After(last) {
				delete(stored.values, d)
			}
		}
	}
	for d, v := range batch {
		stored.values[d] = v
	}

	return nil
}

// GetSeries retrieves observations within [from, to] (inclusive), ordered by date ASC.
func (s *ObservationStore) GetSeries(_ context.Context, name string, from, to time.Time) (domain.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[name]
	if !ok {
		return domain.Series{}, storage.ErrNotFound
	}

	from, to = domain.Date(from), domain.Date(to)
	result := domain.Series{Name: name, Frequency: stored.frequency}
	for d, v := range stored.values {
		if d.Before(from) || d.After(to) {
			continue
		}
		result.Observations = append(result.Observations, domain.Observation{Date: d, Value: copyValue(v)})
	}

	sort.Slice(result.Observations, func(i, j int) bool {
		return result.Observations[i].Date.Before(result.Observations[j].Date)
	})

	return result, nil
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ storage.ObservationStore = (*ObservationStore)(nil)
