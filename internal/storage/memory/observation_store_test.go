package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestObservationStore_ReplaceAndGet(t *testing.T) {
	store := NewObservationStore()
	ctx := context.Background()

	series := domain.Series{
		Name:      "CPIAUCSL",
		Frequency: domain.FrequencyMonthly,
		Observations: []domain.Observation{
			{Date: day(3), Value: domain.Float(2.0)},
			{Date: day(1), Value: domain.Float(1.0)},
			{Date: day(5), Value: nil},
		},
	}

	if err := store.ReplaceSeries(ctx, series); err != nil {
		t.Fatalf("ReplaceSeries failed: %v", err)
	}

	result, err := store.GetSeries(ctx, "CPIAUCSL", day(1), day(31))
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}

	if len(result.Observations) != 3 {
		t.Fatalf("Expected 3 observations, got %d", len(result.Observations))
	}
	if !result.Observations[0].Date.Equal(day(1)) || !result.Observations[2].Date.Equal(day(5)) {
		t.Errorf("Expected ascending order, got %v", result.Observations)
	}
	if result.Observations[2].Value != nil {
		t.Errorf("Expected null to round-trip, got %v", *result.Observations[2].Value)
	}
	if result.Frequency != domain.FrequencyMonthly {
		t.Errorf("Expected monthly frequency, got %q", result.Frequency)
	}
}

func TestObservationStore_DateRange(t *testing.T) {
	store := NewObservationStore()
	ctx := context.Background()

	var s domain.Series
	s.Name = "GLD_CLOSE"
	for d := 1; d <= 10; d++ {
		s.Observations = append(s.Observations, domain.Observation{Date: day(d), Value: domain.Float(float64(d))})
	}
	if err := store.ReplaceSeries(ctx, s); err != nil {
		t.Fatalf("ReplaceSeries failed: %v", err)
	}

	result, err := store.GetSeries(ctx, "GLD_CLOSE", day(3), day(6))
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if len(result.Observations) != 4 {
		t.Errorf("Expected 4 observations in [3, 6], got %d", len(result.Observations))
	}
}

func TestObservationStore_ReplaceWithinSpan(t *testing.T) {
	store := NewObservationStore()
	ctx := context.Background()

	first := domain.Series{Name: "A", Observations: []domain.Observation{
		{Date: day(1), Value: domain.Float(1)},
		{Date: day(2), Value: domain.Float(2)},
		{Date: day(3), Value: domain.Float(3)},
		{Date: day(9), Value: domain.Float(9)},
	}}
	second := domain.Series{Name: "A", Observations: []domain.Observation{
		{Date: day(2), Value: domain.Float(20)},
		{Date: day(4), Value: domain.Float(40)},
	}}

	if err := store.ReplaceSeries(ctx, first); err != nil {
		t.Fatalf("First replace failed: %v", err)
	}
	if err := store.ReplaceSeries(ctx, second); err != nil {
		t.Fatalf("Second replace failed: %v", err)
	}

	result, _ := store.GetSeries(ctx, "A", day(1), day(31))
	// day 1 and day 9 survive, day 3 was inside [2, 4] and is dropped
	want := map[int]float64{1: 1, 2: 20, 4: 40, 9: 9}
	if len(result.Observations) != len(want) {
		t.Fatalf("Expected %d observations, got %d", len(want), len(result.Observations))
	}
	for _, o := range result.Observations {
		if *o.Value != want[o.Date.Day()] {
			t.Errorf("Day %d: expected %v, got %v", o.Date.Day(), want[o.Date.Day()], *o.Value)
		}
	}
}

func TestObservationStore_NotFound(t *testing.T) {
	store := NewObservationStore()

	_, err := store.GetSeries(context.Background(), "GDP", day(1), day(2))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestObservationStore_DuplicateDate(t *testing.T) {
	store := NewObservationStore()

	s := domain.Series{Name: "A", Observations: []domain.Observation{
		{Date: day(1), Value: domain.Float(1)},
		{Date: day(1), Value: domain.Float(2)},
	}}
	err := store.ReplaceSeries(context.Background(), s)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if !errors.Is(err, domain.ErrMalformedSeries) {
		t.Errorf("Expected ErrMalformedSeries, got %v", err)
	}
}

func TestObservationStore_CopyOnRead(t *testing.T) {
	store := NewObservationStore()
	ctx := context.Background()

	s := domain.Series{Name: "A", Observations: []domain.Observation{{Date: day(1), Value: domain.Float(1)}}}
	if err := store.ReplaceSeries(ctx, s); err != nil {
		t.Fatalf("ReplaceSeries failed: %v", err)
	}

	*s.Observations[0].Value = 99
	got, _ := store.GetSeries(ctx, "A", day(1), day(1))
	*got.Observations[0].Value = 42

	again, _ := store.GetSeries(ctx, "A", day(1), day(1))
	if *again.Observations[0].Value != 1 {
		t.Errorf("Expected stored value 1, got %v", *again.Observations[0].Value)
	}
}
