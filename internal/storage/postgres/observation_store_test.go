package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func TestObservationStore_ReplaceAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	series := domain.Series{
		Name:      "CPIAUCSL",
		Frequency: domain.FrequencyMonthly,
		Observations: []domain.Observation{
			{Date: day(1, 1), Value: ptr(308.417)},
			{Date: day(2, 1), Value: nil},
			{Date: day(3, 1), Value: ptr(312.23)},
		},
	}
	require.NoError(t, store.ReplaceSeries(ctx, series))

	got, err := store.GetSeries(ctx, "CPIAUCSL", day(1, 1), day(12, 31))
	require.NoError(t, err)

	assert.Equal(t, domain.FrequencyMonthly, got.Frequency)
	require.Len(t, got.Observations, 3)
	assert.True(t, got.Observations[0].Date.Equal(day(1, 1)))
	assert.Equal(t, 308.417, *got.Observations[0].Value)
	assert.Nil(t, got.Observations[1].Value)
	assert.True(t, got.Observations[2].Date.Equal(day(3, 1)))
}

func TestObservationStore_ReplaceWithinSpan(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	require.NoError(t, store.ReplaceSeries(ctx, domain.Series{
		Name: "DTWEXBGS",
		Observations: []domain.Observation{
			{Date: day(1, 2), Value: ptr(1.0)},
			{Date: day(1, 3), Value: ptr(2.0)},
			{Date: day(1, 4), Value: ptr(3.0)},
			{Date: day(1, 10), Value: ptr(4.0)},
		},
	}))
	require.NoError(t, store.ReplaceSeries(ctx, domain.Series{
		Name:      "DTWEXBGS",
		Frequency: domain.FrequencyDaily,
		Observations: []domain.Observation{
			{Date: day(1, 3), Value: ptr(20.0)},
			{Date: day(1, 5), Value: ptr(50.0)},
		},
	}))

	got, err := store.GetSeries(ctx, "DTWEXBGS", day(1, 1), day(1, 31))
	require.NoError(t, err)

	var dates []int
	for _, o := range got.Observations {
		dates = append(dates, o.Date.Day())
	}
	assert.Equal(t, []int{2, 3, 5, 10}, dates)
	assert.Equal(t, 20.0, *got.Observations[1].Value)
	assert.Equal(t, domain.FrequencyDaily, got.Frequency)
}

func TestObservationStore_DateRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewObservationStore(pool)

	s := domain.Series{Name: "GLD_CLOSE"}
	for d := 1; d <= 20; d++ {
		s.Observations = append(s.Observations, domain.Observation{Date: day(1, d), Value: ptr(float64(d))})
	}
	require.NoError(t, store.ReplaceSeries(ctx, s))

	got, err := store.GetSeries(ctx, "GLD_CLOSE", day(1, 5), day(1, 9))
	require.NoError(t, err)
	assert.Len(t, got.Observations, 5)
}

func TestObservationStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewObservationStore(pool)
	_, err := store.GetSeries(context.Background(), "GDP", day(1, 1), day(12, 31))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestObservationStore_DuplicateDate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewObservationStore(pool)
	err := store.ReplaceSeries(context.Background(), domain.Series{
		Name: "A",
		Observations: []domain.Observation{
			{Date: day(1, 1), Value: ptr(1.0)},
			{Date: day(1, 1), Value: ptr(2.0)},
		},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrMalformedSeries)
}
