package sources_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/sources"
	"gld-feature-lab/internal/sources/stub"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestCachingFetcher_HitsCache(t *testing.T) {
	ctx := context.Background()
	fetcher := stub.NewFetcher().Add("CPIAUCSL", domain.Series{
		Name: "CPIAUCSL",
		Observations: []domain.Observation{
			{Date: day(1), Value: domain.Float(308.4)},
		},
	})

	cached := sources.NewCachingFetcher("fred", fetcher, sources.NewMemoryCache(), time.Hour, zerolog.Nop())

	first, err := cached.Fetch(ctx, "CPIAUCSL", day(1), day(31))
	require.NoError(t, err)
	second, err := cached.Fetch(ctx, "CPIAUCSL", day(1), day(31))
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.Calls("CPIAUCSL"))
	assert.Equal(t, first, second)

	// A different window is a different key
	_, err = cached.Fetch(ctx, "CPIAUCSL", day(1), day(15))
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls("CPIAUCSL"))
}

func TestCachingFetcher_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	fetcher := stub.NewFetcher().Fail("GDP", errors.New("boom"))

	cached := sources.NewCachingFetcher("fred", fetcher, sources.NewMemoryCache(), time.Hour, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := cached.Fetch(ctx, "GDP", day(1), day(31))
		assert.True(t, errors.Is(err, domain.ErrFetchFailure), "got %v", err)
	}
	assert.Equal(t, 2, fetcher.Calls("GDP"))
}

func TestMemoryCache_Miss(t *testing.T) {
	c := sources.NewMemoryCache()
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, sources.ErrCacheMiss)
}

func TestMemoryCache_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	c := sources.NewMemoryCache()

	s := domain.Series{Name: "A", Observations: []domain.Observation{{Date: day(1), Value: domain.Float(1)}}}
	require.NoError(t, c.Set(ctx, "k", s, 0))

	*s.Observations[0].Value = 5
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1.0, *got.Observations[0].Value)
}

func TestRegistry_Fetch(t *testing.T) {
	fetcher := stub.NewFetcher().Add("CL=F", domain.Series{
		Observations: []domain.Observation{{Date: day(2), Value: domain.Float(72.1)}},
	})
	reg := sources.Registry{"yahoo": fetcher}

	s, err := reg.Fetch(context.Background(), domain.SeriesSpec{
		Name: "OIL_PRICE", Source: "yahoo", ID: "CL=F", Frequency: domain.FrequencyDaily,
	}, day(1), day(31))
	require.NoError(t, err)
	assert.Equal(t, "OIL_PRICE", s.Name)
	assert.Equal(t, domain.FrequencyDaily, s.Frequency)

	_, err = reg.Fetch(context.Background(), domain.SeriesSpec{Name: "X", Source: "bloomberg"}, day(1), day(2))
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}
