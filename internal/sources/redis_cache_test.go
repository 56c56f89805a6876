package sources

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"gld-feature-lab/internal/domain"
)

// setupRedis starts a Redis container and returns a connected cache.
func setupRedis(t *testing.T) (*RedisCache, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cache, err := NewRedisCache(ctx, WithRedisAddr(fmt.Sprintf("%s:%s", host, port.Port())), WithRedisPrefix("test"))
	require.NoError(t, err)

	cleanup := func() {
		cache.Close()
		_ = container.Terminate(ctx)
	}
	return cache, cleanup
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	s := domain.Series{
		Name:      "FEDFUNDS",
		Frequency: domain.FrequencyMonthly,
		Observations: []domain.Observation{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: domain.Float(5.33)},
			{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: nil},
		},
	}

	key := CacheKey("fred", "FEDFUNDS", s.Observations[0].Date, s.Observations[1].Date)
	require.NoError(t, cache.Set(ctx, key, s, time.Minute))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, s.Frequency, got.Frequency)
	require.Len(t, got.Observations, 2)
	assert.True(t, got.Observations[0].Date.Equal(s.Observations[0].Date))
	assert.Equal(t, 5.33, *got.Observations[0].Value)
	assert.Nil(t, got.Observations[1].Value)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, cleanup := setupRedis(t)
	defer cleanup()

	_, err := cache.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
