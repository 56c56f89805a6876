package sources

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/domain"
)

// ErrCacheMiss is returned by a SeriesCache when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// SeriesCache stores fetched series by key.
type SeriesCache interface {
	Get(ctx context.Context, key string) (domain.Series, error)
	Set(ctx context.Context, key string, s domain.Series, ttl time.Duration) error
}

// MemoryCache is a process-local SeriesCache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	series   domain.Series
	expireAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (domain.Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return domain.Series{}, ErrCacheMiss
	}
	if !item.expireAt.IsZero() && c.now().After(item.expireAt) {
		delete(c.items, key)
		return domain.Series{}, ErrCacheMiss
	}
	return copySeries(item.series), nil
}

// Set stores s under key. A ttl <= 0 never expires.
func (c *MemoryCache) Set(_ context.Context, key string, s domain.Series, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := memoryItem{series: copySeries(s)}
	if ttl > 0 {
		item.expireAt = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

func copySeries(s domain.Series) domain.Series {
	out := s
	out.Observations = make([]domain.Observation, len(s.Observations))
	for i, o := range s.Observations {
		out.Observations[i] = domain.Observation{Date: o.Date}
		if o.Value != nil {
			v := *o.Value
			out.Observations[i].Value = &v
		}
	}
	return out
}

// CachingFetcher serves repeated requests for the same series and range from a cache.
// Cache failures are logged and fall through to the wrapped fetcher.
type CachingFetcher struct {
	source string
	next   SeriesFetcher
	cache  SeriesCache
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachingFetcher wraps next. source is part of the cache key.
func NewCachingFetcher(source string, next SeriesFetcher, cache SeriesCache, ttl time.Duration, log zerolog.Logger) *CachingFetcher {
	return &CachingFetcher{
		source: source,
		next:   next,
		cache:  cache,
		ttl:    ttl,
		log:    log.With().Str("component", "series_cache").Str("source", source).Logger(),
	}
}

// CacheKey builds the cache key of one fetch.
func CacheKey(source, seriesID string, start, end time.Time) string {
	return fmt.Sprintf("series:%s:%s:%s:%s", source, seriesID,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout))
}

func (f *CachingFetcher) Fetch(ctx context.Context, seriesID string, start, end time.Time) (domain.Series, error) {
	key := CacheKey(f.source, seriesID, start, end)

	s, err := f.cache.Get(ctx, key)
	switch {
	case err == nil:
		f.log.Debug().Str("series", seriesID).Msg("cache hit")
		return s, nil
	case !errors.Is(err, ErrCacheMiss):
		f.log.Warn().Err(err).Str("series", seriesID).Msg("cache read failed")
	}

	s, err = f.next.Fetch(ctx, seriesID, start, end)
	if err != nil {
		return domain.Series{}, err
	}

	if err := f.cache.Set(ctx, key, s, f.ttl); err != nil {
		f.log.Warn().Err(err).Str("series", seriesID).Msg("cache write failed")
	}
	return s, nil
}

var (
	_ SeriesCache   = (*MemoryCache)(nil)
	_ SeriesFetcher = (*CachingFetcher)(nil)
)
