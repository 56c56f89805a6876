package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"gld-feature-lab/internal/domain"
)

// RedisOption configures RedisCache.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

// WithRedisAddr sets host:port.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithRedisPassword sets Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// RedisCache is a SeriesCache backed by Redis with msgpack-encoded values.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// cachedSeries is the wire form of a series.
type cachedSeries struct {
	Name      string     `msgpack:"n"`
	Frequency string     `msgpack:"f"`
	Dates     []string   `msgpack:"d"`
	Values    []*float64 `msgpack:"v"`
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(ctx context.Context, opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{
		Addr:     "localhost:6379",
		PoolSize: 10,
		Prefix:   "gld",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{client: client, prefix: cfg.Prefix}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string) (domain.Series, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Series{}, ErrCacheMiss
		}
		return domain.Series{}, err
	}

	var cs cachedSeries
	if err := msgpack.Unmarshal(data, &cs); err != nil {
		return domain.Series{}, fmt.Errorf("decode cached series: %w", err)
	}
	return cs.toSeries()
}

func (c *RedisCache) Set(ctx context.Context, key string, s domain.Series, ttl time.Duration) error {
	data, err := msgpack.Marshal(fromSeries(s))
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func fromSeries(s domain.Series) cachedSeries {
	cs := cachedSeries{
		Name:      s.Name,
		Frequency: string(s.Frequency),
		Dates:     make([]string, len(s.Observations)),
		Values:    make([]*float64, len(s.Observations)),
	}
	for i, o := range s.Observations {
		cs.Dates[i] = o.Date.Format(domain.DateLayout)
		cs.Values[i] = o.Value
	}
	return cs
}

func (cs cachedSeries) toSeries() (domain.Series, error) {
	if len(cs.Dates) != len(cs.Values) {
		return domain.Series{}, fmt.Errorf("cached series %s: %d dates, %d values", cs.Name, len(cs.Dates), len(cs.Values))
	}
	s := domain.Series{
		Name:         cs.Name,
		Frequency:    domain.Frequency(cs.Frequency),
		Observations: make([]domain.Observation, len(cs.Dates)),
	}
	for i, d := range cs.Dates {
		date, err := domain.ParseDate(d)
		if err != nil {
			return domain.Series{}, err
		}
		s.Observations[i] = domain.Observation{Date: date, Value: cs.Values[i]}
	}
	return s, nil
}

var _ SeriesCache = (*RedisCache)(nil)
