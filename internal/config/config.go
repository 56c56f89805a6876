// Package config loads the pipeline configuration.
//
// Values are resolved in this order, later steps winning:
//  1. struct defaults (`default` tags)
//  2. the YAML file, when one is given
//  3. a .env file in the working directory, if present
//  4. credential and DSN environment variables
//
// The result is validated before it is returned.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/features"
)

// Config is the complete pipeline configuration.
type Config struct {
	Window      WindowConfig    `yaml:"window"`
	Series      []SeriesConfig  `yaml:"series" validate:"required,min=1,dive"`
	PriceColumn string          `yaml:"price_column" default:"GLD_CLOSE" validate:"required"`
	Indicators  IndicatorConfig `yaml:"indicators"`
	Split       SplitConfig     `yaml:"split"`
	Fetch       FetchConfig     `yaml:"fetch"`
	News        NewsConfig      `yaml:"news"`
	Storage     StorageConfig   `yaml:"storage"`
	Credentials Credentials     `yaml:"credentials"`
	Logging     LoggingConfig   `yaml:"logging"`
	Output      OutputConfig    `yaml:"output"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Schedule    string          `yaml:"schedule"`
}

// WindowConfig is the inclusive date range to fetch, as YYYY-MM-DD.
type WindowConfig struct {
	Start string `yaml:"start" default:"2020-01-01" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" default:"2025-07-10" validate:"required,datetime=2006-01-02"`
}

// SeriesConfig describes one input column.
type SeriesConfig struct {
	Name      string `yaml:"name" validate:"required"`
	Source    string `yaml:"source" validate:"required,oneof=fred yahoo"`
	ID        string `yaml:"id" validate:"required"`
	Frequency string `yaml:"frequency" validate:"required,oneof=daily monthly quarterly"`
}

// IndicatorConfig selects the indicators derived from the price column.
// Zero means "use the default"; a negative period disables the indicator.
type IndicatorConfig struct {
	SMAWindows      []int   `yaml:"sma_windows" default:"[20,50,200]" validate:"dive,min=1"`
	RSIPeriod       int     `yaml:"rsi_period" default:"14"`
	MACDFast        int     `yaml:"macd_fast" default:"12"`
	MACDSlow        int     `yaml:"macd_slow" default:"26"`
	MACDSignal      int     `yaml:"macd_signal" default:"9"`
	BollingerPeriod int     `yaml:"bollinger_period" default:"20"`
	BollingerK      float64 `yaml:"bollinger_k" default:"2" validate:"gt=0"`
	MomentumPeriod  int     `yaml:"momentum_period" default:"10"`
}

// SplitConfig holds walk-forward window sizes in rows.
type SplitConfig struct {
	Train int `yaml:"train" default:"252" validate:"min=1"`
	Test  int `yaml:"test" default:"21" validate:"min=1"`
	Step  int `yaml:"step" default:"21" validate:"min=1"`
}

// FetchConfig tunes the HTTP fetchers.
type FetchConfig struct {
	Concurrency  int           `yaml:"concurrency" default:"4" validate:"min=1"`
	Timeout      time.Duration `yaml:"timeout" default:"30s"`
	MaxRetries   int           `yaml:"max_retries" default:"3" validate:"min=0"`
	RetryDelay   time.Duration `yaml:"retry_delay" default:"1s"`
	RateLimit    float64       `yaml:"rate_limit" default:"2" validate:"gt=0"`
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"12h"`
	FREDBaseURL  string        `yaml:"fred_base_url" validate:"omitempty,url"`
	YahooBaseURL string        `yaml:"yahoo_base_url" validate:"omitempty,url"`
}

// NewsConfig drives the headline collector.
type NewsConfig struct {
	Query    string `yaml:"query" default:"GLD OR SPDR Gold" validate:"required"`
	Days     int    `yaml:"days" default:"100" validate:"min=1"`
	PageSize int    `yaml:"page_size" default:"100" validate:"min=1,max=100"`
	Output   string `yaml:"output" default:"data/gold_news.csv" validate:"required"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
}

// StorageConfig selects the store backends.
// "memory" keeps everything in process; "sql" uses Postgres for observations,
// runs and articles and ClickHouse for feature tables.
type StorageConfig struct {
	Backend       string `yaml:"backend" default:"memory" validate:"oneof=memory sql"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Backend sql"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" validate:"required_if=Backend sql"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
}

// Credentials holds provider API keys. They are normally supplied by the
// environment rather than the YAML file.
type Credentials struct {
	FREDAPIKey string `yaml:"fred_api_key"`
	NewsAPIKey string `yaml:"news_api_key"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
}

// OutputConfig holds export locations.
type OutputConfig struct {
	Dir string `yaml:"dir" default:"output" validate:"required"`
}

// MetricsConfig holds the Prometheus listener. Empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// envOverlay is the subset of settings read from the environment.
type envOverlay struct {
	FREDAPIKey    string `envconfig:"FRED_API_KEY"`
	NewsAPIKey    string `envconfig:"NEWS_API_KEY"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
}

// DefaultSeries returns the FRED and Yahoo series the GLD table is built from.
func DefaultSeries() []SeriesConfig {
	return []SeriesConfig{
		{Name: "DTWEXBGS", Source: "fred", ID: "DTWEXBGS", Frequency: "daily"},
		{Name: "CPIAUCSL", Source: "fred", ID: "CPIAUCSL", Frequency: "monthly"},
		{Name: "FEDFUNDS", Source: "fred", ID: "FEDFUNDS", Frequency: "monthly"},
		{Name: "GDP", Source: "fred", ID: "GDP", Frequency: "quarterly"},
		{Name: "OIL_PRICE", Source: "yahoo", ID: "CL=F:close", Frequency: "daily"},
		{Name: "GLD_OPEN", Source: "yahoo", ID: "GLD:open", Frequency: "daily"},
		{Name: "GLD_HIGH", Source: "yahoo", ID: "GLD:high", Frequency: "daily"},
		{Name: "GLD_LOW", Source: "yahoo", ID: "GLD:low", Frequency: "daily"},
		{Name: "GLD_CLOSE", Source: "yahoo", ID: "GLD:close", Frequency: "daily"},
		{Name: "GLD_VOLUME", Source: "yahoo", ID: "GLD:volume", Frequency: "daily"},
	}
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	cfg.Series = DefaultSeries()
	return cfg, nil
}

// Load reads the YAML file at path (optional), applies defaults and the
// environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := decodeYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(cfg.Series) == 0 {
		cfg.Series = DefaultSeries()
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envOverlay
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Credentials.FREDAPIKey, env.FREDAPIKey)
	set(&cfg.Credentials.NewsAPIKey, env.NewsAPIKey)
	set(&cfg.Storage.PostgresDSN, env.PostgresDSN)
	set(&cfg.Storage.ClickhouseDSN, env.ClickhouseDSN)
	set(&cfg.Storage.RedisAddr, env.RedisAddr)
	set(&cfg.Storage.RedisPassword, env.RedisPassword)
	set(&cfg.Logging.Level, env.LogLevel)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	start, end, err := c.Window.Range()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("invalid config: window end %s before start %s", c.Window.End, c.Window.Start)
	}

	names := make(map[string]bool, len(c.Series))
	for _, s := range c.Series {
		if names[s.Name] {
			return fmt.Errorf("invalid config: %w: series %s", domain.ErrDuplicateColumn, s.Name)
		}
		names[s.Name] = true
	}
	if !names[c.PriceColumn] {
		return fmt.Errorf("invalid config: price column %s is not a configured series", c.PriceColumn)
	}

	if _, err := features.NewEngine(c.PriceColumn, c.Features()); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Range parses the window bounds.
func (w WindowConfig) Range() (start, end time.Time, err error) {
	start, err = domain.ParseDate(w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid config: window start: %w", err)
	}
	end, err = domain.ParseDate(w.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid config: window end: %w", err)
	}
	return start, end, nil
}

// Specs converts the series list to domain specs.
func (c *Config) Specs() []domain.SeriesSpec {
	specs := make([]domain.SeriesSpec, len(c.Series))
	for i, s := range c.Series {
		specs[i] = domain.SeriesSpec{
			Name:      s.Name,
			Source:    s.Source,
			ID:        s.ID,
			Frequency: domain.Frequency(strings.ToLower(s.Frequency)),
		}
	}
	return specs
}

// Features converts the indicator settings to the engine config.
func (c *Config) Features() features.Config {
	ind := c.Indicators
	cfg := features.Config{
		SMAWindows:      append([]int(nil), ind.SMAWindows...),
		RSIPeriod:       enabled(ind.RSIPeriod),
		BollingerPeriod: enabled(ind.BollingerPeriod),
		BollingerK:      ind.BollingerK,
		MomentumPeriod:  enabled(ind.MomentumPeriod),
	}
	if ind.MACDFast > 0 && ind.MACDSlow > 0 && ind.MACDSignal > 0 {
		cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal = ind.MACDFast, ind.MACDSlow, ind.MACDSignal
	}
	return cfg
}

func enabled(period int) int {
	if period < 0 {
		return 0
	}
	return period
}

// MinRows is the smallest table that yields one walk-forward window.
func (s SplitConfig) MinRows() int {
	return s.Train + s.Test
}
