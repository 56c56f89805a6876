package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/observability"
	"gld-feature-lab/internal/orchestrator"
	"gld-feature-lab/internal/pipeline"
	"gld-feature-lab/internal/sources"
	"gld-feature-lab/internal/storage"
)

// NewSeriesCache returns a Redis cache when an address is configured and an
// in-process cache otherwise. The returned func closes it.
func NewSeriesCache(ctx context.Context, cfg config.StorageConfig) (sources.SeriesCache, func(), error) {
	if cfg.RedisAddr == "" {
		return sources.NewMemoryCache(), func() {}, nil
	}
	c, err := sources.NewRedisCache(ctx,
		sources.WithRedisAddr(cfg.RedisAddr),
		sources.WithRedisPassword(cfg.RedisPassword),
		sources.WithRedisDB(cfg.RedisDB),
	)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

// ClientOptions maps fetch settings onto HTTP client options.
func ClientOptions(cfg config.FetchConfig, log zerolog.Logger) []sources.ClientOption {
	return []sources.ClientOption{
		sources.WithTimeout(cfg.Timeout),
		sources.WithMaxRetries(cfg.MaxRetries),
		sources.WithRetryDelay(cfg.RetryDelay),
		sources.WithRateLimit(cfg.RateLimit, 1),
		sources.WithLogger(log),
	}
}

// NewRegistry builds the FRED and Yahoo fetchers behind cache.
func NewRegistry(cfg *config.Config, cache sources.SeriesCache, log zerolog.Logger) sources.Registry {
	opts := ClientOptions(cfg.Fetch, log)
	fred := sources.NewFREDClient(cfg.Credentials.FREDAPIKey, cfg.Fetch.FREDBaseURL, opts...)
	yahoo := sources.NewYahooClient(cfg.Fetch.YahooBaseURL, opts...)

	return sources.Registry{
		"fred":  sources.NewCachingFetcher("fred", fred, cache, cfg.Fetch.CacheTTL, log),
		"yahoo": sources.NewCachingFetcher("yahoo", yahoo, cache, cfg.Fetch.CacheTTL, log),
	}
}

// OfflineRegistry serves synthetic data for every configured series.
func OfflineRegistry(cfg *config.Config) (sources.Registry, error) {
	start, end, err := cfg.Window.Range()
	if err != nil {
		return nil, err
	}
	return pipeline.FixtureRegistry(cfg.Specs(), start, end), nil
}

// NewOrchestrator builds the orchestrator for cfg.
func NewOrchestrator(cfg *config.Config, reg sources.Registry, stores *Stores, m *observability.Metrics, log zerolog.Logger) (*orchestrator.Orchestrator, error) {
	start, end, err := cfg.Window.Range()
	if err != nil {
		return nil, err
	}
	orch, err := orchestrator.New(orchestrator.Options{
		Fetchers:         reg,
		Series:           cfg.Specs(),
		Start:            start,
		End:              end,
		ObservationStore: stores.Observations,
		FeatureStore:     stores.Features,
		RunStore:         stores.Runs,
		PriceColumn:      cfg.PriceColumn,
		Features:         cfg.Features(),
		Split: orchestrator.SplitConfig{
			Train: cfg.Split.Train,
			Test:  cfg.Split.Test,
			Step:  cfg.Split.Step,
		},
		FetchConcurrency: cfg.Fetch.Concurrency,
		Metrics:          m,
		Logger:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}
	return orch, nil
}

// NewExporter builds the exporter for cfg, with sufficiency checks sized to
// the walk-forward split.
func NewExporter(cfg *config.Config, m *observability.Metrics, log zerolog.Logger) *pipeline.Exporter {
	checker := pipeline.NewSufficiencyChecker(cfg.PriceColumn, cfg.Split.MinRows(), true)
	return pipeline.NewExporter(cfg.Output.Dir, log).
		WithSufficiencyChecker(checker).
		WithMetrics(m)
}

// ExportRun writes the run's output files. If the export fails, the stored run
// is finished again as failed with the export error. Its table stays in the
// feature store for replay.
func ExportRun(ctx context.Context, exporter *pipeline.Exporter, runs storage.RunStore,
	result *orchestrator.RunResult, log zerolog.Logger) error {
	exportErr := exporter.Export(result)
	if exportErr == nil {
		return nil
	}
	exportErr = fmt.Errorf("export run %s: %w", result.RunID, exportErr)

	rec, err := runs.GetByID(ctx, result.RunID)
	if err != nil {
		log.Error().Err(err).Str("run_id", result.RunID).Msg("load run to record export failure")
		return exportErr
	}
	rec.Status = domain.RunStatusFailed
	rec.Error = exportErr.Error()
	if err := runs.Finish(context.WithoutCancel(ctx), rec); err != nil {
		log.Error().Err(err).Str("run_id", result.RunID).Msg("record export failure")
	}
	return exportErr
}
