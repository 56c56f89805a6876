package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/observability"
	"gld-feature-lab/internal/reporting"
	"gld-feature-lab/internal/storage"
)

// ArticleFetcher is the part of sources.NewsAPIClient the collector uses.
type ArticleFetcher interface {
	FetchArticles(ctx context.Context, query string, days, pageSize int) ([]*domain.Article, error)
}

// NewsCollector fetches headlines, stores the new ones and writes the fetched
// set to a CSV file.
type NewsCollector struct {
	fetcher ArticleFetcher
	store   storage.ArticleStore
	cfg     config.NewsConfig
	metrics *observability.Metrics
	log     zerolog.Logger
}

// NewNewsCollector creates a collector.
func NewNewsCollector(f ArticleFetcher, store storage.ArticleStore, cfg config.NewsConfig, m *observability.Metrics, log zerolog.Logger) *NewsCollector {
	return &NewsCollector{
		fetcher: f,
		store:   store,
		cfg:     cfg,
		metrics: m,
		log:     log.With().Str("component", "news").Logger(),
	}
}

// Collect runs one pass and returns how many articles were fetched and how
// many were new to the store.
func (c *NewsCollector) Collect(ctx context.Context) (fetched, inserted int, err error) {
	start := time.Now()
	articles, err := c.fetcher.FetchArticles(ctx, c.cfg.Query, c.cfg.Days, c.cfg.PageSize)
	if err != nil {
		return 0, 0, err
	}

	inserted, err = c.store.InsertNew(ctx, articles)
	if err != nil {
		return 0, 0, fmt.Errorf("store articles: %w", err)
	}
	c.metrics.RecordArticles(len(articles), inserted)

	if err := writeArticlesCSV(c.cfg.Output, articles); err != nil {
		return 0, 0, err
	}

	c.log.Info().
		Str("query", c.cfg.Query).
		Int("fetched", len(articles)).
		Int("new", inserted).
		Str("output", c.cfg.Output).
		Dur("duration", time.Since(start)).
		Msg("news collected")
	return len(articles), inserted, nil
}

// writeArticlesCSV replaces path with the rendered articles. The file is
// written next to path first, so an interrupted write never leaves a
// truncated CSV.
func writeArticlesCSV(path string, articles []*domain.Article) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".news-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := reporting.RenderArticlesCSV(tmp, articles); err != nil {
		tmp.Close()
		return fmt.Errorf("write articles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write articles: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}
