// Package app wires configuration into stores, fetchers and the orchestrator
// for the command-line entry points.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/config"
	"gld-feature-lab/internal/storage"
	chstore "gld-feature-lab/internal/storage/clickhouse"
	"gld-feature-lab/internal/storage/memory"
	"gld-feature-lab/internal/storage/migrations"
	pgstore "gld-feature-lab/internal/storage/postgres"
)

// Stores bundles every store a command may need.
type Stores struct {
	Observations storage.ObservationStore
	Features     storage.FeatureStore
	Runs         storage.RunStore
	Articles     storage.ArticleStore

	closers []func()
}

// Close releases database connections. Safe on memory stores.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores creates the stores selected by cfg.Backend. The sql backend
// applies migrations before returning.
func OpenStores(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Stores, error) {
	switch cfg.Backend {
	case "", "memory":
		return &Stores{
			Observations: memory.NewObservationStore(),
			Features:     memory.NewFeatureStore(),
			Runs:         memory.NewRunStore(),
			Articles:     memory.NewArticleStore(),
		}, nil
	case "sql":
		return openSQLStores(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func openSQLStores(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Stores, error) {
	s := &Stores{}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	if err := migrations.RunPostgresMigrations(ctx, pool, log); err != nil {
		s.Close()
		return nil, err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("close clickhouse")
		}
	})

	s.Observations = pgstore.NewObservationStore(pool)
	s.Runs = pgstore.NewRunStore(pool)
	s.Articles = pgstore.NewArticleStore(pool)
	s.Features = chstore.NewFeatureStore(conn)
	return s, nil
}
