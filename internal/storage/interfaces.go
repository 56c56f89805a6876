package storage

import (
	"context"
	"time"

	"gld-feature-lab/internal/domain"
)

// ObservationStore provides access to raw fetched series (observations table).
type ObservationStore interface {
	// ReplaceSeries stores s, replacing every observation previously stored under s.Name
	// inside [first, last] of s. Observations outside that window are kept.
	ReplaceSeries(ctx context.Context, s domain.Series) error

	// GetSeries retrieves observations for a series within [from, to] (inclusive),
	// ordered by date ASC. Returns ErrNotFound if the series was never stored.
	GetSeries(ctx context.Context, name string, from, to time.Time) (domain.Series, error)
}

// FeatureStore provides access to finished aligned tables (feature_rows table).
type FeatureStore interface {
	// InsertTable stores every cell of t under runID. Returns ErrDuplicateKey if runID exists.
	InsertTable(ctx context.Context, runID string, t *domain.Table) error

	// GetTable rebuilds the table stored under runID. Returns ErrNotFound if not exists.
	GetTable(ctx context.Context, runID string) (*domain.Table, error)
}

// RunStore provides access to pipeline_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// Finish sets the terminal status, hash, counts, warnings and error of a run.
	// Returns ErrNotFound if not exists.
	Finish(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)
}

// ArticleStore provides access to news_articles storage.
type ArticleStore interface {
	// InsertNew adds articles whose article_id is not stored yet and returns how many were added.
	InsertNew(ctx context.Context, articles []*domain.Article) (int, error)

	// GetByDateRange retrieves articles with date in [from, to] (inclusive, YYYY-MM-DD),
	// ordered by date ASC, article_id ASC.
	GetByDateRange(ctx context.Context, from, to string) ([]*domain.Article, error)
}
