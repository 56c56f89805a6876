package normalization

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// NormalizationEngine defines the main normalization interface.
type NormalizationEngine interface {
	// Normalize loads the given series for [from, to], aligns them on one calendar
	// and forward-fills every input column.
	Normalize(ctx context.Context, specs []domain.SeriesSpec, from, to time.Time) (*Result, error)
}

// Result is the output of a normalization pass.
type Result struct {
	Table    *domain.Table
	Warnings []domain.SparseColumnWarning
}

// Runner implements NormalizationEngine.
type Runner struct {
	observationStore storage.ObservationStore
	log              zerolog.Logger
}

// NewRunner creates a new normalization runner.
func NewRunner(observationStore storage.ObservationStore, log zerolog.Logger) *Runner {
	return &Runner{
		observationStore: observationStore,
		log:              log.With().Str("component", "normalization").Logger(),
	}
}
