// Package orchestrator runs the feature pipeline end to end.
// It coordinates: fetch → persist raw → align/fill → indicators → persist table
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/features"
	"gld-feature-lab/internal/idhash"
	"gld-feature-lab/internal/lookup"
	"gld-feature-lab/internal/normalization"
	"gld-feature-lab/internal/observability"
	"gld-feature-lab/internal/sources"
	"gld-feature-lab/internal/storage"
	"gld-feature-lab/internal/walkforward"
)

// Pipeline phases, used as log and metric labels.
const (
	PhaseFetch    = "fetch"
	PhasePersist  = "persist_raw"
	PhaseAlign    = "align"
	PhaseFeatures = "features"
	PhaseStore    = "store_table"
	PhaseRun      = "run"
)

// SplitConfig holds walk-forward window sizes in rows. A zero Train disables windows.
type SplitConfig struct {
	Train int
	Test  int
	Step  int
}

// Orchestrator coordinates one pipeline run over a fixed series set and window.
type Orchestrator struct {
	// Sources
	fetchers sources.Registry
	series   []domain.SeriesSpec

	// Stores
	observationStore storage.ObservationStore
	featureStore     storage.FeatureStore
	runStore         storage.RunStore

	// Stages
	normalizer *normalization.Runner
	engine     *features.Engine
	split      SplitConfig

	start, end       time.Time
	fetchConcurrency int

	metrics  *observability.Metrics
	log      zerolog.Logger
	now      func() time.Time
	newRunID func() string
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Fetchers         sources.Registry
	Series           []domain.SeriesSpec
	Start, End       time.Time
	ObservationStore storage.ObservationStore
	FeatureStore     storage.FeatureStore
	RunStore         storage.RunStore
	PriceColumn      string
	Features         features.Config

	// Optional
	Split            SplitConfig
	FetchConcurrency int // 0 = one goroutine per series
	Metrics          *observability.Metrics
	Logger           zerolog.Logger
	Clock            func() time.Time
	NewRunID         func() string
}

// New validates opts and creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if len(opts.Series) == 0 {
		return nil, fmt.Errorf("%w: no series configured", domain.ErrInvalidParameter)
	}
	if opts.End.Before(opts.Start) {
		return nil, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidParameter,
			opts.End.Format(domain.DateLayout), opts.Start.Format(domain.DateLayout))
	}
	if opts.ObservationStore == nil || opts.FeatureStore == nil || opts.RunStore == nil {
		return nil, fmt.Errorf("%w: observation, feature and run stores are required", domain.ErrInvalidParameter)
	}
	seen := make(map[string]bool, len(opts.Series))
	for _, s := range opts.Series {
		if _, ok := opts.Fetchers[s.Source]; !ok {
			return nil, fmt.Errorf("%w: series %s: no fetcher for source %q", domain.ErrInvalidParameter, s.Name, s.Source)
		}
		if !s.Frequency.Valid() {
			return nil, fmt.Errorf("%w: series %s: frequency %q", domain.ErrInvalidParameter, s.Name, s.Frequency)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateColumn, s.Name)
		}
		seen[s.Name] = true
	}
	if opts.Split.Train > 0 {
		// Validate sizes now; the row count is only known after alignment.
		if _, err := walkforward.NewSplitter(0, opts.Split.Train, opts.Split.Test, opts.Split.Step); err != nil {
			return nil, err
		}
	}

	engine, err := features.NewEngine(opts.PriceColumn, opts.Features)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		fetchers:         opts.Fetchers,
		series:           opts.Series,
		observationStore: opts.ObservationStore,
		featureStore:     opts.FeatureStore,
		runStore:         opts.RunStore,
		normalizer:       normalization.NewRunner(opts.ObservationStore, opts.Logger),
		engine:           engine,
		split:            opts.Split,
		start:            domain.Date(opts.Start),
		end:              domain.Date(opts.End),
		fetchConcurrency: opts.FetchConcurrency,
		metrics:          opts.Metrics,
		log:              opts.Logger.With().Str("component", "orchestrator").Logger(),
		now:              opts.Clock,
		newRunID:         opts.NewRunID,
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newRunID == nil {
		o.newRunID = uuid.NewString
	}
	return o, nil
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID      string
	Start, End time.Time
	Table      *domain.Table
	Warnings   []domain.SparseColumnWarning
	Hash       string
	Windows    []domain.WindowPair
	Latest     []lookup.ColumnLatest
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run executes the full pipeline.
// Phases:
//  1. Fetch every configured series concurrently (any failure or repeated date aborts)
//  2. Replace the fetched spans in the observation store
//  3. Load, align and forward-fill the stored series
//  4. Derive indicator columns
//  5. Hash and persist the finished table
//
// The run is recorded in the run store; a failed run is finished with status failed
// and no table is returned.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	rec := &domain.RunRecord{
		RunID:     o.newRunID(),
		Start:     o.start,
		End:       o.end,
		Status:    domain.RunStatusRunning,
		StartedAt: started,
	}
	log := o.log.With().Str("run_id", rec.RunID).Logger()

	if err := o.runStore.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}
	log.Info().
		Str("start", o.start.Format(domain.DateLayout)).
		Str("end", o.end.Format(domain.DateLayout)).
		Int("series", len(o.series)).
		Msg("pipeline run started")

	result, err := o.run(ctx, rec.RunID, log)
	o.metrics.RecordPhase(PhaseRun, o.now().Sub(started), err)

	finished := o.now()
	rec.FinishedAt = &finished
	if err != nil {
		rec.Status = domain.RunStatusFailed
		rec.Error = err.Error()
		// The caller's context may be the reason for the failure.
		if ferr := o.runStore.Finish(context.WithoutCancel(ctx), rec); ferr != nil {
			log.Error().Err(ferr).Msg("record failed run")
		}
		log.Error().Err(err).Msg("pipeline run failed")
		return nil, err
	}

	rec.Status = domain.RunStatusSucceeded
	rec.TableHash = result.Hash
	rec.RowCount = result.Table.Len()
	rec.Columns = len(result.Table.Columns())
	for _, w := range result.Warnings {
		rec.Warnings = append(rec.Warnings, w.String())
	}
	if err := o.runStore.Finish(ctx, rec); err != nil {
		return nil, fmt.Errorf("record run finish: %w", err)
	}

	result.StartedAt = started
	result.FinishedAt = finished
	o.metrics.RecordSuccess(finished)
	log.Info().
		Str("hash", result.Hash).
		Int("rows", rec.RowCount).
		Int("columns", rec.Columns).
		Int("windows", len(result.Windows)).
		Int("warnings", len(result.Warnings)).
		Msg("pipeline run completed")

	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, runID string, log zerolog.Logger) (*RunResult, error) {
	// Phase 1: Fetch
	fetched, err := phase(o, PhaseFetch, func() ([]domain.Series, error) {
		return o.fetchAll(ctx, log)
	})
	if err != nil {
		return nil, fmt.Errorf("phase 1 (fetch) failed: %w", err)
	}

	// Phase 2: Persist raw observations
	_, err = phase(o, PhasePersist, func() (struct{}, error) {
		for _, s := range fetched {
			if err := o.observationStore.ReplaceSeries(ctx, s); err != nil {
				return struct{}{}, fmt.Errorf("store series %s: %w", s.Name, err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("phase 2 (persist raw) failed: %w", err)
	}

	// Phases 3-4: Align, fill, derive
	table, warnings, err := o.Rebuild(ctx)
	if err != nil {
		return nil, err
	}

	// Phase 5: Hash and persist
	hash := idhash.TableHash(table)
	_, err = phase(o, PhaseStore, func() (struct{}, error) {
		return struct{}{}, o.featureStore.InsertTable(ctx, runID, table)
	})
	if err != nil {
		return nil, fmt.Errorf("phase 5 (store table) failed: %w", err)
	}
	o.metrics.RecordTable(table, len(warnings))

	windows, err := o.windows(table.Len())
	if err != nil {
		return nil, err
	}

	return &RunResult{
		RunID:    runID,
		Start:    o.start,
		End:      o.end,
		Table:    table,
		Warnings: warnings,
		Hash:     hash,
		Windows:  windows,
		Latest:   lookup.TableLatest(table, o.end),
	}, nil
}

// Rebuild aligns, fills and derives indicators from the observations already stored
// for the configured window. It does not fetch and does not persist.
func (o *Orchestrator) Rebuild(ctx context.Context) (*domain.Table, []domain.SparseColumnWarning, error) {
	normalized, err := phase(o, PhaseAlign, func() (*normalization.Result, error) {
		return o.normalizer.Normalize(ctx, o.series, o.start, o.end)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("phase 3 (align) failed: %w", err)
	}

	table, err := phase(o, PhaseFeatures, func() (*domain.Table, error) {
		return o.engine.Apply(normalized.Table)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("phase 4 (features) failed: %w", err)
	}

	return table, normalized.Warnings, nil
}

// fetchAll fetches every series concurrently. Results keep configuration order.
// The first failure cancels the remaining fetches.
func (o *Orchestrator) fetchAll(ctx context.Context, log zerolog.Logger) ([]domain.Series, error) {
	out := make([]domain.Series, len(o.series))

	g, gctx := errgroup.WithContext(ctx)
	if o.fetchConcurrency > 0 {
		g.SetLimit(o.fetchConcurrency)
	}
	for i, spec := range o.series {
		g.Go(func() error {
			begin := time.Now()
			s, err := o.fetchers.Fetch(gctx, spec, o.start, o.end)
			o.metrics.RecordFetch(spec.Source, time.Since(begin), err)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", spec.Name, err)
			}
			if err := s.CheckDates(); err != nil {
				return err
			}
			log.Debug().
				Str("series", spec.Name).
				Str("source", spec.Source).
				Int("observations", len(s.Observations)).
				Dur("elapsed", time.Since(begin)).
				Msg("fetched series")
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Orchestrator) windows(rows int) ([]domain.WindowPair, error) {
	if o.split.Train <= 0 {
		return nil, nil
	}
	splitter, err := walkforward.NewSplitter(rows, o.split.Train, o.split.Test, o.split.Step)
	if err != nil {
		return nil, err
	}
	windows := make([]domain.WindowPair, 0, splitter.Count())
	for w := range splitter.All() {
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		o.log.Warn().
			Int("rows", rows).
			Int("train", o.split.Train).
			Int("test", o.split.Test).
			Msg("table too short for a single walk-forward window")
	}
	return windows, nil
}

// phase times fn and records its outcome under name.
func phase[T any](o *Orchestrator, name string, fn func() (T, error)) (T, error) {
	begin := time.Now()
	v, err := fn()
	o.metrics.RecordPhase(name, time.Since(begin), err)
	if err != nil && !errors.Is(err, context.Canceled) {
		o.log.Debug().Err(err).Str("phase", name).Msg("phase failed")
	}
	return v, err
}
