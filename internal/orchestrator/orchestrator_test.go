package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/features"
	"gld-feature-lab/internal/idhash"
	"gld-feature-lab/internal/observability"
	"gld-feature-lab/internal/sources"
	"gld-feature-lab/internal/sources/stub"
	"gld-feature-lab/internal/storage"
	"gld-feature-lab/internal/storage/memory"
)

var (
	testStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
)

type testStores struct {
	observations *memory.ObservationStore
	features     *memory.FeatureStore
	runs         *memory.RunStore
}

func createTestStores() testStores {
	return testStores{
		observations: memory.NewObservationStore(),
		features:     memory.NewFeatureStore(),
		runs:         memory.NewRunStore(),
	}
}

// weekdays returns a daily series on every weekday of January 2024.
func weekdays(name string, base float64) domain.Series {
	s := domain.Series{Name: name, Frequency: domain.FrequencyDaily}
	for d := testStart; !d.After(testEnd); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		s.Observations = append(s.Observations, domain.Observation{
			Date:  d,
			Value: domain.Float(base + float64(d.Day())),
		})
	}
	return s
}

func monthly(name string) domain.Series {
	return domain.Series{
		Name:      name,
		Frequency: domain.FrequencyMonthly,
		Observations: []domain.Observation{
			{Date: testStart, Value: domain.Float(308.4)},
		},
	}
}

func testSpecs() []domain.SeriesSpec {
	return []domain.SeriesSpec{
		{Name: "GLD_CLOSE", Source: "stub", ID: "GLD:close", Frequency: domain.FrequencyDaily},
		{Name: "CPIAUCSL", Source: "stub", ID: "CPIAUCSL", Frequency: domain.FrequencyMonthly},
	}
}

func testFetcher() *stub.Fetcher {
	return stub.NewFetcher().
		Add("GLD:close", weekdays("GLD:close", 180)).
		Add("CPIAUCSL", monthly("CPIAUCSL"))
}

func testOptions(stores testStores, f sources.SeriesFetcher) Options {
	ids := 0
	return Options{
		Fetchers:         sources.Registry{"stub": f},
		Series:           testSpecs(),
		Start:            testStart,
		End:              testEnd,
		ObservationStore: stores.observations,
		FeatureStore:     stores.features,
		RunStore:         stores.runs,
		PriceColumn:      "GLD_CLOSE",
		Features:         features.Config{SMAWindows: []int{3}, MomentumPeriod: 2},
		Split:            SplitConfig{Train: 10, Test: 5, Step: 5},
		Logger:           zerolog.Nop(),
		NewRunID: func() string {
			ids++
			return fmt.Sprintf("run-%d", ids)
		},
	}
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	orch, err := New(testOptions(stores, testFetcher()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// 23 weekdays in January 2024
	if result.Table.Len() != 23 {
		t.Errorf("expected 23 rows, got %d", result.Table.Len())
	}
	wantCols := []string{"GLD_CLOSE", "CPIAUCSL", "SMA_3", "MOMENTUM_2"}
	gotCols := result.Table.ColumnNames()
	if fmt.Sprint(gotCols) != fmt.Sprint(wantCols) {
		t.Errorf("columns = %v, want %v", gotCols, wantCols)
	}

	// Monthly value forward-filled across every daily row
	for i := 0; i < result.Table.Len(); i++ {
		v := result.Table.Value(i, "CPIAUCSL")
		if v == nil || *v != 308.4 {
			t.Fatalf("row %d: CPIAUCSL = %v, want 308.4", i, v)
		}
	}

	if result.Hash != idhash.TableHash(result.Table) {
		t.Errorf("hash does not match table")
	}

	// (23-15)/5+1 = 2 windows
	if len(result.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(result.Windows))
	}
	if result.Windows[1].Train.Start != 5 || result.Windows[1].Test.End != 20 {
		t.Errorf("second window = %+v", result.Windows[1])
	}

	if len(result.Latest) != 4 {
		t.Fatalf("expected 4 latest values, got %d", len(result.Latest))
	}
	if result.Latest[0].Column != "GLD_CLOSE" || result.Latest[0].Value != 211 {
		t.Errorf("latest GLD_CLOSE = %+v, want 211 on Jan 31", result.Latest[0])
	}

	stored, err := stores.features.GetTable(ctx, result.RunID)
	if err != nil {
		t.Fatalf("stored table: %v", err)
	}
	if idhash.TableHash(stored) != result.Hash {
		t.Errorf("stored table hash differs")
	}

	rec, err := stores.runs.GetByID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("run record: %v", err)
	}
	if rec.Status != domain.RunStatusSucceeded {
		t.Errorf("status = %s, want succeeded", rec.Status)
	}
	if rec.TableHash != result.Hash || rec.RowCount != 23 || rec.Columns != 4 {
		t.Errorf("run record = %+v", rec)
	}
	if rec.FinishedAt == nil {
		t.Errorf("finished_at not set")
	}
}

func TestOrchestrator_Run_Deterministic(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	orch, err := New(testOptions(stores, testFetcher()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.RunID == second.RunID {
		t.Errorf("run ids should differ")
	}
	if first.Hash != second.Hash {
		t.Errorf("hash changed between identical runs: %s != %s", first.Hash, second.Hash)
	}

	rebuilt, _, err := orch.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if idhash.TableHash(rebuilt) != first.Hash {
		t.Errorf("rebuild from stored observations differs")
	}
}

func TestOrchestrator_Run_FetchFailure(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	fetcher := testFetcher().Fail("CPIAUCSL", errors.New("status 500"))
	reg := prometheus.NewRegistry()
	opts := testOptions(stores, fetcher)
	opts.Metrics = observability.NewMetrics("test", reg)

	orch, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := orch.Run(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrFetchFailure) {
		t.Errorf("expected ErrFetchFailure, got %v", err)
	}
	if result != nil {
		t.Errorf("failed run must not return a result")
	}

	rec, err := stores.runs.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("run record: %v", err)
	}
	if rec.Status != domain.RunStatusFailed || rec.Error == "" {
		t.Errorf("run record = %+v, want failed with error", rec)
	}

	if _, err := stores.features.GetTable(ctx, "run-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed run stored a table: %v", err)
	}
	if _, err := stores.observations.GetSeries(ctx, "GLD_CLOSE", testStart, testEnd); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed fetch phase persisted raw series: %v", err)
	}

	if got := testutil.ToFloat64(opts.Metrics.PipelineRunsTotal.WithLabelValues(PhaseFetch, "error")); got != 1 {
		t.Errorf("fetch error metric = %v, want 1", got)
	}
}

func TestOrchestrator_Run_MalformedSeries(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	repeated := monthly("CPIAUCSL")
	repeated.Observations = append(repeated.Observations,
		domain.Observation{Date: testStart, Value: domain.Float(309.1)})
	orch, err := New(testOptions(stores, testFetcher().Add("CPIAUCSL", repeated)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := orch.Run(ctx)
	if !errors.Is(err, domain.ErrMalformedSeries) {
		t.Fatalf("expected ErrMalformedSeries, got %v", err)
	}
	if result != nil {
		t.Errorf("failed run must not return a result")
	}

	rec, err := stores.runs.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("run record: %v", err)
	}
	if rec.Status != domain.RunStatusFailed {
		t.Errorf("status = %s, want failed", rec.Status)
	}
	if _, err := stores.observations.GetSeries(ctx, "GLD_CLOSE", testStart, testEnd); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("malformed fetch persisted raw series: %v", err)
	}
}

func TestOrchestrator_Run_SparseColumn(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	fetcher := testFetcher().Add("CPIAUCSL", domain.Series{Name: "CPIAUCSL", Frequency: domain.FrequencyMonthly})
	orch, err := New(testOptions(stores, fetcher))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(result.Warnings) != 1 || result.Warnings[0].Column != "CPIAUCSL" {
		t.Fatalf("warnings = %v, want one for CPIAUCSL", result.Warnings)
	}

	rec, err := stores.runs.GetByID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("run record: %v", err)
	}
	if len(rec.Warnings) != 1 {
		t.Errorf("run record warnings = %v", rec.Warnings)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	stores := createTestStores()

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"no series", func(o *Options) { o.Series = nil }},
		{"end before start", func(o *Options) { o.End = o.Start.AddDate(0, 0, -1) }},
		{"unknown source", func(o *Options) { o.Series[0].Source = "bloomberg" }},
		{"bad frequency", func(o *Options) { o.Series[0].Frequency = "weekly" }},
		{"duplicate name", func(o *Options) { o.Series[1].Name = o.Series[0].Name }},
		{"bad split", func(o *Options) { o.Split.Step = 0 }},
		{"empty price column", func(o *Options) { o.PriceColumn = "" }},
		{"missing store", func(o *Options) { o.RunStore = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(stores, testFetcher())
			tt.modify(&opts)
			if _, err := New(opts); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}
