package reporting

import (
	"context"
	"fmt"
	"time"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
	"gld-feature-lab/internal/walkforward"
)

// Generator rebuilds reports of past runs from stored data.
type Generator struct {
	runStore     storage.RunStore
	featureStore storage.FeatureStore
	train, test  int
	step         int
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. Windows are recomputed with the
// given sizes; train == 0 omits them.
func NewGenerator(runStore storage.RunStore, featureStore storage.FeatureStore, train, test, step int) *Generator {
	return &Generator{
		runStore:     runStore,
		featureStore: featureStore,
		train:        train,
		test:         test,
		step:         step,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of a stored run. Failed runs have no table,
// so only their metadata and error are reported.
func (g *Generator) Generate(ctx context.Context, runID string) (*RunReport, error) {
	rec, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if rec.Status != domain.RunStatusSucceeded {
		return Build(rec, nil, nil, g.now()), nil
	}

	t, err := g.featureStore.GetTable(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", runID, err)
	}

	var windows []domain.WindowPair
	if g.train > 0 {
		s, err := walkforward.NewSplitter(t.Len(), g.train, g.test, g.step)
		if err != nil {
			return nil, err
		}
		for w := range s.All() {
			windows = append(windows, w)
		}
	}

	return Build(rec, t, windows, g.now()), nil
}
