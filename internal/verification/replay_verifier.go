package verification

import (
	"context"
	"errors"
	"fmt"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/idhash"
	"gld-feature-lab/internal/storage"
)

// ErrRunNotSucceeded is returned when verifying a run that produced no table.
var ErrRunNotSucceeded = errors.New("run did not succeed")

// Rebuilder rebuilds the aligned table from stored observations.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*domain.Table, []domain.SparseColumnWarning, error)
}

// Report is the outcome of one verification.
type Report struct {
	RunID        string       `json:"run_id,omitempty"` // empty for a determinism check
	ExpectedHash string       `json:"expected_hash"`
	ActualHash   string       `json:"actual_hash"`
	Match        bool         `json:"match"`
	Divergences  []Divergence `json:"divergences"`
}

// RunVerifier rebuilds tables and compares them with stored ones.
type RunVerifier struct {
	rebuilder    Rebuilder
	runStore     storage.RunStore
	featureStore storage.FeatureStore
}

// NewRunVerifier creates a new RunVerifier.
func NewRunVerifier(rebuilder Rebuilder, runStore storage.RunStore, featureStore storage.FeatureStore) *RunVerifier {
	return &RunVerifier{
		rebuilder:    rebuilder,
		runStore:     runStore,
		featureStore: featureStore,
	}
}

// VerifyDeterminism rebuilds the table twice and compares the two builds.
func (v *RunVerifier) VerifyDeterminism(ctx context.Context) (*Report, error) {
	first, _, err := v.rebuilder.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("first rebuild: %w", err)
	}
	second, _, err := v.rebuilder.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("second rebuild: %w", err)
	}
	return compare("", first, second), nil
}

// VerifyRun rebuilds the table and compares it with the one stored for runID,
// both by recorded hash and cell by cell.
// The observation store must still hold the series the run was built from.
func (v *RunVerifier) VerifyRun(ctx context.Context, runID string) (*Report, error) {
	rec, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if rec.Status != domain.RunStatusSucceeded {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunNotSucceeded, runID, rec.Status)
	}

	stored, err := v.featureStore.GetTable(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", runID, err)
	}
	rebuilt, _, err := v.rebuilder.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}

	report := compare(runID, stored, rebuilt)
	if rec.TableHash != report.ExpectedHash {
		report.Match = false
		report.Divergences = append(report.Divergences, Divergence{
			Field:    "table_hash",
			Row:      -1,
			Expected: rec.TableHash,
			Actual:   report.ExpectedHash,
		})
	}
	return report, nil
}

func compare(runID string, expected, actual *domain.Table) *Report {
	divergences := CompareTables(expected, actual)
	r := &Report{
		RunID:        runID,
		ExpectedHash: idhash.TableHash(expected),
		ActualHash:   idhash.TableHash(actual),
		Divergences:  divergences,
	}
	r.Match = len(divergences) == 0 && r.ExpectedHash == r.ActualHash
	return r
}
