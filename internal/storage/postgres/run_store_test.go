package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

func createTestRun(runID string) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:     runID,
		Start:     day(1, 1),
		End:       day(6, 30),
		Status:    domain.RunStatusRunning,
		StartedAt: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := createTestRun("run-001")
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, "run-001", got.RunID)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	assert.True(t, got.Start.Equal(day(1, 1)))
	assert.True(t, got.End.Equal(day(6, 30)))
	assert.True(t, got.StartedAt.Equal(run.StartedAt))
	assert.Nil(t, got.FinishedAt)
	assert.Empty(t, got.Warnings)
}

func TestRunStore_Finish(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRun("run-002")))

	finished := time.Date(2024, 7, 1, 8, 2, 0, 0, time.UTC)
	err := store.Finish(ctx, &domain.RunRecord{
		RunID:      "run-002",
		Status:     domain.RunStatusSucceeded,
		TableHash:  "deadbeef",
		RowCount:   128,
		Columns:    19,
		Warnings:   []string{"column GDP (quarterly) has no observations in range"},
		FinishedAt: &finished,
	})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "run-002")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, got.Status)
	assert.Equal(t, "deadbeef", got.TableHash)
	assert.Equal(t, 128, got.RowCount)
	assert.Equal(t, 19, got.Columns)
	assert.Equal(t, []string{"column GDP (quarterly) has no observations in range"}, got.Warnings)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(finished))
}

func TestRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	require.NoError(t, store.Insert(ctx, createTestRun("run-003")))
	err := store.Insert(ctx, createTestRun("run-003"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Finish(ctx, &domain.RunRecord{RunID: "missing", Status: domain.RunStatusFailed})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
