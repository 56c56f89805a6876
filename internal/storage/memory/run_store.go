package memory

import (
	"context"
	"sync"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// Finish overwrites the terminal fields of an existing run.
func (s *RunStore) Finish(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[r.RunID]
	if !exists {
		return storage.ErrNotFound
	}

	updated := copyRun(existing)
	updated.Status = r.Status
	updated.TableHash = r.TableHash
	updated.RowCount = r.RowCount
	updated.Columns = r.Columns
	updated.Warnings = append([]string(nil), r.Warnings...)
	updated.Error = r.Error
	if r.FinishedAt != nil {
		finished := *r.FinishedAt
		updated.FinishedAt = &finished
	}
	s.data[r.RunID] = updated
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

func copyRun(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.Warnings = append([]string(nil), r.Warnings...)
	if r.FinishedAt != nil {
		finished := *r.FinishedAt
		c.FinishedAt = &finished
	}
	return &c
}

var _ storage.RunStore = (*RunStore)(nil)
