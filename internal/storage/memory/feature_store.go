package memory

import (
	"context"
	"sync"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Table // keyed by run_id
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[string]*domain.Table),
	}
}

// InsertTable stores a deep copy of t. Returns ErrDuplicateKey if runID exists.
func (s *FeatureStore) InsertTable(_ context.Context, runID string, t *domain.Table) error {
	if runID == "" || t == nil {
		return storage.ErrInvalidInput
	}

	tableCopy, err := copyTable(t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[runID] = tableCopy
	return nil
}

// GetTable returns a copy of the table stored under runID.
func (s *FeatureStore) GetTable(_ context.Context, runID string) (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyTable(t)
}

func copyTable(t *domain.Table) (*domain.Table, error) {
	cols := t.Columns()
	for i := range cols {
		values := make([]*float64, len(cols[i].Values))
		for j, v := range cols[i].Values {
			values[j] = copyValue(v)
		}
		cols[i].Values = values
	}
	return domain.NewTable(t.Dates(), cols...)
}

var _ storage.FeatureStore = (*FeatureStore)(nil)
