package memory

import (
	"context"
	"sort"
	"sync"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// ArticleStore is an in-memory implementation of storage.ArticleStore.
type ArticleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Article // keyed by article_id
}

// NewArticleStore creates a new in-memory article store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		data: make(map[string]*domain.Article),
	}
}

// InsertNew stores articles not seen before. Known ids, including repeats
// inside the batch, are skipped.
func (s *ArticleStore) InsertNew(_ context.Context, articles []*domain.Article) (int, error) {
	for _, a := range articles {
		if a == nil || a.ArticleID == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, a := range articles {
		if _, exists := s.data[a.ArticleID]; exists {
			continue
		}
		articleCopy := *a
		s.data[a.ArticleID] = &articleCopy
		inserted++
	}
	return inserted, nil
}

// GetByDateRange retrieves articles with date in [from, to] (inclusive).
func (s *ArticleStore) GetByDateRange(_ context.Context, from, to string) ([]*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Article
	for _, a := range s.data {
		if a.Date >= from && a.Date <= to {
			articleCopy := *a
			result = append(result, &articleCopy)
		}
	}

	// Sort by date ASC, article_id ASC
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].ArticleID < result[j].ArticleID
	})

	return result, nil
}

var _ storage.ArticleStore = (*ArticleStore)(nil)
