package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/storage"
)

// ArticleStore implements storage.ArticleStore using PostgreSQL.
type ArticleStore struct {
	pool *Pool
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(pool *Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ArticleStore = (*ArticleStore)(nil)

// InsertNew adds articles whose article_id is not stored yet, in one transaction.
func (s *ArticleStore) InsertNew(ctx context.Context, articles []*domain.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	for _, a := range articles {
		if a == nil || a.ArticleID == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO news_articles (
			article_id, source, author, title, description, url, published_at, article_date, content
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (article_id) DO NOTHING
	`

	inserted := 0
	err := s.pool.inTx(ctx, func(tx pgx.Tx) error {
		for _, a := range articles {
			tag, err := tx.Exec(ctx, query,
				a.ArticleID, a.Source, a.Author, a.Title, a.Description,
				a.URL, a.PublishedAt, a.Date, a.Content,
			)
			if err != nil {
				return fmt.Errorf("insert article: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetByDateRange retrieves articles with date in [from, to] (inclusive).
func (s *ArticleStore) GetByDateRange(ctx context.Context, from, to string) ([]*domain.Article, error) {
	query := `
		SELECT article_id, source, author, title, description, url, published_at, article_date, content
		FROM news_articles
		WHERE article_date >= $1 AND article_date <= $2
		ORDER BY article_date ASC, article_id ASC
	`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var result []*domain.Article
	for rows.Next() {
		var a domain.Article
		err := rows.Scan(
			&a.ArticleID, &a.Source, &a.Author, &a.Title, &a.Description,
			&a.URL, &a.PublishedAt, &a.Date, &a.Content,
		)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return result, nil
}
