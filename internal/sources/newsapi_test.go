package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articlesPage(page, n int) map[string]any {
	arts := make([]map[string]any, n)
	for i := range arts {
		arts[i] = map[string]any{
			"source":      map[string]any{"id": nil, "name": "Reuters"},
			"author":      "Jane Doe",
			"title":       fmt.Sprintf("Gold headline %d-%d", page, i),
			"description": nil,
			"url":         fmt.Sprintf("https://example.com/%d/%d", page, i),
			"publishedAt": "2025-07-09T14:05:00Z",
			"content":     "Gold prices ...",
		}
	}
	return map[string]any{"status": "ok", "totalResults": 99, "articles": arts}
}

func fixedNow() time.Time {
	return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
}

func TestNewsAPIClient_Paging(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		q := r.URL.Query()
		assert.Equal(t, "GLD OR SPDR Gold", q.Get("q"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "2025-06-10", q.Get("from"), "days must be clamped to 30")

		page, _ := strconv.Atoi(q.Get("page"))
		n := 2
		if page == 2 {
			n = 1
		}
		json.NewEncoder(w).Encode(articlesPage(page, n))
	}))
	defer server.Close()

	client := NewNewsAPIClient("key", server.URL, zerolog.Nop()).WithClock(fixedNow)
	arts, err := client.FetchArticles(context.Background(), "GLD OR SPDR Gold", 100, 2)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load(), "short second page ends paging")
	require.Len(t, arts, 3)
	assert.Equal(t, "Reuters", arts[0].Source)
	assert.Equal(t, "2025-07-09", arts[0].Date)
	assert.Equal(t, "2025-07-09T14:05:00Z", arts[0].PublishedAt)
	assert.Nil(t, arts[0].Description)
	require.NotNil(t, arts[0].Author)
	assert.Equal(t, "Jane Doe", *arts[0].Author)
	assert.Len(t, arts[0].ArticleID, 64)
	assert.NotEqual(t, arts[0].ArticleID, arts[1].ArticleID)
}

func TestNewsAPIClient_ErrorStopsPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			json.NewEncoder(w).Encode(articlesPage(1, 2))
			return
		}
		w.WriteHeader(http.StatusUpgradeRequired)
		w.Write([]byte(`{"status":"error","code":"maximumResultsReached","message":"You have requested too many results."}`))
	}))
	defer server.Close()

	client := NewNewsAPIClient("key", server.URL, zerolog.Nop()).WithClock(fixedNow)
	arts, err := client.FetchArticles(context.Background(), "gold", 10, 2)
	require.NoError(t, err)
	assert.Len(t, arts, 2)
}

func TestNewsAPIClient_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "totalResults": 0, "articles": []any{}})
	}))
	defer server.Close()

	client := NewNewsAPIClient("key", server.URL, zerolog.Nop())
	arts, err := client.FetchArticles(context.Background(), "gold", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, arts)
}

func TestNewsAPIClient_MissingKey(t *testing.T) {
	client := NewNewsAPIClient("", "http://unused", zerolog.Nop())
	_, err := client.FetchArticles(context.Background(), "gold", 5, 10)
	require.Error(t, err)
}

func TestArticleDate(t *testing.T) {
	assert.Equal(t, "2025-07-09", ArticleDate("2025-07-09T14:05:00Z"))
	assert.Equal(t, "2 hours ago", ArticleDate("2 hours ago"))
	assert.Equal(t, "", ArticleDate(""))
}
