package sources

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gld-feature-lab/internal/domain"
	"gld-feature-lab/internal/idhash"
)

// DefaultNewsAPIBaseURL is the public NewsAPI root.
const DefaultNewsAPIBaseURL = "https://newsapi.org"

// MaxNewsAPIDays is the history available on the NewsAPI free plan.
const MaxNewsAPIDays = 30

// NewsAPIClient fetches headlines from the NewsAPI "everything" endpoint.
type NewsAPIClient struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
	now     func() time.Time
	log     zerolog.Logger
}

// NewNewsAPIClient creates a NewsAPI client. baseURL may be empty for the public API.
func NewNewsAPIClient(apiKey, baseURL string, log zerolog.Logger, opts ...ClientOption) *NewsAPIClient {
	if baseURL == "" {
		baseURL = DefaultNewsAPIBaseURL
	}
	opts = append([]ClientOption{WithHeader("X-Api-Key", apiKey), WithLogger(log)}, opts...)
	return &NewsAPIClient{
		http:    NewHTTPClient("newsapi", opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		now:     time.Now,
		log:     log.With().Str("component", "newsapi").Logger(),
	}
}

// WithClock sets the clock used to compute the "from" date.
func (c *NewsAPIClient) WithClock(now func() time.Time) *NewsAPIClient {
	c.now = now
	return c
}

type newsResponse struct {
	Status       string        `json:"status"`
	TotalResults int           `json:"totalResults"`
	Articles     []newsArticle `json:"articles"`
	Code         string        `json:"code"`
	Message      string        `json:"message"`
}

type newsArticle struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

// FetchArticles pages through English articles matching query published in the last days days,
// newest first. days is clamped to MaxNewsAPIDays.
//
// Paging stops at the first short or empty page. A provider error response also stops
// paging: the articles collected so far are returned without error and the failure is logged.
// Transport failures that outlast the retries are returned as *FetchError.
func (c *NewsAPIClient) FetchArticles(ctx context.Context, query string, days, pageSize int) ([]*domain.Article, error) {
	if c.apiKey == "" {
		return nil, &FetchError{Source: "newsapi", SeriesID: query, Err: errors.New("missing api key")}
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	if days > MaxNewsAPIDays {
		c.log.Warn().
			Int("requested_days", days).
			Int("max_days", MaxNewsAPIDays).
			Msg("newsapi free plan limits history, clamping")
		days = MaxNewsAPIDays
	}
	from := c.now().UTC().AddDate(0, 0, -days).Format(domain.DateLayout)

	var all []*domain.Article
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("q", query)
		q.Set("from", from)
		q.Set("language", "en")
		q.Set("sortBy", "publishedAt")
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))

		var resp newsResponse
		err := c.http.GetJSON(ctx, query, c.baseURL+"/v2/everything", q, &resp, &resp)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && fe.StatusCode >= 400 && fe.StatusCode < 500 {
				c.log.Error().Err(err).Str("code", resp.Code).Str("message", resp.Message).
					Int("page", page).Int("collected", len(all)).Msg("newsapi error, stopping")
				return all, nil
			}
			return nil, err
		}
		if resp.Status == "error" {
			c.log.Error().Str("code", resp.Code).Str("message", resp.Message).
				Int("page", page).Int("collected", len(all)).Msg("newsapi error, stopping")
			return all, nil
		}

		if len(resp.Articles) == 0 {
			break
		}
		for _, a := range resp.Articles {
			all = append(all, toArticle(a))
		}
		if len(resp.Articles) < pageSize {
			break
		}
	}

	return all, nil
}

func toArticle(a newsArticle) *domain.Article {
	return &domain.Article{
		ArticleID:   idhash.ArticleID(a.URL, a.Source.Name, a.Title, a.PublishedAt),
		Source:      a.Source.Name,
		Author:      a.Author,
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		Date:        ArticleDate(a.PublishedAt),
		Content:     a.Content,
	}
}

// ArticleDate returns the YYYY-MM-DD part of an ISO timestamp, or s unchanged when it has no 'T'.
func ArticleDate(s string) string {
	if date, _, found := strings.Cut(s, "T"); found {
		return date
	}
	return s
}
