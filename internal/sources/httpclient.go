package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient performs JSON GET requests with rate limiting, retries and exponential backoff.
type HTTPClient struct {
	source      string
	client      *http.Client
	limiter     *rate.Limiter
	headers     http.Header
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	log         zerolog.Logger
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithRateLimit allows rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *HTTPClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *HTTPClient) {
		c.headers.Set(key, value)
	}
}

// WithLogger sets the logger used for retry messages.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.log = log
	}
}

// NewHTTPClient creates a client for one provider. source names the provider in errors.
func NewHTTPClient(source string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		source:      source,
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		headers:     make(http.Header),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches endpoint?query and decodes the body into result.
//
// Transport errors, 429 and 5xx are retried with exponential backoff.
// Other non-2xx statuses fail at once; their body is decoded into errBody
// when errBody is non-nil so callers can read provider error messages.
// All failures are returned as *FetchError with SeriesID set to id.
func (c *HTTPClient) GetJSON(ctx context.Context, id, endpoint string, query url.Values, result, errBody any) error {
	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	fail := func(status int, err error) error {
		return &FetchError{Source: c.source, SeriesID: id, StatusCode: status, Err: err}
	}

	delay := c.retryDelay
	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug().
				Str("source", c.source).
				Str("id", id).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying request")

			select {
			case <-ctx.Done():
				return fail(lastStatus, ctx.Err())
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, fmt.Errorf("rate limiter: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fail(0, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fail(0, ctx.Err())
			}
			// The query may carry an api key; keep it out of logs and run records.
			var ue *url.Error
			if errors.As(err, &ue) {
				ue.URL = endpoint
			}
			lastErr, lastStatus = fmt.Errorf("http request: %w", err), 0
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr, lastStatus = fmt.Errorf("read response: %w", err), resp.StatusCode
			continue
		}

		// Handle rate limiting and server errors
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr, lastStatus = fmt.Errorf("unexpected status: %s", truncate(body)), resp.StatusCode
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			// Client errors are not retried
			if errBody != nil {
				_ = json.Unmarshal(body, errBody)
			}
			return fail(resp.StatusCode, fmt.Errorf("unexpected status: %s", truncate(body)))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return fail(lastStatus, fmt.Errorf("max retries exceeded: %w", lastErr))
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
