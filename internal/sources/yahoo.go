package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gld-feature-lab/internal/domain"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API root.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient fetches daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	http    *HTTPClient
	baseURL string
}

// NewYahooClient creates a Yahoo client. baseURL may be empty for the public API.
func NewYahooClient(baseURL string, opts ...ClientOption) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	// Yahoo rejects requests without a browser-like agent.
	opts = append([]ClientOption{WithHeader("User-Agent", "Mozilla/5.0")}, opts...)
	return &YahooClient{
		http:    NewHTTPClient("yahoo", opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchBars retrieves daily bars for symbol with dates in [start, end].
// Bars without a close are dropped. Dates are trading dates in the exchange time zone.
func (c *YahooClient) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(domain.Date(start).Unix(), 10))
	// period2 is exclusive
	q.Set("period2", strconv.FormatInt(domain.Date(end).AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,split")

	var resp chartResponse
	if err := c.http.GetJSON(ctx, symbol, c.baseURL+"/v8/finance/chart/"+url.PathEscape(symbol), q, &resp, &resp); err != nil {
		var fe *FetchError
		if resp.Chart.Error != nil && errors.As(err, &fe) {
			fe.Err = fmt.Errorf("%s: %w", resp.Chart.Error.Description, fe.Err)
		}
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, &FetchError{Source: "yahoo", SeriesID: symbol, Err: errors.New(resp.Chart.Error.Description)}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, &FetchError{Source: "yahoo", SeriesID: symbol, Err: errors.New("empty chart result")}
	}

	return parseChart(symbol, resp.Chart.Result[0], domain.Date(start), domain.Date(end))
}

func parseChart(symbol string, r chartResult, start, end time.Time) ([]domain.Bar, error) {
	loc := time.FixedZone("exchange", r.Meta.GMTOffset)
	if r.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	if len(r.Timestamp) == 0 {
		return nil, nil
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, &FetchError{Source: "yahoo", SeriesID: symbol, Err: errors.New("missing quote indicators")}
	}
	quote := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	at := func(values []*float64, i int) *float64 {
		if i < len(values) {
			return values[i]
		}
		return nil
	}

	bars := make([]domain.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			continue
		}

		date := domain.Date(time.Unix(ts, 0).In(loc))
		if date.Before(start) || date.After(end) {
			continue
		}
		bar := domain.Bar{
			Symbol:   symbol,
			Date:     date,
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    closePrice,
			AdjClose: at(adj, i),
			Volume:   at(quote.Volume, i),
		}

		// The live bar of the current session can repeat the last date.
		if n := len(bars); n > 0 && !date.After(bars[n-1].Date) {
			bars[n-1] = bar
			continue
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// Fetch retrieves one field of a symbol as a series.
// seriesID is SYMBOL or SYMBOL:field with field one of open, high, low, close, adjclose, volume.
func (c *YahooClient) Fetch(ctx context.Context, seriesID string, start, end time.Time) (domain.Series, error) {
	symbol, field, err := splitYahooID(seriesID)
	if err != nil {
		return domain.Series{}, err
	}

	bars, err := c.FetchBars(ctx, symbol, start, end)
	if err != nil {
		return domain.Series{}, err
	}

	series := domain.Series{Name: seriesID, Observations: make([]domain.Observation, 0, len(bars))}
	for _, b := range bars {
		v, _ := b.Field(field)
		series.Observations = append(series.Observations, domain.Observation{Date: b.Date, Value: v})
	}
	return series, nil
}

func splitYahooID(seriesID string) (symbol, field string, err error) {
	symbol, field, found := strings.Cut(seriesID, ":")
	if !found {
		field = "close"
	}
	field = strings.ToLower(field)
	if symbol == "" {
		return "", "", fmt.Errorf("%w: empty yahoo symbol in %q", domain.ErrInvalidParameter, seriesID)
	}
	if _, ok := (domain.Bar{}).Field(field); !ok {
		return "", "", fmt.Errorf("%w: unknown yahoo field %q", domain.ErrInvalidParameter, field)
	}
	return symbol, field, nil
}

var _ SeriesFetcher = (*YahooClient)(nil)
