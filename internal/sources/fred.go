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

// DefaultFREDBaseURL is the public FRED API root.
const DefaultFREDBaseURL = "https://api.stlouisfed.org"

// FREDClient fetches macroeconomic series from the FRED observations API.
type FREDClient struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
}

// NewFREDClient creates a FRED client. baseURL may be empty for the public API.
func NewFREDClient(apiKey, baseURL string, opts ...ClientOption) *FREDClient {
	if baseURL == "" {
		baseURL = DefaultFREDBaseURL
	}
	return &FREDClient{
		http:    NewHTTPClient("fred", opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredError struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Fetch retrieves seriesID for [start, end]. FRED's "." placeholder becomes null.
func (c *FREDClient) Fetch(ctx context.Context, seriesID string, start, end time.Time) (domain.Series, error) {
	if c.apiKey == "" {
		return domain.Series{}, &FetchError{Source: "fred", SeriesID: seriesID, Err: errors.New("missing api key")}
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("observation_start", start.Format(domain.DateLayout))
	q.Set("observation_end", end.Format(domain.DateLayout))

	var resp fredResponse
	var apiErr fredError
	if err := c.http.GetJSON(ctx, seriesID, c.baseURL+"/fred/series/observations", q, &resp, &apiErr); err != nil {
		var fe *FetchError
		if apiErr.ErrorMessage != "" && errors.As(err, &fe) {
			fe.Err = fmt.Errorf("%s: %w", apiErr.ErrorMessage, fe.Err)
		}
		return domain.Series{}, err
	}

	return parseFREDObservations(seriesID, resp.Observations)
}

func parseFREDObservations(seriesID string, raw []fredObservation) (domain.Series, error) {
	series := domain.Series{Name: seriesID, Observations: make([]domain.Observation, 0, len(raw))}

	for _, o := range raw {
		date, err := domain.ParseDate(o.Date)
		if err != nil {
			return domain.Series{}, &FetchError{Source: "fred", SeriesID: seriesID, Err: err}
		}

		obs := domain.Observation{Date: date}
		if v := strings.TrimSpace(o.Value); v != "" && v != "." {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return domain.Series{}, &FetchError{
					Source:   "fred",
					SeriesID: seriesID,
					Err:      fmt.Errorf("parse value %q on %s: %w", o.Value, o.Date, err),
				}
			}
			obs.Value = &f
		}
		series.Observations = append(series.Observations, obs)
	}

	return series, nil
}

var _ SeriesFetcher = (*FREDClient)(nil)
