package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in every flat file and store.
const DateLayout = "2006-01-02"

// Frequency is the native sampling frequency of an input series.
type Frequency string

// Supported native frequencies.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// ParseFrequency converts a config string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidParameter, s)
	}
	return f, nil
}

// Observation is a single dated value of a series.
// Value is nil for an explicit null reported by the provider.
type Observation struct {
	Date  time.Time // calendar date, UTC midnight
	Value *float64  // nil = null
}

// Series is a named sequence of observations ordered by date.
type Series struct {
	Name         string        // output column name
	Frequency    Frequency     // native frequency
	Observations []Observation // ascending by date
}

// CheckDates fails with ErrMalformedSeries if two observations share a calendar date.
func (s Series) CheckDates() error {
	seen := make(map[time.Time]struct{}, len(s.Observations))
	for _, o := range s.Observations {
		d := Date(o.Date)
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: series %s has duplicate date %s",
				ErrMalformedSeries, s.Name, d.Format(DateLayout))
		}
		seen[d] = struct{}{}
	}
	return nil
}

// SeriesSpec describes where a series comes from and how it is tagged.
type SeriesSpec struct {
	Name      string    // output column name, e.g. CPIAUCSL
	Source    string    // fetcher key: fred, yahoo, stub
	ID        string    // provider series id, e.g. CPIAUCSL or GLD:close
	Frequency Frequency // native frequency
}

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
