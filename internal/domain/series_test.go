package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSeries_CheckDates(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	ok := Series{Name: "GDP", Observations: []Observation{
		{Date: d, Value: Float(1)},
		{Date: d.AddDate(0, 3, 0)},
	}}
	if err := ok.CheckDates(); err != nil {
		t.Errorf("CheckDates: %v", err)
	}

	// Same calendar date at a different time of day is still a repeat.
	bad := Series{Name: "GDP", Observations: []Observation{
		{Date: d, Value: Float(1)},
		{Date: d.Add(15 * time.Hour), Value: Float(2)},
	}}
	err := bad.CheckDates()
	if !errors.Is(err, ErrMalformedSeries) {
		t.Fatalf("expected ErrMalformedSeries, got %v", err)
	}
}
