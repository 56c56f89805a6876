package domain

import "time"

// Bar is one daily OHLCV bar from the market-data provider.
type Bar struct {
	Symbol   string
	Date     time.Time // exchange-local trading date, UTC midnight
	Open     *float64
	High     *float64
	Low      *float64
	Close    *float64
	AdjClose *float64
	Volume   *float64
}

// Article is a news headline row.
type Article struct {
	ArticleID   string // sha256 of URL
	Source      string
	Author      *string
	Title       string
	Description *string
	URL         string
	PublishedAt string // as reported by the provider
	Date        string // YYYY-MM-DD part of PublishedAt, or PublishedAt when not ISO
	Content     *string
}

// Field returns the named bar field: open, high, low, close, adjclose or volume.
// ok is false for an unknown name.
func (b Bar) Field(name string) (v *float64, ok bool) {
	switch name {
	case "open":
		return b.Open, true
	case "high":
		return b.High, true
	case "low":
		return b.Low, true
	case "close":
		return b.Close, true
	case "adjclose":
		return b.AdjClose, true
	case "volume":
		return b.Volume, true
	}
	return nil, false
}
