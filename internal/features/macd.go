package features

import (
	"fmt"

	"gld-feature-lab/internal/domain"
)

// MACDResult holds the three MACD series, each aligned with the input.
type MACDResult struct {
	Line      []*float64
	Signal    []*float64
	Histogram []*float64
}

// MACD computes line = EMA(fast) - EMA(slow), signal = EMA(signal) of the line,
// histogram = line - signal.
//
// Both EMAs start at the first non-null value, so the early rows carry a warm-up
// bias instead of being null.
func MACD(values []*float64, fast, slow, signal int) (*MACDResult, error) {
	if fast < 1 || slow < 1 || signal < 1 {
		return nil, fmt.Errorf("%w: macd spans (%d, %d, %d) must be >= 1",
			domain.ErrInvalidParameter, fast, slow, signal)
	}
	if fast >= slow {
		return nil, fmt.Errorf("%w: macd fast span %d must be < slow span %d",
			domain.ErrInvalidParameter, fast, slow)
	}

	fastEMA, err := EMA(values, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := EMA(values, slow)
	if err != nil {
		return nil, err
	}

	line := make([]*float64, len(values))
	for i := range values {
		if fastEMA[i] != nil && slowEMA[i] != nil {
			line[i] = ptr(*fastEMA[i] - *slowEMA[i])
		}
	}

	signalLine, err := EMA(line, signal)
	if err != nil {
		return nil, err
	}

	hist := make([]*float64, len(values))
	for i := range values {
		if line[i] != nil && signalLine[i] != nil {
			hist[i] = ptr(*line[i] - *signalLine[i])
		}
	}

	return &MACDResult{Line: line, Signal: signalLine, Histogram: hist}, nil
}
