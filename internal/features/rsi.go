package features

import (
	"fmt"
	"math"

	"gld-feature-lab/internal/domain"
)

// RSI computes the relative strength index with Wilder-style smoothing (α = 1/period).
//
// delta[t] is v[t]-v[t-1] and is null on the first row or when either side is null.
// Gains and losses are smoothed separately from the first delta onwards.
// A row whose smoothed loss is zero reads 100.
func RSI(values []*float64, period int) ([]*float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("%w: rsi period %d < 1", domain.ErrInvalidParameter, period)
	}

	gains := make([]*float64, len(values))
	losses := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i] == nil || values[i-1] == nil {
			continue
		}
		delta := *values[i] - *values[i-1]
		gains[i] = ptr(math.Max(delta, 0))
		losses[i] = ptr(math.Max(-delta, 0))
	}

	alpha := 1.0 / float64(period)
	avgGain, err := EMAAlpha(gains, alpha)
	if err != nil {
		return nil, err
	}
	avgLoss, err := EMAAlpha(losses, alpha)
	if err != nil {
		return nil, err
	}

	out := make([]*float64, len(values))
	for i := range values {
		if avgGain[i] == nil || avgLoss[i] == nil {
			continue
		}
		if *avgLoss[i] == 0 {
			out[i] = ptr(100)
			continue
		}
		rs := *avgGain[i] / *avgLoss[i]
		out[i] = ptr(100 - 100/(1+rs))
	}

	return out, nil
}
