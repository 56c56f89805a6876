package features

import (
	"fmt"

	"gld-feature-lab/internal/domain"
)

// EMA computes the exponential moving average with α = 2/(span+1).
func EMA(values []*float64, span int) ([]*float64, error) {
	if span < 1 {
		return nil, fmt.Errorf("%w: ema span %d < 1", domain.ErrInvalidParameter, span)
	}
	return EMAAlpha(values, 2.0/float64(span+1))
}

// EMAAlpha folds values with smoothing factor alpha in (0, 1]:
//
//	ema[first] = v[first]
//	ema[t]     = alpha*v[t] + (1-alpha)*ema[prev]
//
// where first is the first non-null row and prev is the last non-null row before t.
// Rows before first and null rows are null; a null row does not advance the fold.
func EMAAlpha(values []*float64, alpha float64) ([]*float64, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: ema alpha %v outside (0, 1]", domain.ErrInvalidParameter, alpha)
	}

	out := make([]*float64, len(values))
	var state float64
	seeded := false

	for i, v := range values {
		if v == nil {
			continue
		}
		if !seeded {
			state = *v
			seeded = true
		} else {
			state = alpha*(*v) + (1-alpha)*state
		}
		out[i] = ptr(state)
	}

	return out, nil
}

func ptr(v float64) *float64 {
	return &v
}
