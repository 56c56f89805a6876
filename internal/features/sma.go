package features

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"gld-feature-lab/internal/domain"
)

// MovingAverage returns the mean of the trailing window values including the current row.
// A row is null while fewer than window values exist or when any value in the window is null.
func MovingAverage(values []*float64, window int) ([]*float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: sma window %d < 1", domain.ErrInvalidParameter, window)
	}

	out := make([]*float64, len(values))
	buf := make([]float64, window)

	for i := window - 1; i < len(values); i++ {
		if !fillWindow(buf, values[i-window+1:i+1]) {
			continue
		}
		out[i] = ptr(stat.Mean(buf, nil))
	}

	return out, nil
}

// fillWindow copies src into dst and reports whether every value was present.
func fillWindow(dst []float64, src []*float64) bool {
	for j, v := range src {
		if v == nil {
			return false
		}
		dst[j] = *v
	}
	return true
}
