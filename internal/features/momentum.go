package features

import (
	"fmt"

	"gld-feature-lab/internal/domain"
)

// Momentum returns v[t]/v[t-period] - 1.
// Null for the first period rows, when either value is null, or when v[t-period] is zero.
func Momentum(values []*float64, period int) ([]*float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("%w: momentum period %d < 1", domain.ErrInvalidParameter, period)
	}

	out := make([]*float64, len(values))
	for i := period; i < len(values); i++ {
		cur, base := values[i], values[i-period]
		if cur == nil || base == nil || *base == 0 {
			continue
		}
		out[i] = ptr(*cur / *base - 1)
	}

	return out, nil
}
