package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"gld-feature-lab/internal/domain"
)

// Bands holds Bollinger middle, upper and lower series.
type Bands struct {
	Middle []*float64
	Upper  []*float64
	Lower  []*float64
}

// BollingerBands computes middle = SMA(period) and middle ± k × sample std of the
// same window. Rows without a full, null-free window are null.
func BollingerBands(values []*float64, period int, k float64) (*Bands, error) {
	if period < 2 {
		return nil, fmt.Errorf("%w: bollinger period %d < 2", domain.ErrInvalidParameter, period)
	}
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return nil, fmt.Errorf("%w: bollinger width %v", domain.ErrInvalidParameter, k)
	}

	bands := &Bands{
		Middle: make([]*float64, len(values)),
		Upper:  make([]*float64, len(values)),
		Lower:  make([]*float64, len(values)),
	}
	buf := make([]float64, period)

	for i := period - 1; i < len(values); i++ {
		if !fillWindow(buf, values[i-period+1:i+1]) {
			continue
		}
		mean, std := stat.MeanStdDev(buf, nil)
		bands.Middle[i] = ptr(mean)
		bands.Upper[i] = ptr(mean + k*std)
		bands.Lower[i] = ptr(mean - k*std)
	}

	return bands, nil
}
