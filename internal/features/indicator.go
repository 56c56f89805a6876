package features

import (
	"fmt"
	"strconv"

	"gld-feature-lab/internal/domain"
)

// Indicator derives one or more columns from a source column of a table.
type Indicator interface {
	Columns(t *domain.Table, source string) ([]domain.Column, error)
}

// Apply appends the columns of each indicator, in call order, and returns the new table.
// t is left unchanged.
func Apply(t *domain.Table, source string, indicators ...Indicator) (*domain.Table, error) {
	out := t
	for _, ind := range indicators {
		cols, err := ind.Columns(out, source)
		if err != nil {
			return nil, err
		}
		next, err := out.WithColumns(cols...)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

func sourceValues(t *domain.Table, source string) ([]*float64, error) {
	col, ok := t.Column(source)
	if !ok {
		return nil, fmt.Errorf("%w: source %s", domain.ErrUnknownColumn, source)
	}
	return col.Values, nil
}

// SMA is a simple moving average over Window rows.
type SMA struct {
	Window int
}

func (s SMA) Columns(t *domain.Table, source string) ([]domain.Column, error) {
	values, err := sourceValues(t, source)
	if err != nil {
		return nil, err
	}
	ma, err := MovingAverage(values, s.Window)
	if err != nil {
		return nil, err
	}
	return []domain.Column{{Name: fmt.Sprintf("SMA_%d", s.Window), Values: ma}}, nil
}

// RSIIndicator is the relative strength index over Period rows.
type RSIIndicator struct {
	Period int
}

func (r RSIIndicator) Columns(t *domain.Table, source string) ([]domain.Column, error) {
	values, err := sourceValues(t, source)
	if err != nil {
		return nil, err
	}
	rsi, err := RSI(values, r.Period)
	if err != nil {
		return nil, err
	}
	return []domain.Column{{Name: fmt.Sprintf("RSI_%d", r.Period), Values: rsi}}, nil
}

// MACDIndicator produces the MACD line, signal and histogram columns.
type MACDIndicator struct {
	Fast   int
	Slow   int
	Signal int
}

func (m MACDIndicator) Columns(t *domain.Table, source string) ([]domain.Column, error) {
	values, err := sourceValues(t, source)
	if err != nil {
		return nil, err
	}
	res, err := MACD(values, m.Fast, m.Slow, m.Signal)
	if err != nil {
		return nil, err
	}
	suffix := fmt.Sprintf("%d_%d_%d", m.Fast, m.Slow, m.Signal)
	return []domain.Column{
		{Name: "MACD_" + suffix, Values: res.Line},
		{Name: "MACD_SIGNAL_" + suffix, Values: res.Signal},
		{Name: "MACD_HIST_" + suffix, Values: res.Histogram},
	}, nil
}

// Bollinger produces middle, upper and lower band columns.
type Bollinger struct {
	Period int
	K      float64
}

func (b Bollinger) Columns(t *domain.Table, source string) ([]domain.Column, error) {
	values, err := sourceValues(t, source)
	if err != nil {
		return nil, err
	}
	bands, err := BollingerBands(values, b.Period, b.K)
	if err != nil {
		return nil, err
	}
	suffix := fmt.Sprintf("%d_%s", b.Period, strconv.FormatFloat(b.K, 'f', -1, 64))
	return []domain.Column{
		{Name: "BB_MID_" + suffix, Values: bands.Middle},
		{Name: "BB_UPPER_" + suffix, Values: bands.Upper},
		{Name: "BB_LOWER_" + suffix, Values: bands.Lower},
	}, nil
}

// MomentumIndicator is the Period-row rate of change.
type MomentumIndicator struct {
	Period int
}

func (m MomentumIndicator) Columns(t *domain.Table, source string) ([]domain.Column, error) {
	values, err := sourceValues(t, source)
	if err != nil {
		return nil, err
	}
	mom, err := Momentum(values, m.Period)
	if err != nil {
		return nil, err
	}
	return []domain.Column{{Name: fmt.Sprintf("MOMENTUM_%d", m.Period), Values: mom}}, nil
}

var (
	_ Indicator = SMA{}
	_ Indicator = RSIIndicator{}
	_ Indicator = MACDIndicator{}
	_ Indicator = Bollinger{}
	_ Indicator = MomentumIndicator{}
)
