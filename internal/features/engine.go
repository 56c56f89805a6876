package features

import (
	"fmt"

	"gld-feature-lab/internal/domain"
)

// Config selects the indicators derived from the price column.
// A zero period disables that indicator.
type Config struct {
	SMAWindows      []int   `yaml:"sma_windows"`
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerK      float64 `yaml:"bollinger_k"`
	MomentumPeriod  int     `yaml:"momentum_period"`
}

// DefaultConfig returns the standard GLD indicator set.
func DefaultConfig() Config {
	return Config{
		SMAWindows:      []int{20, 50, 200},
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerK:      2,
		MomentumPeriod:  10,
	}
}

// Engine applies a fixed indicator set to the price column of a table.
type Engine struct {
	source     string
	indicators []Indicator
}

// NewEngine builds the indicator list in the order
// SMA(s), RSI, MACD, Bollinger, Momentum.
// Parameters are validated here so a bad config fails before any table is built.
func NewEngine(source string, cfg Config) (*Engine, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty price column", domain.ErrInvalidParameter)
	}

	var inds []Indicator
	for _, w := range cfg.SMAWindows {
		if w < 1 {
			return nil, fmt.Errorf("%w: sma window %d < 1", domain.ErrInvalidParameter, w)
		}
		inds = append(inds, SMA{Window: w})
	}
	if cfg.RSIPeriod != 0 {
		if cfg.RSIPeriod < 1 {
			return nil, fmt.Errorf("%w: rsi period %d < 1", domain.ErrInvalidParameter, cfg.RSIPeriod)
		}
		inds = append(inds, RSIIndicator{Period: cfg.RSIPeriod})
	}
	if cfg.MACDFast != 0 || cfg.MACDSlow != 0 || cfg.MACDSignal != 0 {
		if cfg.MACDFast < 1 || cfg.MACDSignal < 1 || cfg.MACDFast >= cfg.MACDSlow {
			return nil, fmt.Errorf("%w: macd spans (%d, %d, %d)",
				domain.ErrInvalidParameter, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		}
		inds = append(inds, MACDIndicator{Fast: cfg.MACDFast, Slow: cfg.MACDSlow, Signal: cfg.MACDSignal})
	}
	if cfg.BollingerPeriod != 0 {
		if cfg.BollingerPeriod < 2 || cfg.BollingerK < 0 {
			return nil, fmt.Errorf("%w: bollinger (%d, %v)",
				domain.ErrInvalidParameter, cfg.BollingerPeriod, cfg.BollingerK)
		}
		inds = append(inds, Bollinger{Period: cfg.BollingerPeriod, K: cfg.BollingerK})
	}
	if cfg.MomentumPeriod != 0 {
		if cfg.MomentumPeriod < 1 {
			return nil, fmt.Errorf("%w: momentum period %d < 1", domain.ErrInvalidParameter, cfg.MomentumPeriod)
		}
		inds = append(inds, MomentumIndicator{Period: cfg.MomentumPeriod})
	}

	return &Engine{source: source, indicators: inds}, nil
}

// Source returns the price column name.
func (e *Engine) Source() string {
	return e.source
}

// Indicators returns the configured indicators in application order.
func (e *Engine) Indicators() []Indicator {
	return append([]Indicator(nil), e.indicators...)
}

// Apply returns t with every configured indicator column appended.
func (e *Engine) Apply(t *domain.Table) (*domain.Table, error) {
	out, err := Apply(t, e.source, e.indicators...)
	if err != nil {
		return nil, fmt.Errorf("apply indicators to %s: %w", e.source, err)
	}
	return out, nil
}
