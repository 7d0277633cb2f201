package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PredictorConfig tunes the trend estimate.
type PredictorConfig struct {
	// Window is how many of the most recent ledger entries feed the average.
	Window int
	// Alpha weights the newest delta in the exponential moving average.
	Alpha decimal.Decimal
}

// DefaultPredictorConfig returns window 8, alpha 0.55.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		Window: 8,
		Alpha:  decimal.RequireFromString("0.55"),
	}
}

// PricePredictor estimates the next price from the current state and the ledger.
// It never mutates either.
type PricePredictor struct {
	cfg     PredictorConfig
	catalog *DemandCatalog
}

// NewPricePredictor validates cfg and creates a predictor.
func NewPricePredictor(cfg PredictorConfig, catalog *DemandCatalog) (*PricePredictor, error) {
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("predictor window must be positive, got %d", cfg.Window)
	}
	if cfg.Alpha.Sign() <= 0 || cfg.Alpha.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("predictor alpha must be in (0, 1], got %s", cfg.Alpha)
	}
	return &PricePredictor{cfg: cfg, catalog: catalog}, nil
}

// Window returns how many entries Predict looks at.
func (pp *PricePredictor) Window() int { return pp.cfg.Window }

// Predict returns the clamped, cent-rounded price estimate. history must be in
// ascending changedAt order; only its last Window entries are used.
func (pp *PricePredictor) Predict(state *ProductPriceState, history []*PriceHistoryEntry) Money {
	return pp.Raw(state, history).Round().Clamp(state.MinPrice(), state.MaxPrice())
}

// Raw returns the estimate before rounding and clamping.
func (pp *PricePredictor) Raw(state *ProductPriceState, history []*PriceHistoryEntry) Money {
	current := state.CurrentPrice()

	if len(history) == 0 {
		factor := pp.catalog.Profile(state.CategoryKey()).ColdStartFactor
		return current.MulDecimal(factor)
	}

	return current.AddDecimal(pp.EMA(history))
}

// EMA returns the exponential moving average of the per-entry price deltas over the
// last Window entries, seeded with the first delta in that window.
func (pp *PricePredictor) EMA(history []*PriceHistoryEntry) decimal.Decimal {
	if len(history) == 0 {
		return decimal.Zero
	}
	if len(history) > pp.cfg.Window {
		history = history[len(history)-pp.cfg.Window:]
	}

	alpha := pp.cfg.Alpha
	keep := decimal.NewFromInt(1).Sub(alpha)

	ema := history[0].Change().Decimal()
	for _, e := range history[1:] {
		ema = alpha.Mul(e.Change().Decimal()).Add(keep.Mul(ema))
	}
	return ema
}
