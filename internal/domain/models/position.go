package models

import "github.com/shopspring/decimal"

// LiquidityPosition is a normalized concentrated-liquidity position.
// It is immutable after construction: X0*DepositPrice + Y0 == DepositValue.
type LiquidityPosition struct {
	L            float64 `json:"liquidity"`
	X0           float64 `json:"x0"`
	Y0           float64 `json:"y0"`
	DepositPrice float64 `json:"deposit_price"`
	Lower        float64 `json:"lower"`
	Upper        float64 `json:"upper"`
	DepositValue float64 `json:"deposit_value"`
}

// PositionValue is the position evaluated at one price.
type PositionValue struct {
	Price     float64 `json:"price"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ValueLP   float64 `json:"value_lp"`
	ValueHODL float64 `json:"value_hodl"`
	ILPct     float64 `json:"il_pct"`
	InRange   bool    `json:"in_range"`
}

// CurvePoint is one sample of the IL curve.
type CurvePoint struct {
	Price float64 `json:"price"`
	ILPct float64 `json:"il_pct"`
}

// RangeResult is the output of range allocation. When Inverted is set Low and
// High are swapped for display; use Bounds for computations.
type RangeResult struct {
	Spot       float64         `json:"spot"`
	RatioA     float64         `json:"ratio_a"`
	RatioB     float64         `json:"ratio_b"`
	RangePct   float64         `json:"range_pct"`
	Low        float64         `json:"low"`
	High       float64         `json:"high"`
	AmountA    decimal.Decimal `json:"amount_a"`
	AmountB    decimal.Decimal `json:"amount_b"`
	Inverted   bool            `json:"inverted"`
	PctClamped bool            `json:"pct_clamped,omitempty"`
	LowClamped bool            `json:"low_clamped,omitempty"`
}

// Bounds returns the ordered (lower, upper) pair.
func (r RangeResult) Bounds() (float64, float64) {
	if r.Low > r.High {
		return r.High, r.Low
	}
	return r.Low, r.High
}

// BacktestResult summarizes how a series sat relative to a range.
type BacktestResult struct {
	Samples       int     `json:"samples"`
	OutOfRange    int     `json:"out_of_range"`
	Below         int     `json:"below"`
	Above         int     `json:"above"`
	ExitRatio     float64 `json:"exit_ratio"`
	LongestStreak int     `json:"longest_streak"`
}

// EnsembleResult summarizes a batch of simulated paths.
type EnsembleResult struct {
	Paths           int     `json:"paths"`
	ExitProbability float64 `json:"exit_probability"`
	MeanOutOfRange  float64 `json:"mean_out_of_range"`
	FinalP5         float64 `json:"final_p5"`
	FinalP50        float64 `json:"final_p50"`
	FinalP95        float64 `json:"final_p95"`
}
