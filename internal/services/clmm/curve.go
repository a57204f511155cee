package clmm

import (
	"fmt"

	"ClmmLens/internal/domain/models"
	"ClmmLens/pkg/util"
)

const (
	DefaultCurvePoints = 400
	MaxCurvePoints     = 5000

	gridLowFactor  = 0.8
	gridHighFactor = 1.3
)

// DefaultGrid returns the conventional plotting window [0.8·lower, 1.3·upper].
func DefaultGrid(pos models.LiquidityPosition) (float64, float64) {
	return pos.Lower * gridLowFactor, pos.Upper * gridHighFactor
}

// Curve evaluates IL(%) over n linearly spaced prices in [gridLow, gridHigh].
func Curve(pos models.LiquidityPosition, gridLow, gridHigh float64, n int) ([]models.CurvePoint, error) {
	if !util.IsFinite(gridLow) || !util.IsFinite(gridHigh) || gridLow <= 0 || gridHigh <= gridLow {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidGrid, gridLow, gridHigh)
	}
	if n < 2 || n > MaxCurvePoints {
		return nil, fmt.Errorf("%w: %d points", ErrInvalidGrid, n)
	}
	prices := util.Linspace(gridLow, gridHigh, n)
	out := make([]models.CurvePoint, len(prices))
	for i, p := range prices {
		out[i] = models.CurvePoint{Price: p, ILPct: ILAt(pos, p)}
	}
	return out, nil
}
