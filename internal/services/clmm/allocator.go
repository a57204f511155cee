package clmm

import (
	"fmt"
	"math"

	"ClmmLens/internal/domain/models"
	"ClmmLens/pkg/util"

	"github.com/shopspring/decimal"
)

const (
	// MaxRangePct is the widest accepted range width.
	MaxRangePct = 200.0
	// MinPrice replaces non-positive computed bounds.
	MinPrice = 1e-9

	ratioTolerance = 1e-9
)

// Allocate derives the price range and the capital split for a strategy.
//
//	low  = spot·(1 − ratioA·pct/100)
//	high = spot·(1 + ratioB·pct/100)
//
// rangePct above MaxRangePct is clamped; a non-positive low is clamped to
// MinPrice. With invert set, low and high are swapped for display.
func Allocate(spot, ratioA, ratioB, rangePct float64, invert bool, capital float64) (models.RangeResult, error) {
	if !util.IsFinite(spot) || spot <= 0 {
		return models.RangeResult{}, fmt.Errorf("%w: %v", ErrInvalidSpot, spot)
	}
	if !util.IsFinite(rangePct) || rangePct <= 0 {
		return models.RangeResult{}, fmt.Errorf("%w: %v", ErrInvalidRangePct, rangePct)
	}
	if !util.IsFinite(ratioA) || !util.IsFinite(ratioB) ||
		ratioA < 0 || ratioA > 1 || ratioB < 0 || ratioB > 1 ||
		math.Abs(ratioA+ratioB-1) > ratioTolerance {
		return models.RangeResult{}, fmt.Errorf("%w: %v/%v", ErrInvalidRatio, ratioA, ratioB)
	}
	if !util.IsFinite(capital) || capital < 0 {
		return models.RangeResult{}, fmt.Errorf("%w: capital %v", ErrInvalidDeposit, capital)
	}

	res := models.RangeResult{Spot: spot, RatioA: ratioA, RatioB: ratioB, RangePct: rangePct}
	if rangePct > MaxRangePct {
		res.RangePct = MaxRangePct
		res.PctClamped = true
	}

	width := res.RangePct / 100
	res.Low = spot * (1 - ratioA*width)
	res.High = spot * (1 + ratioB*width)
	if res.Low <= 0 {
		res.Low = MinPrice
		res.LowClamped = true
	}
	if invert {
		res.Low, res.High = res.High, res.Low
		res.Inverted = true
	}

	c := decimal.NewFromFloat(capital).Round(2)
	res.AmountA = c.Mul(decimal.NewFromFloat(ratioA)).Round(2)
	res.AmountB = c.Sub(res.AmountA)
	return res, nil
}

// AllocateStrategy is Allocate with the ratios of a predefined strategy.
func AllocateStrategy(spot float64, s models.Strategy, rangePct float64, invert bool, capital float64) (models.RangeResult, error) {
	p := s.Profile()
	return Allocate(spot, p.RatioA, p.RatioB, rangePct, invert, capital)
}
