// Package clmm implements concentrated-liquidity position math: liquidity from
// a deposit, token composition and value at any price, the HODL baseline, IL
// curves and range allocation.
package clmm

import (
	"fmt"
	"math"

	"ClmmLens/internal/domain/models"
	"ClmmLens/pkg/util"
)

// Epsilon guards denominators that may be computed as zero.
const Epsilon = 1e-12

// BuildPosition computes the normalized liquidity position for depositUSD
// provided at depositPrice within [lower, upper].
//
// A deposit price outside the bounds yields a single-asset position: the
// composition is evaluated at the bound nearest to depositPrice.
func BuildPosition(depositPrice, lower, upper, depositUSD float64) (models.LiquidityPosition, error) {
	if err := validateBounds(lower, upper); err != nil {
		return models.LiquidityPosition{}, err
	}
	if !util.IsFinite(depositPrice) || depositPrice <= 0 {
		return models.LiquidityPosition{}, fmt.Errorf("%w: deposit price %v", ErrInvalidPrice, depositPrice)
	}
	if !util.IsFinite(depositUSD) || depositUSD <= 0 {
		return models.LiquidityPosition{}, fmt.Errorf("%w: %v", ErrInvalidDeposit, depositUSD)
	}

	a, b := composition(depositPrice, lower, upper)
	lRaw := util.SafeDiv(depositUSD, depositPrice*a+b, Epsilon)
	x0Raw := lRaw * a
	y0Raw := lRaw * b

	factor := util.SafeDiv(depositUSD, x0Raw*depositPrice+y0Raw, Epsilon)
	return models.LiquidityPosition{
		L:            lRaw * factor,
		X0:           x0Raw * factor,
		Y0:           y0Raw * factor,
		DepositPrice: depositPrice,
		Lower:        lower,
		Upper:        upper,
		DepositValue: depositUSD,
	}, nil
}

// composition returns the per-unit-liquidity token amounts
// (1/√P − 1/√Pu, √P − √Pl) with P clamped into [lower, upper].
func composition(price, lower, upper float64) (float64, float64) {
	p := util.Clamp(price, lower, upper)
	sp := math.Sqrt(p)
	a := 1/sp - 1/math.Sqrt(upper)
	b := sp - math.Sqrt(lower)
	return math.Max(a, 0), math.Max(b, 0)
}

func validateBounds(lower, upper float64) error {
	if !util.IsFinite(lower) || !util.IsFinite(upper) {
		return fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
	}
	if lower <= 0 {
		return fmt.Errorf("%w: lower %v must be positive", ErrInvalidRange, lower)
	}
	if upper <= lower {
		return fmt.Errorf("%w: upper %v must exceed lower %v", ErrInvalidRange, upper, lower)
	}
	return nil
}
