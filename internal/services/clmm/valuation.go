package clmm

import (
	"fmt"

	"ClmmLens/internal/domain/models"
	"ClmmLens/pkg/util"
)

// Amounts returns the token quantities (x of asset A, y of asset B) held by
// pos at price. Below the lower bound the position is all x, above the upper
// bound it is all y, and the composition stops changing outside the range.
func Amounts(pos models.LiquidityPosition, price float64) (float64, float64) {
	a, b := composition(price, pos.Lower, pos.Upper)
	return pos.L * a, pos.L * b
}

// ValueLP is the quote-denominated value of the position at price.
func ValueLP(pos models.LiquidityPosition, price float64) float64 {
	x, y := Amounts(pos, price)
	return x*price + y
}

// ValueHODL is the value at price of simply holding the deposit tokens x0, y0.
func ValueHODL(pos models.LiquidityPosition, price float64) float64 {
	return pos.X0*price + pos.Y0
}

// ImpermanentLoss returns V_LP/V_HODL − 1 as a fraction. Negative means the
// position is worth less than holding.
func ImpermanentLoss(pos models.LiquidityPosition, price float64) float64 {
	return util.SafeDiv(ValueLP(pos, price), ValueHODL(pos, price), Epsilon) - 1
}

// ILAt returns the impermanent loss at price in percent.
func ILAt(pos models.LiquidityPosition, price float64) float64 {
	return ImpermanentLoss(pos, price) * 100
}

// ValueAt evaluates the position at a single price.
func ValueAt(pos models.LiquidityPosition, price float64) (models.PositionValue, error) {
	if !util.IsFinite(price) || price <= 0 {
		return models.PositionValue{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	x, y := Amounts(pos, price)
	lp := x*price + y
	hodl := ValueHODL(pos, price)
	return models.PositionValue{
		Price:     price,
		X:         x,
		Y:         y,
		ValueLP:   lp,
		ValueHODL: hodl,
		ILPct:     (util.SafeDiv(lp, hodl, Epsilon) - 1) * 100,
		InRange:   price >= pos.Lower && price <= pos.Upper,
	}, nil
}
