package clmm

import "errors"

var (
	ErrInvalidRange    = errors.New("clmm: invalid price range")
	ErrInvalidPrice    = errors.New("clmm: price must be positive and finite")
	ErrInvalidDeposit  = errors.New("clmm: deposit value must be positive and finite")
	ErrInvalidGrid     = errors.New("clmm: invalid price grid")
	ErrInvalidSpot     = errors.New("clmm: spot price must be positive and finite")
	ErrInvalidRangePct = errors.New("clmm: range percentage must be positive")
	ErrInvalidRatio    = errors.New("clmm: ratios must lie in [0,1] and sum to 1")
)
