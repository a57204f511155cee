package usecase

import "errors"

var (
	ErrUnknownAsset      = errors.New("usecase: unknown asset")
	ErrSpotUnavailable   = errors.New("usecase: spot price unavailable")
	ErrInvalidVolatility = errors.New("usecase: volatility must be finite and >= 0")
	ErrInvalidHorizon    = errors.New("usecase: horizon out of range")
	ErrInvalidPaths      = errors.New("usecase: path count out of range")
)
