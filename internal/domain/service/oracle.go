package service

import (
	"context"

	"ClmmLens/internal/domain/models"
)

// PriceOracle supplies spot and historical prices. Lookups never fail hard:
// spot reports availability through ok, history degrades to a fallback series.
type PriceOracle interface {
	Spot(ctx context.Context, symbol string) (float64, bool)
	History(ctx context.Context, symbol string, days int, interval models.Interval) models.PriceSeries
	CrossPrice(ctx context.Context, base, quote string) (float64, bool)
	// CrossQuote is CrossPrice plus the source of the base leg.
	CrossQuote(ctx context.Context, base, quote string) (float64, models.PriceSource, bool)
	CrossHistory(ctx context.Context, base, quote string, days int) models.PriceSeries
	KnowsAsset(symbol string) bool
}
