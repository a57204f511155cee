package repository

import (
	"context"

	"ClmmLens/internal/domain/models"
)

// MarketData is an upstream price provider (USD-denominated).
type MarketData interface {
	SpotPrice(ctx context.Context, asset models.Asset) (float64, error)
	History(ctx context.Context, asset models.Asset, days int, interval models.Interval) ([]models.PricePoint, error)
}

// HistoryStore is a read-only warehouse of daily closes.
type HistoryStore interface {
	DailyCloses(ctx context.Context, asset models.Asset, days int) ([]models.PricePoint, error)
}

// SpotStream delivers live spot ticks.
type SpotStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.SpotTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ReportPublisher emits finished reports to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, ev models.ReportEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
