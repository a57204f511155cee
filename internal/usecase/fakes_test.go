package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"ClmmLens/internal/domain/models"
	"ClmmLens/pkg/cache"
)

var errProvider = errors.New("provider down")

var testRegistry = models.NewAssetRegistry(map[string]models.Asset{
	"USDC": {ProviderID: "usd-coin"},
	"ETH":  {ProviderID: "ethereum", StreamSymbol: "BINANCE:ETHUSDT"},
	"SOL":  {ProviderID: "solana"},
})

type fakeMarket struct {
	spots       map[string]float64
	history     map[string][]float64
	spotErr     error
	historyErr  error
	spotCalls   atomic.Int32
	historyCall atomic.Int32
	// gate, when set, holds SpotPrice until closed or ctx is done.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeMarket) SpotPrice(ctx context.Context, a models.Asset) (float64, error) {
	f.spotCalls.Add(1)
	if f.gate != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.spotErr != nil {
		return 0, f.spotErr
	}
	p, ok := f.spots[a.Symbol]
	if !ok {
		return 0, errProvider
	}
	return p, nil
}

func (f *fakeMarket) History(_ context.Context, a models.Asset, days int, _ models.Interval) ([]models.PricePoint, error) {
	f.historyCall.Add(1)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return points(f.history[a.Symbol]...), nil
}

type fakeStore struct {
	closes map[string][]float64
	err    error
}

func (f *fakeStore) DailyCloses(_ context.Context, a models.Asset, days int) ([]models.PricePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return points(f.closes[a.Symbol]...), nil
}

type fakeLive map[string]float64

func (f fakeLive) Latest(symbol string) (float64, bool) {
	p, ok := f[symbol]
	return p, ok
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.ReportEvent
	err    error
}

func (f *fakePublisher) PublishReport(_ context.Context, ev models.ReportEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func points(prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Price: p}
	}
	return out
}

func newTestOracle(m *fakeMarket, store *fakeStore, live LiveSpot) *PriceOracle {
	o := NewPriceOracle(testRegistry, m, nil, live, cache.NewMemoryCache(cache.MemoryConfig{}), nil, OracleConfig{
		ReferenceAsset: "USDC",
		DefaultDays:    30,
		FallbackLength: 30,
		MinPoints:      2,
	}, nil)
	if store != nil {
		o.store = store
	}
	return o
}
