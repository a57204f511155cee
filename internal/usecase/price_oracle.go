package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ClmmLens/internal/domain/models"
	drepo "ClmmLens/internal/domain/repository"
	"ClmmLens/internal/domain/service"
	"ClmmLens/pkg/cache"
	applogger "ClmmLens/pkg/logger"
	"ClmmLens/pkg/util"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CrossEpsilon bounds the quote leg of a cross price away from zero.
const CrossEpsilon = 1e-7

var errLegUnavailable = errors.New("leg unavailable")

// LiveSpot is a source of fresh streamed prices keyed by asset symbol.
type LiveSpot interface {
	Latest(symbol string) (float64, bool)
}

type OracleConfig struct {
	ReferenceAsset  string
	HistoryTTL      time.Duration
	SpotTTL         time.Duration
	DefaultDays     int
	DefaultInterval models.Interval
	FallbackLength  int
	MinPoints       int
	// FetchTimeout bounds a shared upstream fetch, which outlives any
	// single caller's context.
	FetchTimeout time.Duration
}

// PriceOracle resolves prices through cache, live stream, provider,
// warehouse and finally a constant fallback.
type PriceOracle struct {
	registry models.AssetRegistry
	market   drepo.MarketData
	store    drepo.HistoryStore
	live     LiveSpot
	cache    cache.Service
	metrics  drepo.Metrics
	cfg      OracleConfig
	l        *applogger.Logger
	sf       singleflight.Group
}

var _ service.PriceOracle = (*PriceOracle)(nil)

// NewPriceOracle wires the oracle. store and live may be nil.
func NewPriceOracle(
	registry models.AssetRegistry,
	market drepo.MarketData,
	store drepo.HistoryStore,
	live LiveSpot,
	c cache.Service,
	metrics drepo.Metrics,
	cfg OracleConfig,
	l *applogger.Logger,
) *PriceOracle {
	if cfg.FallbackLength <= 0 {
		cfg.FallbackLength = 30
	}
	if cfg.MinPoints < 2 {
		cfg.MinPoints = 2
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 30
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if !models.IsValidInterval(cfg.DefaultInterval) {
		cfg.DefaultInterval = models.DefaultInterval()
	}
	cfg.ReferenceAsset = strings.ToUpper(cfg.ReferenceAsset)
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &PriceOracle{
		registry: registry,
		market:   market,
		store:    store,
		live:     live,
		cache:    c,
		metrics:  metrics,
		cfg:      cfg,
		l:        l,
	}
}

func (o *PriceOracle) KnowsAsset(symbol string) bool {
	_, ok := o.registry.Lookup(symbol)
	return ok
}

func (o *PriceOracle) Spot(ctx context.Context, symbol string) (float64, bool) {
	p, _, ok := o.spot(ctx, symbol)
	return p, ok
}

func (o *PriceOracle) spot(ctx context.Context, symbol string) (float64, models.PriceSource, bool) {
	asset, ok := o.registry.Lookup(symbol)
	if !ok {
		o.metrics.RecordFetch("registry", "unknown")
		return 0, "", false
	}
	key := cache.Key("spot", asset.Symbol)

	if o.cache != nil {
		if p, err := cache.GetTyped[float64](ctx, o.cache, key); err == nil && validPrice(p) {
			o.metrics.RecordFetch(string(models.SourceCache), "hit")
			return p, models.SourceCache, true
		}
	}

	if o.live != nil {
		if p, ok := o.live.Latest(asset.Symbol); ok && validPrice(p) {
			o.metrics.RecordFetch(string(models.SourceStream), "hit")
			return p, models.SourceStream, true
		}
	}

	start := time.Now()
	v, err := o.shared(ctx, key, func(fctx context.Context) (interface{}, error) {
		return o.market.SpotPrice(fctx, asset)
	})
	o.metrics.RecordLatency("oracle.spot", time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordFetch(string(models.SourceProvider), "error")
		o.l.Warn("oracle.spot provider_error", applogger.String("asset", asset.Symbol), applogger.Error(err))
		return 0, "", false
	}
	p := v.(float64)
	if !validPrice(p) {
		o.metrics.RecordFetch(string(models.SourceProvider), "invalid")
		return 0, "", false
	}
	o.metrics.RecordFetch(string(models.SourceProvider), "ok")
	o.put(ctx, key, p, o.cfg.SpotTTL)
	return p, models.SourceProvider, true
}

func (o *PriceOracle) History(ctx context.Context, symbol string, days int, interval models.Interval) models.PriceSeries {
	if days <= 0 {
		days = o.cfg.DefaultDays
	}
	if !models.IsValidInterval(interval) {
		interval = o.cfg.DefaultInterval
	}
	asset, ok := o.registry.Lookup(symbol)
	if !ok {
		o.metrics.RecordFetch("registry", "unknown")
		return o.fallback(strings.ToUpper(symbol), days, interval)
	}
	key := cache.Key("history", asset.Symbol, string(interval), days)

	if o.cache != nil {
		if s, err := cache.GetTyped[models.PriceSeries](ctx, o.cache, key); err == nil && len(s.Points) >= o.cfg.MinPoints {
			o.metrics.RecordFetch(string(models.SourceCache), "hit")
			s.Source = models.SourceCache
			return s
		}
	}

	start := time.Now()
	v, err := o.shared(ctx, key, func(fctx context.Context) (interface{}, error) {
		return o.fetchHistory(fctx, asset, days, interval), nil
	})
	o.metrics.RecordLatency("oracle.history", time.Since(start).Seconds())
	if err != nil {
		return o.fallback(asset.Symbol, days, interval)
	}

	s := v.(models.PriceSeries)
	if !s.Fallback {
		o.put(ctx, key, s, o.cfg.HistoryTTL)
	}
	return s
}

// shared runs fn once per key for all concurrent callers. The fetch is detached
// from the caller that started it, so a cancelled caller only stops waiting.
func (o *PriceOracle) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := o.sf.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.FetchTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (o *PriceOracle) fetchHistory(ctx context.Context, asset models.Asset, days int, interval models.Interval) models.PriceSeries {
	pts, err := o.market.History(ctx, asset, days, interval)
	if err == nil {
		if clean := cleanPoints(pts); len(clean) >= o.cfg.MinPoints {
			o.metrics.RecordFetch(string(models.SourceProvider), "ok")
			return o.series(asset.Symbol, days, interval, clean, models.SourceProvider)
		}
		o.metrics.RecordFetch(string(models.SourceProvider), "short")
		o.l.Warn("oracle.history provider_short", applogger.String("asset", asset.Symbol), applogger.Int("points", len(pts)))
	} else {
		o.metrics.RecordFetch(string(models.SourceProvider), "error")
		o.l.Warn("oracle.history provider_error", applogger.String("asset", asset.Symbol), applogger.Error(err))
	}

	if o.store != nil && interval == models.IntervalDaily {
		pts, err := o.store.DailyCloses(ctx, asset, days)
		if err == nil {
			if clean := cleanPoints(pts); len(clean) >= o.cfg.MinPoints {
				o.metrics.RecordFetch(string(models.SourceWarehouse), "ok")
				return o.series(asset.Symbol, days, interval, clean, models.SourceWarehouse)
			}
			o.metrics.RecordFetch(string(models.SourceWarehouse), "short")
		} else {
			o.metrics.RecordFetch(string(models.SourceWarehouse), "error")
			o.l.Warn("oracle.history warehouse_error", applogger.String("asset", asset.Symbol), applogger.Error(err))
		}
	}

	return o.fallback(asset.Symbol, days, interval)
}

func (o *PriceOracle) CrossPrice(ctx context.Context, base, quote string) (float64, bool) {
	p, _, ok := o.CrossQuote(ctx, base, quote)
	return p, ok
}

func (o *PriceOracle) CrossQuote(ctx context.Context, base, quote string) (float64, models.PriceSource, bool) {
	if o.isReference(quote) {
		return o.spot(ctx, base)
	}

	var (
		pa, pb float64
		src    models.PriceSource
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, s, ok := o.spot(gctx, base)
		if !ok {
			return fmt.Errorf("%s: %w", base, errLegUnavailable)
		}
		pa, src = p, s
		return nil
	})
	g.Go(func() error {
		p, _, ok := o.spot(gctx, quote)
		if !ok {
			return fmt.Errorf("%s: %w", quote, errLegUnavailable)
		}
		pb = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, "", false
	}
	return pa / max(pb, CrossEpsilon), src, true
}

func (o *PriceOracle) CrossHistory(ctx context.Context, base, quote string, days int) models.PriceSeries {
	if days <= 0 {
		days = o.cfg.DefaultDays
	}
	interval := o.cfg.DefaultInterval
	if o.isReference(quote) {
		return o.History(ctx, base, days, interval)
	}

	var a, b models.PriceSeries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a = o.History(gctx, base, days, interval)
		return nil
	})
	g.Go(func() error {
		b = o.History(gctx, quote, days, interval)
		return nil
	})
	_ = g.Wait()

	name := models.Pair{Base: base, Quote: quote}.String()
	if a.Fallback || b.Fallback {
		return o.fallback(name, days, interval)
	}

	n := min(len(a.Points), len(b.Points))
	ap := a.Points[len(a.Points)-n:]
	bp := b.Points[len(b.Points)-n:]
	pts := make([]models.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		pts = append(pts, models.PricePoint{
			Time:  ap[i].Time,
			Price: ap[i].Price / max(bp[i].Price, CrossEpsilon),
		})
	}
	pts = cleanPoints(pts)
	if len(pts) < o.cfg.MinPoints {
		return o.fallback(name, days, interval)
	}
	src := a.Source
	if b.Source != src {
		src = models.SourceProvider
	}
	return o.series(name, days, interval, pts, src)
}

func (o *PriceOracle) isReference(symbol string) bool {
	return strings.EqualFold(strings.TrimSpace(symbol), o.cfg.ReferenceAsset)
}

func (o *PriceOracle) series(name string, days int, interval models.Interval, pts []models.PricePoint, src models.PriceSource) models.PriceSeries {
	return models.PriceSeries{
		Asset:    name,
		Interval: interval,
		Days:     days,
		Points:   pts,
		Source:   src,
	}
}

func (o *PriceOracle) fallback(name string, days int, interval models.Interval) models.PriceSeries {
	o.metrics.RecordFetch(string(models.SourceFallback), "used")
	pts := make([]models.PricePoint, o.cfg.FallbackLength)
	for i := range pts {
		pts[i].Price = 1.0
	}
	return models.PriceSeries{
		Asset:    name,
		Interval: interval,
		Days:     days,
		Points:   pts,
		Source:   models.SourceFallback,
		Fallback: true,
	}
}

func (o *PriceOracle) put(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Set(ctx, key, v, ttl); err != nil {
		o.metrics.RecordError("cache_set")
		o.l.Debug("oracle.cache set_error", applogger.String("key", key), applogger.Error(err))
	}
}

func validPrice(p float64) bool {
	return util.IsFinite(p) && p > 0
}

// cleanPoints drops non-positive and non-finite samples.
func cleanPoints(pts []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(pts))
	for _, p := range pts {
		if validPrice(p.Price) {
			out = append(out, p)
		}
	}
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64) {}
