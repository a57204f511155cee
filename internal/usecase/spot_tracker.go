package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ClmmLens/internal/domain/models"
	drepo "ClmmLens/internal/domain/repository"
	icache "ClmmLens/internal/service/cache"
	applogger "ClmmLens/pkg/logger"
)

var ErrStreamDown = errors.New("spot stream disconnected")

// SpotTracker keeps the latest streamed price per asset. Prices older than
// staleAfter are never served.
type SpotTracker struct {
	stream      drepo.SpotStream
	metrics     drepo.Metrics
	prices      *icache.TTLCache[float64]
	minInterval time.Duration
	l           *applogger.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

var _ LiveSpot = (*SpotTracker)(nil)

func NewSpotTracker(stream drepo.SpotStream, metrics drepo.Metrics, staleAfter, minInterval time.Duration, l *applogger.Logger) *SpotTracker {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &SpotTracker{
		stream:      stream,
		metrics:     metrics,
		prices:      icache.NewTTLCache[float64](staleAfter),
		minInterval: minInterval,
		l:           l,
		lastSeen:    make(map[string]time.Time),
		now:         time.Now,
	}
}

// Start connects the stream and consumes ticks in the background until Stop
// or ctx cancellation.
func (t *SpotTracker) Start(ctx context.Context) error {
	if err := t.stream.Connect(ctx); err != nil {
		return err
	}
	if err := t.stream.Subscribe(ctx); err != nil {
		_ = t.stream.Close()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(runCtx)
	return nil
}

func (t *SpotTracker) run(ctx context.Context) {
	defer close(t.done)
	for {
		ticks, errs := t.stream.Read(ctx)
		t.consume(ctx, ticks, errs)
		if ctx.Err() != nil {
			return
		}
		t.metrics.RecordError("stream")
		for {
			err := t.stream.Reconnect(ctx)
			if err == nil {
				t.l.Info("spot_tracker.reconnected")
				break
			}
			if ctx.Err() != nil {
				return
			}
			t.l.Warn("spot_tracker.reconnect_failed", applogger.Error(err))
		}
	}
}

// consume returns when the stream ends or fails.
func (t *SpotTracker) consume(ctx context.Context, ticks <-chan models.SpotTick, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok && err != nil {
				t.l.Warn("spot_tracker.stream_error", applogger.Error(err))
				return
			}
			if !ok {
				errs = nil
			}
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			t.handle(tick)
		}
	}
}

// handle validates and throttles a tick. It reports whether the tick was stored.
func (t *SpotTracker) handle(tick models.SpotTick) bool {
	if !validPrice(tick.Price) || tick.Symbol == "" {
		return false
	}
	sym := strings.ToUpper(tick.Symbol)
	now := t.now()

	t.mu.Lock()
	if last, ok := t.lastSeen[sym]; ok && now.Sub(last) < t.minInterval {
		t.mu.Unlock()
		return false
	}
	t.lastSeen[sym] = now
	t.mu.Unlock()

	t.prices.Set(sym, tick.Price)
	t.metrics.RecordLastPrice(sym, tick.Price)
	return true
}

// Latest returns the last fresh price for symbol.
func (t *SpotTracker) Latest(symbol string) (float64, bool) {
	p, _, ok := t.prices.Get(strings.ToUpper(symbol))
	return p, ok
}

// Health fails while the stream socket is down. Spot reads still fall back
// to the provider then, so callers report it as degraded, not fatal.
func (t *SpotTracker) Health(context.Context) error {
	if !t.stream.IsConnected() {
		return ErrStreamDown
	}
	return nil
}

// Stop ends the consumer and closes the stream.
func (t *SpotTracker) Stop(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
		select {
		case <-t.done:
		case <-ctx.Done():
		}
	}
	return t.stream.Close()
}
