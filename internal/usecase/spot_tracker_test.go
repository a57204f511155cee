package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ClmmLens/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	mu         sync.Mutex
	reads      int
	ticks      chan models.SpotTick
	errs       chan error
	reconnects atomic.Int32
	closed     atomic.Bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{ticks: make(chan models.SpotTick, 8), errs: make(chan error, 1)}
}

func (f *fakeStream) Connect(context.Context) error { return nil }
func (f *fakeStream) Subscribe(context.Context) error { return nil }

func (f *fakeStream) Read(context.Context) (<-chan models.SpotTick, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.ticks, f.errs
}

func (f *fakeStream) Reconnect(context.Context) error {
	f.reconnects.Add(1)
	return nil
}

func (f *fakeStream) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeStream) IsConnected() bool { return !f.closed.Load() }

func TestTrackerHandleValidatesAndThrottles(t *testing.T) {
	tr := NewSpotTracker(newFakeStream(), nil, time.Minute, time.Second, nil)
	now := time.Unix(1000, 0)
	tr.now = func() time.Time { return now }

	assert.False(t, tr.handle(models.SpotTick{Symbol: "ETH", Price: 0}))
	assert.False(t, tr.handle(models.SpotTick{Symbol: "ETH", Price: math.NaN()}))
	assert.False(t, tr.handle(models.SpotTick{Symbol: "", Price: 1}))

	assert.True(t, tr.handle(models.SpotTick{Symbol: "eth", Price: 3000}))
	assert.False(t, tr.handle(models.SpotTick{Symbol: "ETH", Price: 3001}))

	now = now.Add(time.Second)
	assert.True(t, tr.handle(models.SpotTick{Symbol: "ETH", Price: 3002}))

	p, ok := tr.Latest("eth")
	require.True(t, ok)
	assert.Equal(t, 3002.0, p)
}

func TestTrackerNeverServesStalePrice(t *testing.T) {
	tr := NewSpotTracker(newFakeStream(), nil, 20*time.Millisecond, 0, nil)
	require.True(t, tr.handle(models.SpotTick{Symbol: "ETH", Price: 3000}))
	time.Sleep(40 * time.Millisecond)
	_, ok := tr.Latest("ETH")
	assert.False(t, ok)
}

func TestTrackerConsumesAndReconnects(t *testing.T) {
	fs := newFakeStream()
	tr := NewSpotTracker(fs, nil, time.Minute, 0, nil)
	require.NoError(t, tr.Start(context.Background()))

	fs.ticks <- models.SpotTick{Symbol: "ETH", Price: 2999}
	require.Eventually(t, func() bool {
		_, ok := tr.Latest("ETH")
		return ok
	}, time.Second, 5*time.Millisecond)

	fs.errs <- errors.New("socket closed")
	require.Eventually(t, func() bool { return fs.reconnects.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Stop(ctx))
	assert.True(t, fs.closed.Load())
}

func TestTrackerHealthFollowsStream(t *testing.T) {
	fs := newFakeStream()
	tr := NewSpotTracker(fs, nil, time.Minute, 0, nil)
	require.NoError(t, tr.Health(context.Background()))

	require.NoError(t, fs.Close())
	assert.ErrorIs(t, tr.Health(context.Background()), ErrStreamDown)
}
