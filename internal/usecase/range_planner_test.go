package usecase

import (
	"context"
	"testing"

	"ClmmLens/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planParams(base, quote string) PlanParams {
	return PlanParams{
		Pair:        models.Pair{Base: base, Quote: quote},
		Strategy:    models.StrategyNeutral,
		Capital:     1000,
		RangePct:    20,
		HistoryDays: 30,
		HorizonDays: 30,
		Seed:        u64(7),
	}
}

func TestPlanUsesOracleSpotAndHistory(t *testing.T) {
	m := &fakeMarket{
		spots:   map[string]float64{"ETH": 3000},
		history: map[string][]float64{"ETH": {2900, 3000, 3100, 3600, 3050}},
	}
	pub := &fakePublisher{}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), pub, nil)

	r, err := p.Plan(context.Background(), planParams("ETH", "USDC"))
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 3000.0, r.Spot)
	assert.Equal(t, models.SourceProvider, r.SpotSource)
	assert.InDelta(t, 2700, r.Range.Low, 1e-9)
	assert.InDelta(t, 3300, r.Range.High, 1e-9)
	assert.False(t, r.History.Fallback)
	assert.Equal(t, 5, r.Volatility.Samples)
	assert.Greater(t, r.Volatility.Annualized, 0.0)
	assert.Equal(t, 1, r.Backtest.OutOfRange)
	assert.Len(t, r.Simulation.Path, 31)

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.ReportRangePlan, pub.events[0].Kind)
	assert.Equal(t, r.ID, pub.events[0].ID)
}

func TestPlanWithoutSpotIsUnavailable(t *testing.T) {
	m := &fakeMarket{spotErr: errProvider, historyErr: errProvider}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), &fakePublisher{}, nil)

	_, err := p.Plan(context.Background(), planParams("ETH", "USDC"))
	assert.ErrorIs(t, err, ErrSpotUnavailable)
}

func TestPlanManualSpotFallsBackOnHistory(t *testing.T) {
	m := &fakeMarket{spotErr: errProvider, historyErr: errProvider}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), nil, nil)

	in := planParams("ETH", "USDC")
	spot := 2500.0
	in.ManualSpot = &spot
	r, err := p.Plan(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, r.SpotSource)
	assert.True(t, r.History.Fallback)
	assert.Zero(t, r.Volatility.Annualized)
	assert.Zero(t, m.spotCalls.Load())
}

func TestPlanInvertedRangeKeepsOrderedBacktest(t *testing.T) {
	m := &fakeMarket{
		spots:   map[string]float64{"ETH": 3000},
		history: map[string][]float64{"ETH": {2900, 3000, 3100, 3600, 3050}},
	}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), nil, nil)

	in := planParams("ETH", "USDC")
	in.Invert = true
	r, err := p.Plan(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, r.Range.Inverted)
	assert.Greater(t, r.Range.Low, r.Range.High)
	assert.Equal(t, 1, r.Backtest.OutOfRange)
}

func TestPlanCrossPair(t *testing.T) {
	m := &fakeMarket{
		spots: map[string]float64{"SOL": 150, "ETH": 3000},
		history: map[string][]float64{
			"SOL": {140, 150, 160},
			"ETH": {2800, 3000, 3200},
		},
	}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), nil, nil)

	r, err := p.Plan(context.Background(), planParams("SOL", "ETH"))
	require.NoError(t, err)
	assert.InDelta(t, 0.05, r.Spot, 1e-12)
	assert.Equal(t, 3, r.History.Samples)
}

func TestPlanRejectsUnknownAsset(t *testing.T) {
	m := &fakeMarket{}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), nil, nil)

	_, err := p.Plan(context.Background(), planParams("DOGE", "USDC"))
	assert.ErrorIs(t, err, ErrUnknownAsset)
	assert.Zero(t, m.spotCalls.Load())
}

func TestPlanPublishFailureIsNotReturned(t *testing.T) {
	m := &fakeMarket{spots: map[string]float64{"ETH": 3000}}
	pub := &fakePublisher{err: errProvider}
	p := NewRangePlanner(newTestOracle(m, nil, nil), NewCalculator(nil), pub, nil)

	_, err := p.Plan(context.Background(), planParams("ETH", "USDC"))
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}
