package usecase

import (
	"context"
	"fmt"
	"time"

	"ClmmLens/internal/domain/models"
	drepo "ClmmLens/internal/domain/repository"
	"ClmmLens/internal/domain/service"
	"ClmmLens/internal/services/features"
	applogger "ClmmLens/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type PlanParams struct {
	Pair        models.Pair
	Strategy    models.Strategy
	Capital     float64
	RangePct    float64
	Invert      bool
	ManualSpot  *float64
	HistoryDays int
	HorizonDays int
	Paths       int
	Seed        *uint64
}

// RangePlanner runs the full allocate, backtest and simulate flow for a pair.
type RangePlanner struct {
	oracle service.PriceOracle
	calc   *Calculator
	pub    drepo.ReportPublisher
	l      *applogger.Logger
	now    func() time.Time
}

func NewRangePlanner(oracle service.PriceOracle, calc *Calculator, pub drepo.ReportPublisher, l *applogger.Logger) *RangePlanner {
	if l == nil {
		l = applogger.Nop()
	}
	return &RangePlanner{oracle: oracle, calc: calc, pub: pub, l: l, now: time.Now}
}

func (p *RangePlanner) Plan(ctx context.Context, in PlanParams) (*models.RangeReport, error) {
	for _, sym := range []string{in.Pair.Base, in.Pair.Quote} {
		if !p.oracle.KnowsAsset(sym) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, sym)
		}
	}

	var (
		spot    float64
		src     models.PriceSource
		spotOK  bool
		history models.PriceSeries
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if in.ManualSpot != nil {
			spot, src, spotOK = *in.ManualSpot, models.SourceManual, true
			return nil
		}
		spot, src, spotOK = p.oracle.CrossQuote(gctx, in.Pair.Base, in.Pair.Quote)
		return nil
	})
	g.Go(func() error {
		history = p.oracle.CrossHistory(gctx, in.Pair.Base, in.Pair.Quote, in.HistoryDays)
		return nil
	})
	_ = g.Wait()

	if !spotOK {
		return nil, fmt.Errorf("%w: %s", ErrSpotUnavailable, in.Pair)
	}

	rng, err := p.calc.AllocateRange(spot, in.Strategy, in.RangePct, in.Invert, in.Capital)
	if err != nil {
		return nil, err
	}
	lower, upper := rng.Bounds()

	prices := features.CleanSeries(history.Prices())
	backtest, err := p.calc.BacktestRange(prices, lower, upper)
	if err != nil {
		return nil, err
	}

	annual := features.AnnualizedVolatility(prices)
	sim, err := p.calc.SimulateForward(SimulateParams{
		LastPrice:     spot,
		AnnualizedVol: annual,
		HorizonDays:   in.HorizonDays,
		Paths:         in.Paths,
		Seed:          in.Seed,
		Lower:         lower,
		Upper:         upper,
	})
	if err != nil {
		return nil, err
	}

	report := &models.RangeReport{
		ID:         uuid.NewString(),
		Pair:       in.Pair,
		Strategy:   in.Strategy.Profile(),
		Capital:    in.Capital,
		Spot:       spot,
		SpotSource: src,
		Range:      rng,
		Volatility: models.VolatilityEstimate{
			Period:     features.PeriodVolatility(prices),
			Annualized: annual,
			Samples:    len(prices),
		},
		History: models.HistorySummary{
			Source:   history.Source,
			Fallback: history.Fallback,
			Samples:  history.Len(),
			Days:     history.Days,
		},
		Backtest:   backtest,
		Simulation: sim,
		CreatedAt:  p.now().UTC(),
	}

	if history.Fallback {
		p.l.Warn("planner.history_fallback", applogger.String("pair", in.Pair.String()))
	}
	publish(ctx, p.pub, p.l, models.ReportRangePlan, report.ID, report.CreatedAt, report)
	return report, nil
}

// publish emits a report event. Failures are logged and never returned.
func publish(ctx context.Context, pub drepo.ReportPublisher, l *applogger.Logger, kind models.ReportKind, id string, at time.Time, payload interface{}) {
	if pub == nil {
		return
	}
	ev := models.ReportEvent{ID: id, Kind: kind, CreatedAt: at, Payload: payload}
	if err := pub.PublishReport(ctx, ev); err != nil {
		l.Error("report.publish failed",
			applogger.String("kind", string(kind)),
			applogger.String("id", id),
			applogger.Error(err),
		)
	}
}
