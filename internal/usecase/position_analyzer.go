package usecase

import (
	"context"
	"fmt"
	"time"

	"ClmmLens/internal/domain/models"
	drepo "ClmmLens/internal/domain/repository"
	"ClmmLens/internal/domain/service"
	applogger "ClmmLens/pkg/logger"

	"github.com/google/uuid"
)

type AnalysisParams struct {
	DepositPrice float64
	Lower        float64
	Upper        float64
	DepositUSD   float64
	CurrentPrice *float64
	Pair         *models.Pair
	GridLow      float64
	GridHigh     float64
	Points       int
}

// PositionAnalyzer values an existing position now and across the IL curve.
type PositionAnalyzer struct {
	oracle service.PriceOracle
	calc   *Calculator
	pub    drepo.ReportPublisher
	l      *applogger.Logger
	now    func() time.Time
}

func NewPositionAnalyzer(oracle service.PriceOracle, calc *Calculator, pub drepo.ReportPublisher, l *applogger.Logger) *PositionAnalyzer {
	if l == nil {
		l = applogger.Nop()
	}
	return &PositionAnalyzer{oracle: oracle, calc: calc, pub: pub, l: l, now: time.Now}
}

func (a *PositionAnalyzer) Analyze(ctx context.Context, in AnalysisParams) (*models.PositionReport, error) {
	pos, err := a.calc.BuildPosition(in.DepositPrice, in.Lower, in.Upper, in.DepositUSD)
	if err != nil {
		return nil, err
	}

	var (
		price float64
		src   models.PriceSource
	)
	switch {
	case in.CurrentPrice != nil:
		price, src = *in.CurrentPrice, models.SourceManual
	case in.Pair != nil:
		for _, sym := range []string{in.Pair.Base, in.Pair.Quote} {
			if !a.oracle.KnowsAsset(sym) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, sym)
			}
		}
		var ok bool
		price, src, ok = a.oracle.CrossQuote(ctx, in.Pair.Base, in.Pair.Quote)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSpotUnavailable, in.Pair)
		}
	default:
		return nil, fmt.Errorf("%w: no current price or pair given", ErrSpotUnavailable)
	}

	now, err := a.calc.ValueAt(pos, price)
	if err != nil {
		return nil, err
	}
	curve, err := a.calc.ILCurve(pos, in.GridLow, in.GridHigh, in.Points)
	if err != nil {
		return nil, err
	}

	report := &models.PositionReport{
		ID:          uuid.NewString(),
		Pair:        in.Pair,
		Position:    pos,
		PriceSource: src,
		Now:         now,
		Curve:       curve,
		CreatedAt:   a.now().UTC(),
	}
	publish(ctx, a.pub, a.l, models.ReportPositionAnalysis, report.ID, report.CreatedAt, report)
	return report, nil
}
