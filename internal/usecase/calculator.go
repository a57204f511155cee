package usecase

import (
	"fmt"
	"math"

	"ClmmLens/internal/domain/models"
	"ClmmLens/internal/services/clmm"
	"ClmmLens/internal/services/features"
	"ClmmLens/internal/services/simulation"
	"ClmmLens/pkg/util"
)

const (
	MaxHorizonDays = 3650
	MaxPaths       = 10000
)

// SimulateParams describes a forward simulation. Lower and Upper are
// optional; zero means no range.
type SimulateParams struct {
	LastPrice     float64
	AnnualizedVol float64
	HorizonDays   int
	Paths         int
	Seed          *uint64
	Lower         float64
	Upper         float64
}

// Calculator exposes the stateless computation entry points.
type Calculator struct {
	sim        *simulation.Simulator
	maxPaths   int
	maxHorizon int
}

type CalculatorOption func(*Calculator)

// WithLimits lowers the simulation caps. Values outside (0, default] are ignored.
func WithLimits(maxPaths, maxHorizon int) CalculatorOption {
	return func(c *Calculator) {
		if maxPaths > 0 && maxPaths < c.maxPaths {
			c.maxPaths = maxPaths
		}
		if maxHorizon > 0 && maxHorizon < c.maxHorizon {
			c.maxHorizon = maxHorizon
		}
	}
}

func NewCalculator(sim *simulation.Simulator, opts ...CalculatorOption) *Calculator {
	if sim == nil {
		sim = simulation.New()
	}
	c := &Calculator{sim: sim, maxPaths: MaxPaths, maxHorizon: MaxHorizonDays}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) AllocateRange(spot float64, s models.Strategy, rangePct float64, invert bool, capital float64) (models.RangeResult, error) {
	return clmm.AllocateStrategy(spot, s, rangePct, invert, capital)
}

// AllocateCustom allocates with an explicit ratio for asset A.
func (c *Calculator) AllocateCustom(spot, ratioA, rangePct float64, invert bool, capital float64) (models.RangeResult, error) {
	return clmm.Allocate(spot, ratioA, 1-ratioA, rangePct, invert, capital)
}

// BacktestRange counts how the cleaned series sat against [low, high].
// Inverted bounds are reordered.
func (c *Calculator) BacktestRange(prices []float64, low, high float64) (models.BacktestResult, error) {
	if !util.IsFinite(low) || !util.IsFinite(high) || low <= 0 || high <= 0 {
		return models.BacktestResult{}, fmt.Errorf("%w: [%v, %v]", clmm.ErrInvalidRange, low, high)
	}
	if low > high {
		low, high = high, low
	}
	return features.Backtest(features.CleanSeries(prices), low, high), nil
}

// SimulateForward de-annualizes the volatility and draws one path, plus an
// ensemble when Paths > 0.
func (c *Calculator) SimulateForward(p SimulateParams) (models.SimulationResult, error) {
	if !util.IsFinite(p.LastPrice) || p.LastPrice <= 0 {
		return models.SimulationResult{}, fmt.Errorf("%w: %v", clmm.ErrInvalidPrice, p.LastPrice)
	}
	if !util.IsFinite(p.AnnualizedVol) || p.AnnualizedVol < 0 {
		return models.SimulationResult{}, fmt.Errorf("%w: %v", ErrInvalidVolatility, p.AnnualizedVol)
	}
	if p.HorizonDays < 0 || p.HorizonDays > c.maxHorizon {
		return models.SimulationResult{}, fmt.Errorf("%w: %d", ErrInvalidHorizon, p.HorizonDays)
	}
	if p.Paths < 0 || p.Paths > c.maxPaths {
		return models.SimulationResult{}, fmt.Errorf("%w: %d", ErrInvalidPaths, p.Paths)
	}
	lower, upper, hasRange := p.Lower, p.Upper, p.Lower > 0 && p.Upper > 0
	if hasRange && lower > upper {
		lower, upper = upper, lower
	}

	sim := c.sim
	if p.Seed != nil {
		sim = simulation.New(simulation.WithSeed(*p.Seed))
	}

	step := features.Deannualize(p.AnnualizedVol)
	res := models.SimulationResult{
		HorizonDays:   p.HorizonDays,
		AnnualizedVol: p.AnnualizedVol,
		StepVol:       step,
		Path:          sim.Path(p.LastPrice, step, p.HorizonDays),
		Seed:          p.Seed,
	}
	if hasRange {
		res.OutOfRange = features.CountOutOfRange(res.Path, lower, upper)
	}
	if p.Paths > 0 {
		if !hasRange {
			lower, upper = 0, math.Inf(1)
		}
		ens := sim.Ensemble(p.LastPrice, step, p.HorizonDays, p.Paths, lower, upper)
		res.Ensemble = &ens
	}
	return res, nil
}

func (c *Calculator) BuildPosition(depositPrice, lower, upper, depositUSD float64) (models.LiquidityPosition, error) {
	return clmm.BuildPosition(depositPrice, lower, upper, depositUSD)
}

func (c *Calculator) ValueAt(pos models.LiquidityPosition, price float64) (models.PositionValue, error) {
	return clmm.ValueAt(pos, price)
}

// ILCurve samples IL over [gridLow, gridHigh]. Zero bounds select the
// default grid and n == 0 the default point count.
func (c *Calculator) ILCurve(pos models.LiquidityPosition, gridLow, gridHigh float64, n int) ([]models.CurvePoint, error) {
	if gridLow == 0 && gridHigh == 0 {
		gridLow, gridHigh = clmm.DefaultGrid(pos)
	}
	if n == 0 {
		n = clmm.DefaultCurvePoints
	}
	return clmm.Curve(pos, gridLow, gridHigh, n)
}
