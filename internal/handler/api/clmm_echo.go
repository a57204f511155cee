package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ClmmLens/internal/domain/models"
	"ClmmLens/internal/domain/service"
	"ClmmLens/internal/service/metrics"
	"ClmmLens/internal/service/ratelimit"
	"ClmmLens/internal/services/clmm"
	"ClmmLens/internal/services/features"
	"ClmmLens/internal/usecase"
	xhttp "ClmmLens/pkg/http"
	xlogger "ClmmLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ClmmEchoHandler serves the liquidity analytics API.
type ClmmEchoHandler struct {
	logger   *xlogger.Logger
	oracle   service.PriceOracle
	calc     *usecase.Calculator
	planner  *usecase.RangePlanner
	analyzer *usecase.PositionAnalyzer
	limiter  *ratelimit.Limiter
}

// NewClmmEchoHandler builds the handler. A nil limiter disables per-client
// rate limiting.
func NewClmmEchoHandler(
	logger *xlogger.Logger,
	oracle service.PriceOracle,
	calc *usecase.Calculator,
	planner *usecase.RangePlanner,
	analyzer *usecase.PositionAnalyzer,
	limiter *ratelimit.Limiter,
) *ClmmEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ClmmEchoHandler{
		logger:   logger,
		oracle:   oracle,
		calc:     calc,
		planner:  planner,
		analyzer: analyzer,
		limiter:  limiter,
	}
}

func (h *ClmmEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/strategies", h.observe("strategies", h.Strategies))
	g.GET("/spot", h.observe("spot", h.Spot))
	g.GET("/history", h.observe("history", h.History))
	g.POST("/range/allocate", h.observe("allocate", h.Allocate))
	g.POST("/range/backtest", h.observe("backtest", h.Backtest))
	g.POST("/simulate", h.observe("simulate", h.Simulate))
	g.POST("/position", h.observe("position", h.Position))
	g.POST("/position/value", h.observe("value", h.Value))
	g.POST("/position/curve", h.observe("curve", h.Curve))
	g.POST("/plan", h.observe("plan", h.Plan))
	g.POST("/analysis", h.observe("analysis", h.Analysis))
}

func (h *ClmmEchoHandler) Strategies(c echo.Context) error {
	all := models.Strategies()
	out := make([]models.StrategyProfile, len(all))
	for i, s := range all {
		out[i] = s.Profile()
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, out)
}

// Spot always answers 200; availability is reported through ok.
func (h *ClmmEchoHandler) Spot(c echo.Context) error {
	req := &models.SpotRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "spot", errs)
	}
	pair := normalizePair(req.Base, req.Quote)
	if aerr := h.checkPair(pair); aerr != nil {
		return h.fail(c, "spot", aerr)
	}

	price, src, ok := h.oracle.CrossQuote(c.Request().Context(), pair.Base, pair.Quote)
	res := models.SpotResponse{Pair: pair, OK: ok}
	if ok {
		res.Price, res.Source = price, src
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ClmmEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "history", errs)
	}
	pair := normalizePair(req.Base, req.Quote)
	if aerr := h.checkPair(pair); aerr != nil {
		return h.fail(c, "history", aerr)
	}

	series := h.oracle.CrossHistory(c.Request().Context(), pair.Base, pair.Quote, req.Days)
	prices := series.Prices()
	return xhttp.SuccessResponse(c, models.HistoryResponse{
		Pair:   pair,
		Series: series,
		Volatility: models.VolatilityEstimate{
			Period:     features.PeriodVolatility(prices),
			Annualized: features.AnnualizedVolatility(prices),
			Samples:    len(prices),
		},
	})
}

func (h *ClmmEchoHandler) Allocate(c echo.Context) error {
	req := &models.AllocateRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "allocate", errs)
	}

	var (
		res models.RangeResult
		err error
	)
	if req.RatioA != nil {
		res, err = h.calc.AllocateCustom(req.Spot, *req.RatioA, req.RangePct, req.Invert, req.Capital)
	} else {
		var s models.Strategy
		if s, err = models.ParseStrategy(req.Strategy); err == nil {
			res, err = h.calc.AllocateRange(req.Spot, s, req.RangePct, req.Invert, req.Capital)
		}
	}
	if err != nil {
		return h.fail(c, "allocate", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ClmmEchoHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "backtest", errs)
	}
	res, err := h.calc.BacktestRange(req.Prices, req.Low, req.High)
	if err != nil {
		return h.fail(c, "backtest", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ClmmEchoHandler) Simulate(c echo.Context) error {
	req := &models.SimulateRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "simulate", errs)
	}
	p := usecase.SimulateParams{
		LastPrice:     req.LastPrice,
		AnnualizedVol: req.AnnualizedVol,
		HorizonDays:   req.HorizonDays,
		Paths:         req.Paths,
		Seed:          req.Seed,
	}
	if req.Lower != nil && req.Upper != nil {
		p.Lower, p.Upper = *req.Lower, *req.Upper
	}
	res, err := h.calc.SimulateForward(p)
	if err != nil {
		return h.fail(c, "simulate", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ClmmEchoHandler) Position(c echo.Context) error {
	req := &models.PositionRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "position", errs)
	}
	pos, err := h.calc.BuildPosition(req.DepositPrice, req.Lower, req.Upper, req.DepositUSD)
	if err != nil {
		return h.fail(c, "position", err)
	}
	return xhttp.SuccessResponse(c, pos)
}

func (h *ClmmEchoHandler) Value(c echo.Context) error {
	req := &models.ValueRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "value", errs)
	}
	pos, err := h.calc.BuildPosition(req.DepositPrice, req.Lower, req.Upper, req.DepositUSD)
	if err != nil {
		return h.fail(c, "value", err)
	}
	v, err := h.calc.ValueAt(pos, req.Price)
	if err != nil {
		return h.fail(c, "value", err)
	}
	return xhttp.SuccessResponse(c, models.ValueResponse{Position: pos, Value: v})
}

func (h *ClmmEchoHandler) Curve(c echo.Context) error {
	req := &models.CurveRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "curve", errs)
	}
	pos, err := h.calc.BuildPosition(req.DepositPrice, req.Lower, req.Upper, req.DepositUSD)
	if err != nil {
		return h.fail(c, "curve", err)
	}
	curve, err := h.calc.ILCurve(pos, req.GridLow, req.GridHigh, req.Points)
	if err != nil {
		return h.fail(c, "curve", err)
	}
	return xhttp.SuccessResponse(c, models.CurveResponse{Position: pos, Curve: curve})
}

func (h *ClmmEchoHandler) Plan(c echo.Context) error {
	req := &models.PlanRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "plan", errs)
	}
	s, err := models.ParseStrategy(req.Strategy)
	if err != nil {
		return h.fail(c, "plan", err)
	}

	report, err := h.planner.Plan(c.Request().Context(), usecase.PlanParams{
		Pair:        normalizePair(req.Base, req.Quote),
		Strategy:    s,
		Capital:     req.Capital,
		RangePct:    req.RangePct,
		Invert:      req.Invert,
		ManualSpot:  req.ManualSpot,
		HistoryDays: req.HistoryDays,
		HorizonDays: req.HorizonDays,
		Paths:       req.Paths,
		Seed:        req.Seed,
	})
	if err != nil {
		return h.fail(c, "plan", err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ClmmEchoHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if errs := xhttp.BindRequest(c, req); errs != nil {
		return h.invalid(c, "analysis", errs)
	}
	in := usecase.AnalysisParams{
		DepositPrice: req.DepositPrice,
		Lower:        req.Lower,
		Upper:        req.Upper,
		DepositUSD:   req.DepositUSD,
		CurrentPrice: req.CurrentPrice,
		GridLow:      req.GridLow,
		GridHigh:     req.GridHigh,
		Points:       req.Points,
	}
	if strings.TrimSpace(req.Base) != "" {
		pair := normalizePair(req.Base, req.Quote)
		in.Pair = &pair
	}

	report, err := h.analyzer.Analyze(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, "analysis", err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ClmmEchoHandler) observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}

func (h *ClmmEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil || h.limiter.Allow(c.RealIP()) {
			return next(c)
		}
		metrics.RateLimited.Inc()
		c.Response().Header().Set("Retry-After", "1")
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}
}

func (h *ClmmEchoHandler) checkPair(p models.Pair) *xhttp.AppError {
	for _, sym := range []string{p.Base, p.Quote} {
		if !h.oracle.KnowsAsset(sym) {
			return xhttp.UnknownAssetError(sym)
		}
	}
	return nil
}

func (h *ClmmEchoHandler) invalid(c echo.Context, endpoint string, errs []*xhttp.AppError) error {
	metrics.APIErrors.WithLabelValues(endpoint, errs[0].Code).Inc()
	return xhttp.BadRequestResponse(c, errs)
}

// fail maps usecase and domain errors onto AppErrors.
func (h *ClmmEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(endpoint, err)
	metrics.APIErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(endpoint+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

var badInput = []error{
	clmm.ErrInvalidRange,
	clmm.ErrInvalidPrice,
	clmm.ErrInvalidDeposit,
	clmm.ErrInvalidGrid,
	clmm.ErrInvalidSpot,
	clmm.ErrInvalidRangePct,
	clmm.ErrInvalidRatio,
	models.ErrUnknownStrategy,
	usecase.ErrInvalidVolatility,
	usecase.ErrInvalidHorizon,
	usecase.ErrInvalidPaths,
}

func toAppError(endpoint string, err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, usecase.ErrUnknownAsset):
		return xhttp.NewAppError(xhttp.CodeUnknownAsset, "", err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrSpotUnavailable):
		e := xhttp.DataUnavailableError(err.Error())
		switch endpoint {
		case "plan":
			e.WithParam("retry_with", "manual_spot")
		case "analysis":
			e.WithParam("retry_with", "current_price")
		}
		return e
	}
	for _, target := range badInput {
		if errors.Is(err, target) {
			return xhttp.BadRequestError(err.Error()).WithError(err)
		}
	}
	return xhttp.InternalError("Something went wrong").WithError(err)
}

func normalizePair(base, quote string) models.Pair {
	return models.Pair{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
}
