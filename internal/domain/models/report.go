package models

import "time"

// ReportKind tags published report events.
type ReportKind string

const (
	ReportRangePlan        ReportKind = "range_plan"
	ReportPositionAnalysis ReportKind = "position_analysis"
)

type VolatilityEstimate struct {
	Period     float64 `json:"period"`
	Annualized float64 `json:"annualized"`
	Samples    int     `json:"samples"`
}

type HistorySummary struct {
	Source   PriceSource `json:"source"`
	Fallback bool        `json:"fallback"`
	Samples  int         `json:"samples"`
	Days     int         `json:"days"`
}

type SimulationResult struct {
	HorizonDays   int             `json:"horizon_days"`
	AnnualizedVol float64         `json:"annualized_vol"`
	StepVol       float64         `json:"step_vol"`
	Path          []float64       `json:"path"`
	OutOfRange    int             `json:"out_of_range"`
	Seed          *uint64         `json:"seed,omitempty"`
	Ensemble      *EnsembleResult `json:"ensemble,omitempty"`
}

// RangeReport is the result of a full range plan for a pair.
type RangeReport struct {
	ID         string             `json:"id"`
	Pair       Pair               `json:"pair"`
	Strategy   StrategyProfile    `json:"strategy"`
	Capital    float64            `json:"capital"`
	Spot       float64            `json:"spot"`
	SpotSource PriceSource        `json:"spot_source"`
	Range      RangeResult        `json:"range"`
	Volatility VolatilityEstimate `json:"volatility"`
	History    HistorySummary     `json:"history"`
	Backtest   BacktestResult     `json:"backtest"`
	Simulation SimulationResult   `json:"simulation"`
	CreatedAt  time.Time          `json:"created_at"`
}

// PositionReport is the result of an impermanent-loss analysis.
type PositionReport struct {
	ID          string            `json:"id"`
	Pair        *Pair             `json:"pair,omitempty"`
	Position    LiquidityPosition `json:"position"`
	PriceSource PriceSource       `json:"price_source"`
	Now         PositionValue     `json:"now"`
	Curve       []CurvePoint      `json:"curve"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ReportEvent is the envelope published to the report stream.
type ReportEvent struct {
	ID        string      `json:"id"`
	Kind      ReportKind  `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	Payload   interface{} `json:"payload"`
}
