package models

// Requests for the HTTP API. default: tags only fill fields the client
// omitted; an explicit zero is bound as sent.

type SpotRequest struct {
	Base  string `query:"base" json:"base" validate:"required,alphanum,max=16"`
	Quote string `query:"quote" json:"quote" default:"USDC" validate:"required,alphanum,max=16"`
}

type HistoryRequest struct {
	Base  string `query:"base" json:"base" validate:"required,alphanum,max=16"`
	Quote string `query:"quote" json:"quote" default:"USDC" validate:"required,alphanum,max=16"`
	Days  int    `query:"days" json:"days" default:"30" validate:"gte=2,lte=365"`
}

type AllocateRequest struct {
	Spot     float64  `json:"spot" validate:"gt=0"`
	Strategy string   `json:"strategy" default:"neutral" validate:"oneof=neutral bullish bearish defensive"`
	RatioA   *float64 `json:"ratio_a,omitempty" validate:"omitempty,gte=0,lte=1"`
	RangePct float64  `json:"range_pct" default:"20" validate:"gt=0"`
	Invert   bool     `json:"invert"`
	Capital  float64  `json:"capital" default:"1000" validate:"gte=0"`
}

type BacktestRequest struct {
	Prices []float64 `json:"prices" validate:"required"`
	Low    float64   `json:"low" validate:"gt=0"`
	High   float64   `json:"high" validate:"gt=0"`
}

type SimulateRequest struct {
	LastPrice     float64  `json:"last_price" validate:"gt=0"`
	AnnualizedVol float64  `json:"annualized_vol" validate:"gte=0"`
	HorizonDays   int      `json:"horizon_days" default:"30" validate:"gte=0,lte=3650"`
	Paths         int      `json:"paths" validate:"gte=0,lte=10000"`
	Seed          *uint64  `json:"seed,omitempty"`
	Lower         *float64 `json:"lower,omitempty" validate:"omitempty,gt=0"`
	Upper         *float64 `json:"upper,omitempty" validate:"omitempty,gt=0"`
}

// PositionRequest is checked by clmm.BuildPosition, which reports bad bounds
// as an invalid range before any square roots are taken.
type PositionRequest struct {
	DepositPrice float64 `json:"deposit_price" default:"3000"`
	Lower        float64 `json:"lower" default:"2800"`
	Upper        float64 `json:"upper" default:"3500"`
	DepositUSD   float64 `json:"deposit_usd" default:"500"`
}

type ValueRequest struct {
	PositionRequest
	Price float64 `json:"price" validate:"gt=0"`
}

type CurveRequest struct {
	PositionRequest
	GridLow  float64 `json:"grid_low" validate:"gte=0"`
	GridHigh float64 `json:"grid_high" validate:"gte=0"`
	Points   int     `json:"points" default:"400" validate:"gte=2,lte=5000"`
}

type PlanRequest struct {
	Base        string   `json:"base" validate:"required,alphanum,max=16"`
	Quote       string   `json:"quote" default:"USDC" validate:"required,alphanum,max=16"`
	Strategy    string   `json:"strategy" default:"neutral" validate:"oneof=neutral bullish bearish defensive"`
	Capital     float64  `json:"capital" default:"1000" validate:"gte=0"`
	RangePct    float64  `json:"range_pct" default:"20" validate:"gt=0"`
	Invert      bool     `json:"invert"`
	ManualSpot  *float64 `json:"manual_spot,omitempty" validate:"omitempty,gt=0"`
	HistoryDays int      `json:"history_days" default:"30" validate:"gte=2,lte=365"`
	HorizonDays int      `json:"horizon_days" default:"30" validate:"gte=0,lte=3650"`
	Paths       int      `json:"paths" validate:"gte=0,lte=10000"`
	Seed        *uint64  `json:"seed,omitempty"`
}

type AnalysisRequest struct {
	PositionRequest
	CurrentPrice *float64 `json:"current_price,omitempty" validate:"omitempty,gt=0"`
	Base         string   `json:"base,omitempty"`
	Quote        string   `json:"quote,omitempty" default:"USDC"`
	GridLow      float64  `json:"grid_low" validate:"gte=0"`
	GridHigh     float64  `json:"grid_high" validate:"gte=0"`
	Points       int      `json:"points" default:"400" validate:"gte=2,lte=5000"`
}
