package models

// Response payloads for the HTTP API.

type SpotResponse struct {
	Pair   Pair        `json:"pair"`
	Price  float64     `json:"price"`
	Source PriceSource `json:"source,omitempty"`
	OK     bool        `json:"ok"`
}

type HistoryResponse struct {
	Pair       Pair               `json:"pair"`
	Series     PriceSeries        `json:"series"`
	Volatility VolatilityEstimate `json:"volatility"`
}

type ValueResponse struct {
	Position LiquidityPosition `json:"position"`
	Value    PositionValue     `json:"value"`
}

type CurveResponse struct {
	Position LiquidityPosition `json:"position"`
	Curve    []CurvePoint      `json:"curve"`
}
