package models

// PriceSource tells where a price series came from.
type PriceSource string

const (
	SourceCache     PriceSource = "cache"
	SourceProvider  PriceSource = "provider"
	SourceWarehouse PriceSource = "warehouse"
	SourceFallback  PriceSource = "fallback"
	SourceManual    PriceSource = "manual"
	SourceStream    PriceSource = "stream"
)

// PriceSeries is a cleaned history for one asset or a cross pair.
// Fallback series are constant placeholders used when no data is available.
type PriceSeries struct {
	Asset    string       `json:"asset"`
	Interval Interval     `json:"interval"`
	Days     int          `json:"days"`
	Points   []PricePoint `json:"points"`
	Source   PriceSource  `json:"source"`
	Fallback bool         `json:"fallback"`
}

// Prices returns the raw price values in order.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Len returns the number of samples.
func (s PriceSeries) Len() int { return len(s.Points) }
