package models

import (
	"strings"
	"time"
)

// Asset maps a user-facing symbol to provider-specific identifiers.
type Asset struct {
	Symbol       string `json:"symbol" yaml:"-"`
	ProviderID   string `json:"provider_id" yaml:"id"`
	StreamSymbol string `json:"stream_symbol,omitempty" yaml:"stream_symbol"`
}

// AssetRegistry resolves symbols case-insensitively.
type AssetRegistry map[string]Asset

// NewAssetRegistry builds a registry keyed by upper-cased symbol.
func NewAssetRegistry(assets map[string]Asset) AssetRegistry {
	r := make(AssetRegistry, len(assets))
	for sym, a := range assets {
		key := strings.ToUpper(strings.TrimSpace(sym))
		a.Symbol = key
		r[key] = a
	}
	return r
}

// Lookup returns the asset for symbol.
func (r AssetRegistry) Lookup(symbol string) (Asset, bool) {
	a, ok := r[strings.ToUpper(strings.TrimSpace(symbol))]
	return a, ok
}

// ByStreamSymbol returns a stream-symbol -> asset-symbol index.
func (r AssetRegistry) ByStreamSymbol() map[string]string {
	out := make(map[string]string, len(r))
	for sym, a := range r {
		if a.StreamSymbol != "" {
			out[a.StreamSymbol] = sym
		}
	}
	return out
}

// StreamSymbols lists the stream symbols of every asset that has one.
func (r AssetRegistry) StreamSymbols() []string {
	out := make([]string, 0, len(r))
	for _, a := range r {
		if a.StreamSymbol != "" {
			out = append(out, a.StreamSymbol)
		}
	}
	return out
}

// Pair is a base/quote trading pair. Prices are quote units per base unit.
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

func (p Pair) String() string {
	return strings.ToUpper(p.Base) + "/" + strings.ToUpper(p.Quote)
}

// PricePoint is a single positive price sample.
type PricePoint struct {
	Time  time.Time `json:"time,omitempty"`
	Price float64   `json:"price"`
}

// SpotTick is a live trade price for an asset.
type SpotTick struct {
	Symbol string
	Price  float64
	Time   time.Time
}
