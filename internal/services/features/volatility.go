// Package features derives statistics from price series: returns,
// volatility and range excursions.
package features

import (
	"math"

	"ClmmLens/pkg/util"
)

// DaysPerYear is the annualization base for daily series.
const DaysPerYear = 365

// CleanSeries drops non-positive and non-finite samples.
func CleanSeries(prices []float64) []float64 {
	out := make([]float64, 0, len(prices))
	for _, p := range prices {
		if util.IsFinite(p) && p > 0 {
			out = append(out, p)
		}
	}
	return out
}

// SimpleReturns computes r_t = (P_t − P_{t−1}) / P_{t−1}.
// Pairs with a non-positive predecessor or a non-finite result are skipped.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev <= 0 {
			continue
		}
		r := (prices[i] - prev) / prev
		if !util.IsFinite(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// StdDev returns the sample standard deviation (n−1). Fewer than two values give 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	n := float64(len(values))
	mean := sum / n
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	variance := ss / (n - 1)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// PeriodVolatility is the per-sample volatility: stddev of simple returns.
func PeriodVolatility(prices []float64) float64 {
	return StdDev(SimpleReturns(prices))
}

// AnnualizedVolatility is PeriodVolatility scaled by √365 for daily samples.
func AnnualizedVolatility(prices []float64) float64 {
	return Annualize(PeriodVolatility(prices), DaysPerYear)
}

// Annualize scales a per-period volatility to a yearly figure.
func Annualize(periodVol, periodsPerYear float64) float64 {
	return periodVol * math.Sqrt(periodsPerYear)
}

// Deannualize converts a yearly volatility into a per-day step volatility.
func Deannualize(annualVol float64) float64 {
	if !util.IsFinite(annualVol) || annualVol <= 0 {
		return 0
	}
	return annualVol / math.Sqrt(DaysPerYear)
}
