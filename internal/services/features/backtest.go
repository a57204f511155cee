package features

import "ClmmLens/internal/domain/models"

// CountOutOfRange counts samples strictly below low or strictly above high.
func CountOutOfRange(prices []float64, low, high float64) int {
	n := 0
	for _, p := range prices {
		if p < low || p > high {
			n++
		}
	}
	return n
}

// Backtest reports how a series sat relative to [low, high].
func Backtest(prices []float64, low, high float64) models.BacktestResult {
	res := models.BacktestResult{Samples: len(prices)}
	streak := 0
	for _, p := range prices {
		switch {
		case p < low:
			res.Below++
			streak++
		case p > high:
			res.Above++
			streak++
		default:
			streak = 0
		}
		if streak > res.LongestStreak {
			res.LongestStreak = streak
		}
	}
	res.OutOfRange = res.Below + res.Above
	if res.Samples > 0 {
		res.ExitRatio = float64(res.OutOfRange) / float64(res.Samples)
	}
	return res
}
