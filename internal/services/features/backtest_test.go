package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountOutOfRangeBounds(t *testing.T) {
	s := []float64{80, 95, 100, 105, 120, 130, 90}
	n := CountOutOfRange(s, 90, 110)
	assert.Equal(t, 3, n)
	assert.GreaterOrEqual(t, n, 0)
	assert.LessOrEqual(t, n, len(s))
}

func TestCountOutOfRangeMonotoneInWidth(t *testing.T) {
	s := []float64{80, 95, 100, 105, 120, 130, 90, 101, 99}
	prev := -1
	for w := 60.0; w >= 0; w -= 5 {
		n := CountOutOfRange(s, 100-w, 100+w)
		assert.GreaterOrEqual(t, n, prev, "width %v", w)
		prev = n
	}
}

func TestBacktest(t *testing.T) {
	res := Backtest([]float64{80, 85, 100, 120, 125, 130, 100}, 90, 110)
	assert.Equal(t, 7, res.Samples)
	assert.Equal(t, 2, res.Below)
	assert.Equal(t, 3, res.Above)
	assert.Equal(t, 5, res.OutOfRange)
	assert.Equal(t, 3, res.LongestStreak)
	assert.InDelta(t, 5.0/7.0, res.ExitRatio, 1e-12)

	empty := Backtest(nil, 1, 2)
	assert.Equal(t, 0, empty.Samples)
	assert.Equal(t, 0.0, empty.ExitRatio)
}
