package clmm

import (
	"testing"

	"ClmmLens/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateSymmetric(t *testing.T) {
	res, err := Allocate(3000, 0.5, 0.5, 20, false, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 2700, res.Low, 1e-9)
	assert.InDelta(t, 3300, res.High, 1e-9)
	assert.Equal(t, "500", res.AmountA.String())
	assert.Equal(t, "500", res.AmountB.String())
	assert.False(t, res.Inverted)
}

func TestAllocateInvertSwapsBounds(t *testing.T) {
	res, err := Allocate(3000, 0.7, 0.3, 20, true, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 3000*(1+0.3*0.2), res.Low, 1e-9)
	assert.InDelta(t, 3000*(1-0.7*0.2), res.High, 1e-9)
	assert.True(t, res.Inverted)

	lo, hi := res.Bounds()
	assert.Less(t, lo, hi)
	assert.InDelta(t, 2580, lo, 1e-9)
}

func TestAllocateClamps(t *testing.T) {
	res, err := Allocate(100, 1, 0, 500, false, 10)
	require.NoError(t, err)
	assert.True(t, res.PctClamped)
	assert.Equal(t, MaxRangePct, res.RangePct)
	assert.True(t, res.LowClamped)
	assert.Equal(t, MinPrice, res.Low)
	assert.InDelta(t, 100, res.High, 1e-12)
}

func TestAllocateRejects(t *testing.T) {
	_, err := Allocate(0, 0.5, 0.5, 20, false, 1)
	assert.ErrorIs(t, err, ErrInvalidSpot)
	_, err = Allocate(3000, 0.5, 0.5, 0, false, 1)
	assert.ErrorIs(t, err, ErrInvalidRangePct)
	_, err = Allocate(3000, 0.6, 0.6, 20, false, 1)
	assert.ErrorIs(t, err, ErrInvalidRatio)
	_, err = Allocate(3000, -0.1, 1.1, 20, false, 1)
	assert.ErrorIs(t, err, ErrInvalidRatio)
}

func TestAllocateStrategy(t *testing.T) {
	res, err := AllocateStrategy(2000, models.StrategyBullish, 10, false, 1234.56)
	require.NoError(t, err)
	assert.InDelta(t, 2000*(1-0.07), res.Low, 1e-9)
	assert.InDelta(t, 2000*(1+0.03), res.High, 1e-9)
	assert.Equal(t, "864.19", res.AmountA.StringFixed(2))
	assert.Equal(t, "370.37", res.AmountB.StringFixed(2))
}
