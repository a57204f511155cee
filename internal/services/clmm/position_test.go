package clmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPositionConservesDepositValue(t *testing.T) {
	cases := []struct {
		name              string
		pd, pl, pu, value float64
	}{
		{"eth default", 3000, 2800, 3500, 500},
		{"narrow", 1.0, 0.99, 1.01, 10_000},
		{"wide", 100, 1, 10_000, 1},
		{"skewed low", 2801, 2800, 3500, 250},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := BuildPosition(tc.pd, tc.pl, tc.pu, tc.value)
			require.NoError(t, err)
			got := pos.X0*tc.pd + pos.Y0
			assert.InEpsilon(t, tc.value, got, 1e-6)
			assert.Greater(t, pos.L, 0.0)
		})
	}
}

func TestBuildPositionRejectsInvalidInput(t *testing.T) {
	_, err := BuildPosition(3000, 0, 3500, 500)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = BuildPosition(3000, 3500, 2800, 500)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = BuildPosition(3000, 3000, 3000, 500)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = BuildPosition(-1, 2800, 3500, 500)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = BuildPosition(math.NaN(), 2800, 3500, 500)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = BuildPosition(3000, 2800, 3500, 0)
	assert.ErrorIs(t, err, ErrInvalidDeposit)
}

func TestBuildPositionOutsideRangeIsSingleAsset(t *testing.T) {
	below, err := BuildPosition(2000, 2800, 3500, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0, below.Y0, 1e-12)
	assert.InEpsilon(t, 500, below.X0*2000, 1e-9)

	above, err := BuildPosition(4000, 2800, 3500, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0, above.X0, 1e-12)
	assert.InEpsilon(t, 500, above.Y0, 1e-9)
}

func TestAmountsAtBounds(t *testing.T) {
	pos, err := BuildPosition(3000, 2800, 3500, 500)
	require.NoError(t, err)

	x, _ := Amounts(pos, pos.Upper)
	assert.Equal(t, 0.0, x)
	_, y := Amounts(pos, pos.Lower)
	assert.Equal(t, 0.0, y)

	xl, _ := Amounts(pos, pos.Lower)
	assert.InEpsilon(t, pos.L*(1/math.Sqrt(2800)-1/math.Sqrt(3500)), xl, 1e-12)
	_, yu := Amounts(pos, pos.Upper)
	assert.InEpsilon(t, pos.L*(math.Sqrt(3500)-math.Sqrt(2800)), yu, 1e-12)
}

func TestCompositionFrozenOutsideRange(t *testing.T) {
	pos, err := BuildPosition(3000, 2800, 3500, 500)
	require.NoError(t, err)

	xl, yl := Amounts(pos, pos.Lower)
	for _, p := range []float64{2799, 2500, 1000, 1} {
		x, y := Amounts(pos, p)
		assert.Equal(t, xl, x)
		assert.Equal(t, yl, y)
		assert.InEpsilon(t, xl*p, ValueLP(pos, p), 1e-12)
	}

	xu, yu := Amounts(pos, pos.Upper)
	for _, p := range []float64{3501, 5000, 1e6} {
		x, y := Amounts(pos, p)
		assert.Equal(t, xu, x)
		assert.Equal(t, yu, y)
		assert.InEpsilon(t, yu, ValueLP(pos, p), 1e-12)
	}
}

func TestImpermanentLossScenario(t *testing.T) {
	pos, err := BuildPosition(3000, 2800, 3500, 500)
	require.NoError(t, err)

	assert.InDelta(t, 0, ImpermanentLoss(pos, 3000), 1e-12)
	assert.Less(t, ImpermanentLoss(pos, 2800), 0.0)
	assert.Less(t, ImpermanentLoss(pos, 3500), 0.0)

	for _, p := range []float64{2850, 2950, 3100, 3300, 3450} {
		assert.LessOrEqual(t, ImpermanentLoss(pos, p), 1e-12, "price %v", p)
	}
}

func TestValueAt(t *testing.T) {
	pos, err := BuildPosition(3000, 2800, 3500, 500)
	require.NoError(t, err)

	v, err := ValueAt(pos, 3000)
	require.NoError(t, err)
	assert.InEpsilon(t, 500, v.ValueLP, 1e-9)
	assert.InEpsilon(t, 500, v.ValueHODL, 1e-9)
	assert.InDelta(t, 0, v.ILPct, 1e-9)
	assert.True(t, v.InRange)

	v, err = ValueAt(pos, 4000)
	require.NoError(t, err)
	assert.False(t, v.InRange)
	assert.Equal(t, 0.0, v.X)

	_, err = ValueAt(pos, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}
