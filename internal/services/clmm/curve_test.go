package clmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveDefaultGrid(t *testing.T) {
	pos, err := BuildPosition(3000, 2800, 3500, 500)
	require.NoError(t, err)

	lo, hi := DefaultGrid(pos)
	assert.InEpsilon(t, 2240, lo, 1e-12)
	assert.InEpsilon(t, 4550, hi, 1e-12)

	pts, err := Curve(pos, lo, hi, DefaultCurvePoints)
	require.NoError(t, err)
	require.Len(t, pts, DefaultCurvePoints)
	assert.Equal(t, lo, pts[0].Price)
	assert.Equal(t, hi, pts[len(pts)-1].Price)

	for _, p := range pts {
		assert.InDelta(t, ILAt(pos, p.Price), p.ILPct, 1e-12)
	}
}

func TestCurveRejectsBadGrid(t *testing.T) {
	pos, err := BuildPosition(3000, 2800, 3500, 500)
	require.NoError(t, err)

	_, err = Curve(pos, 0, 100, 10)
	assert.ErrorIs(t, err, ErrInvalidGrid)
	_, err = Curve(pos, 100, 50, 10)
	assert.ErrorIs(t, err, ErrInvalidGrid)
	_, err = Curve(pos, 100, 200, 1)
	assert.ErrorIs(t, err, ErrInvalidGrid)
	_, err = Curve(pos, 100, 200, MaxCurvePoints+1)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}
