package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathStartsAtSeedPrice(t *testing.T) {
	s := New()
	for _, n := range []int{0, 1, 30, 365} {
		p := s.Path(3000, 0.03, n)
		require.Len(t, p, n+1)
		assert.Equal(t, 3000.0, p[0])
		for _, v := range p {
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestNegativeHorizonIsEmptyWalk(t *testing.T) {
	p := New().Path(10, 0.1, -5)
	assert.Equal(t, []float64{10}, p)
}

func TestSeedIsReproducible(t *testing.T) {
	a := New(WithSeed(42)).Path(100, 0.05, 50)
	b := New(WithSeed(42)).Path(100, 0.05, 50)
	c := New(WithSeed(43)).Path(100, 0.05, 50)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestZeroVolIsFlat(t *testing.T) {
	p := New(WithSeed(1)).Path(50, 0, 10)
	for _, v := range p {
		assert.Equal(t, 50.0, v)
	}
}

func TestHugeVolStaysPositive(t *testing.T) {
	p := New(WithSeed(7)).Path(1, 5, 200)
	for _, v := range p {
		assert.Greater(t, v, 0.0)
	}
}

func TestEnsemble(t *testing.T) {
	s := New(WithSeed(9))

	flat := s.Ensemble(100, 0, 30, 50, 90, 110)
	assert.Equal(t, 50, flat.Paths)
	assert.Equal(t, 0.0, flat.ExitProbability)
	assert.Equal(t, 100.0, flat.FinalP50)

	wild := s.Ensemble(100, 0.2, 60, 200, 99, 101)
	assert.Greater(t, wild.ExitProbability, 0.9)
	assert.LessOrEqual(t, wild.FinalP5, wild.FinalP50)
	assert.LessOrEqual(t, wild.FinalP50, wild.FinalP95)

	assert.Equal(t, 0, s.Ensemble(100, 0.1, 10, 0, 1, 2).Paths)
}
