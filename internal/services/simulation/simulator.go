// Package simulation generates synthetic forward price paths driven by
// multiplicative Gaussian shocks.
package simulation

import (
	"math/rand/v2"
	"sync"

	"ClmmLens/internal/domain/models"
	"ClmmLens/internal/services/features"
	"ClmmLens/pkg/util"
)

// MinPrice floors a simulated price that a large negative shock would push
// to zero or below.
const MinPrice = 1e-9

// Option configures Simulator.
type Option func(*Simulator)

// WithSeed makes every path drawn by the simulator reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Simulator draws random walks. It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Simulator; without WithSeed it is seeded randomly.
func New(opts ...Option) *Simulator {
	s := &Simulator{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Path returns horizon+1 prices starting at start, where each step applies
// path[i] = path[i-1]·(1 + N(0, stepVol)). stepVol is per step (per day).
func (s *Simulator) Path(start, stepVol float64, horizon int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path(start, stepVol, horizon)
}

func (s *Simulator) path(start, stepVol float64, horizon int) []float64 {
	if horizon < 0 {
		horizon = 0
	}
	if !util.IsFinite(stepVol) || stepVol < 0 {
		stepVol = 0
	}
	out := make([]float64, horizon+1)
	out[0] = start
	for i := 1; i <= horizon; i++ {
		next := out[i-1] * (1 + s.rng.NormFloat64()*stepVol)
		if next <= 0 {
			next = MinPrice
		}
		out[i] = next
	}
	return out
}

// Ensemble draws n independent paths and summarizes how often they leave
// [lower, upper] and where they end.
func (s *Simulator) Ensemble(start, stepVol float64, horizon, n int, lower, upper float64) models.EnsembleResult {
	if n <= 0 {
		return models.EnsembleResult{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	finals := make([]float64, n)
	exits := 0
	totalOut := 0
	for i := 0; i < n; i++ {
		p := s.path(start, stepVol, horizon)
		out := features.CountOutOfRange(p, lower, upper)
		if out > 0 {
			exits++
		}
		totalOut += out
		finals[i] = p[len(p)-1]
	}
	return models.EnsembleResult{
		Paths:           n,
		ExitProbability: float64(exits) / float64(n),
		MeanOutOfRange:  float64(totalOut) / float64(n),
		FinalP5:         util.Quantile(finals, 0.05),
		FinalP50:        util.Quantile(finals, 0.50),
		FinalP95:        util.Quantile(finals, 0.95),
	}
}
