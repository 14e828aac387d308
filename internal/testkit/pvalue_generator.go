package testkit

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// PValueGeneratorConfig configures a two-group mixture of p-values: nulls are
// Uniform(0, 1) and alternatives are Beta(SignalShape, 1), which piles up near 0
type PValueGeneratorConfig struct {
	Count       int     `json:"count"`
	Pi0         float64 `json:"pi0"`          // Fraction of true nulls
	SignalShape float64 `json:"signal_shape"` // Beta alpha for alternatives; smaller is stronger
	Seed        int64   `json:"seed"`
}

// DefaultPValueConfig returns a 1000-test mixture with 80% nulls
func DefaultPValueConfig() PValueGeneratorConfig {
	return PValueGeneratorConfig{
		Count:       1000,
		Pi0:         0.8,
		SignalShape: 0.1,
		Seed:        42,
	}
}

// PValueGenerator draws reproducible synthetic p-values
type PValueGenerator struct {
	config PValueGeneratorConfig
	rng    *rand.Rand
	null   distuv.Uniform
	signal distuv.Beta
}

// NewPValueGenerator creates a generator seeded from config
func NewPValueGenerator(config PValueGeneratorConfig) *PValueGenerator {
	return &PValueGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
		null:   distuv.Uniform{Min: 0, Max: 1},
		signal: distuv.Beta{Alpha: config.SignalShape, Beta: 1},
	}
}

// Generate returns the p-values and which of them are true nulls.
// Draws go through each distribution's quantile function so the seeded
// source alone determines the output.
func (g *PValueGenerator) Generate() ([]float64, []bool) {
	p := make([]float64, g.config.Count)
	isNull := make([]bool, g.config.Count)
	for i := range p {
		u := g.rng.Float64()
		if g.rng.Float64() < g.config.Pi0 {
			p[i] = g.null.Quantile(u)
			isNull[i] = true
		} else {
			p[i] = g.signal.Quantile(u)
		}
	}
	return p, isNull
}
