package pi0

import (
	"math"

	"goqvalue/domain/fdr"
)

// BootstrapStrategy picks the grid point minimising the closed-form
// bootstrap MSE against the 10% quantile of pi0(lambda)
type BootstrapStrategy struct{}

// Estimate implements Strategy
func (BootstrapStrategy) Estimate(g Grid, _ fdr.EstimatorConfig) (*fdr.Pi0Estimate, error) {
	minPi0 := Quantile(g.Pi0Lambda, 0.1)
	m := float64(g.M)

	best := math.Inf(1)
	pick := math.Inf(1)
	for i, l := range g.Lambda {
		w := float64(g.Exceed[i])
		d := g.Pi0Lambda[i] - minPi0
		mse := (w/(m*m*(1-l)*(1-l)))*(1-w/m) + d*d
		switch {
		case mse < best:
			best = mse
			pick = g.Pi0Lambda[i]
		case mse == best:
			pick = math.Min(pick, g.Pi0Lambda[i])
		}
	}

	return &fdr.Pi0Estimate{
		Pi0:       math.Min(pick, 1),
		Pi0Lambda: g.Pi0Lambda,
		Lambda:    g.Lambda,
	}, nil
}
