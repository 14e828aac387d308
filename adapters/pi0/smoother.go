package pi0

import (
	"math"

	"goqvalue/domain/fdr"
)

// SmootherStrategy fits a cubic smoothing spline through pi0(lambda) and
// reads the estimate off the fitted curve at the largest lambda
type SmootherStrategy struct{}

// Estimate implements Strategy
func (SmootherStrategy) Estimate(g Grid, cfg fdr.EstimatorConfig) (*fdr.Pi0Estimate, error) {
	y := append([]float64(nil), g.Pi0Lambda...)
	if cfg.LogSmoothing() {
		for i := range y {
			y[i] = math.Log(y[i])
		}
	}

	fit, err := SmoothingSpline(g.Lambda, y, cfg.SmoothDF)
	if err != nil {
		return nil, err
	}
	if cfg.LogSmoothing() {
		for i := range fit {
			fit[i] = math.Exp(fit[i])
		}
	}

	return &fdr.Pi0Estimate{
		Pi0:       math.Min(fit[len(fit)-1], 1),
		Pi0Lambda: g.Pi0Lambda,
		Lambda:    g.Lambda,
		Pi0Smooth: fit,
	}, nil
}
