package ports

import "goqvalue/domain/fdr"

// Pi0Estimator estimates the proportion of true null hypotheses.
// Implementations must return pi0 in (0, 1] or an estimation error.
type Pi0Estimator interface {
	EstimatePi0(p []float64, cfg fdr.EstimatorConfig) (*fdr.Pi0Estimate, error)
}

// LFDREstimator estimates per-test local false discovery rates, index-aligned with p
type LFDREstimator interface {
	EstimateLFDR(p []float64, pi0 float64, cfg fdr.EstimatorConfig) ([]float64, error)
}
