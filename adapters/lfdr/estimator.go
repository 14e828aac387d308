package lfdr

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
	"goqvalue/internal/qvalue"
)

// Estimator implements ports.LFDREstimator.
//
// p-values are mapped to the real line (probit or logit), the marginal
// density f is estimated with a Gaussian kernel, and the local FDR is
// pi0 * f0(x) / f(x) where f0 is the null density on the transformed scale.
type Estimator struct {
	logger *internal.Logger
}

// NewEstimator creates a local FDR estimator
func NewEstimator(logger *internal.Logger) *Estimator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Estimator{logger: logger}
}

// EstimateLFDR implements ports.LFDREstimator
func (e *Estimator) EstimateLFDR(p []float64, pi0 float64, cfg fdr.EstimatorConfig) ([]float64, error) {
	cfg = cfg.WithDefaults()

	if err := qvalue.ValidatePValues(p); err != nil {
		return nil, err
	}
	if !(pi0 >= 0 && pi0 <= 1) {
		return nil, errors.RangeError("pi0 must be in [0, 1], got %v", pi0)
	}
	if !(cfg.Adjust > 0) {
		return nil, errors.EstimationError("bandwidth adjustment must be positive", nil)
	}
	if !(cfg.Eps > 0 && cfg.Eps < 0.5) {
		return nil, errors.EstimationError("eps must be in (0, 0.5)", nil)
	}

	x, null, err := transform(p, cfg)
	if err != nil {
		return nil, err
	}

	kde := NewKernelDensity(x, cfg.Adjust)

	lfdr := make([]float64, len(p))
	for i, xi := range x {
		lfdr[i] = localFDR(pi0, null[i], kde.At(xi))
		if cfg.TruncateLFDR() && lfdr[i] > 1 {
			lfdr[i] = 1
		}
	}

	if cfg.MonotoneLFDR() {
		running := math.Inf(-1)
		for _, idx := range qvalue.AscendingOrder(p) {
			running = math.Max(running, lfdr[idx])
			lfdr[idx] = running
		}
	}

	e.logger.Debug("[lfdr] transform=%s m=%d bandwidth=%.4f", cfg.Transform, len(p), kde.Bandwidth)
	return lfdr, nil
}

// localFDR is pi0*f0/f, kept finite so results stay JSON-encodable when
// truncation is off and the density estimate vanishes or underflows
func localFDR(pi0, f0, f float64) float64 {
	num := pi0 * f0
	if num == 0 {
		return 0
	}
	if !(f > 0) {
		return math.MaxFloat64
	}
	return math.Min(num/f, math.MaxFloat64)
}

// transform maps p to the real line and returns the null density at each point
func transform(p []float64, cfg fdr.EstimatorConfig) ([]float64, []float64, error) {
	x := make([]float64, len(p))
	null := make([]float64, len(p))

	switch cfg.Transform {
	case fdr.TransformProbit:
		for i, v := range p {
			v = math.Min(math.Max(v, cfg.Eps), 1-cfg.Eps)
			x[i] = distuv.UnitNormal.Quantile(v)
			null[i] = distuv.UnitNormal.Prob(x[i])
		}
	case fdr.TransformLogit:
		for i, v := range p {
			x[i] = math.Log((v + cfg.Eps) / (1 - v + cfg.Eps))
			ex := math.Exp(x[i])
			null[i] = ex / ((1 + ex) * (1 + ex))
		}
	default:
		return nil, nil, errors.EstimationError("unknown lfdr transform "+string(cfg.Transform), nil)
	}
	return x, null, nil
}
