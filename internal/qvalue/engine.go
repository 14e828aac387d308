package qvalue

import (
	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
	"goqvalue/ports"
)

// Options controls one q-value computation
type Options struct {
	FDRLevel  *float64 // When set, the result carries a significance vector
	PFDR      bool     // Use the positive FDR denominator
	Pi0       *float64 // Caller-supplied pi0; skips the pi0 estimator
	SkipLFDR  bool     // Leave the local FDR vector absent
	Estimator fdr.EstimatorConfig
}

// Engine runs validation, pi0 estimation, the q-value sweep, local FDR
// estimation and result assembly, in that order
type Engine struct {
	pi0Estimator  ports.Pi0Estimator
	lfdrEstimator ports.LFDREstimator
	logger        *internal.Logger
}

// NewEngine creates an engine over the given estimators
func NewEngine(pi0Estimator ports.Pi0Estimator, lfdrEstimator ports.LFDREstimator, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{
		pi0Estimator:  pi0Estimator,
		lfdrEstimator: lfdrEstimator,
		logger:        logger,
	}
}

// Compute estimates q-values for p. Range errors are returned before either
// estimator is called; estimator errors are returned unchanged.
func (e *Engine) Compute(p []float64, opts Options) (*fdr.Result, error) {
	if err := ValidatePValues(p); err != nil {
		return nil, err
	}
	if opts.FDRLevel != nil {
		if err := ValidateFDRLevel(*opts.FDRLevel); err != nil {
			return nil, err
		}
	}
	if opts.Pi0 != nil {
		if err := ValidatePi0(*opts.Pi0); err != nil {
			return nil, err
		}
	}

	cfg := opts.Estimator.WithDefaults()

	estimate, err := e.estimatePi0(p, opts.Pi0, cfg)
	if err != nil {
		return nil, err
	}

	qvals, warnings := QValues(p, estimate.Pi0, opts.PFDR)
	for _, w := range warnings {
		e.logger.Warn("[qvalue] %s: %s", w.Code, w.Message)
	}

	var lfdr []float64
	if !opts.SkipLFDR {
		lfdr, err = e.estimateLFDR(p, estimate.Pi0, cfg)
		if err != nil {
			return nil, err
		}
	}

	e.logger.Debug("[qvalue] m=%d pi0=%.4f pfdr=%t lfdr=%t", len(p), estimate.Pi0, opts.PFDR, lfdr != nil)

	return fdr.NewResult(fdr.ResultParts{
		Params: fdr.Params{
			PFDR:      opts.PFDR,
			FDRLevel:  opts.FDRLevel,
			Pi0:       opts.Pi0,
			LFDR:      !opts.SkipLFDR,
			Estimator: cfg,
		},
		Pi0:      *estimate,
		QValues:  qvals,
		PValues:  p,
		LFDR:     lfdr,
		Warnings: warnings,
	}), nil
}

func (e *Engine) estimatePi0(p []float64, supplied *float64, cfg fdr.EstimatorConfig) (*fdr.Pi0Estimate, error) {
	if supplied != nil {
		return &fdr.Pi0Estimate{Pi0: *supplied}, nil
	}
	if e.pi0Estimator == nil {
		return nil, errors.EstimationError("no pi0 estimator configured", nil)
	}

	estimate, err := e.pi0Estimator.EstimatePi0(p, cfg)
	if err != nil {
		return nil, err
	}
	if estimate == nil || !(estimate.Pi0 > 0 && estimate.Pi0 <= 1) {
		return nil, errors.EstimationError("pi0 estimator returned a value outside (0, 1]", nil)
	}
	return estimate, nil
}

func (e *Engine) estimateLFDR(p []float64, pi0 float64, cfg fdr.EstimatorConfig) ([]float64, error) {
	if e.lfdrEstimator == nil {
		return nil, errors.EstimationError("no local FDR estimator configured", nil)
	}

	lfdr, err := e.lfdrEstimator.EstimateLFDR(p, pi0, cfg)
	if err != nil {
		return nil, err
	}
	if len(lfdr) != len(p) {
		return nil, errors.EstimationError("local FDR estimator returned a vector of the wrong length", nil)
	}
	return lfdr, nil
}
