package fdr

import (
	"fmt"
	"math"
)

// Pi0Method selects the null-proportion estimation strategy
type Pi0Method string

const (
	Pi0Smoother  Pi0Method = "smoother"
	Pi0Bootstrap Pi0Method = "bootstrap"
)

// Transform selects the p-value transformation used by the local FDR estimator
type Transform string

const (
	TransformProbit Transform = "probit"
	TransformLogit  Transform = "logit"
)

// ParsePi0Method parses a method name, accepting the empty string as the default
func ParsePi0Method(s string) (Pi0Method, error) {
	switch Pi0Method(s) {
	case "", Pi0Smoother:
		return Pi0Smoother, nil
	case Pi0Bootstrap:
		return Pi0Bootstrap, nil
	}
	return "", fmt.Errorf("unknown pi0 method %q (want smoother|bootstrap)", s)
}

// ParseTransform parses a transform name, accepting the empty string as the default
func ParseTransform(s string) (Transform, error) {
	switch Transform(s) {
	case "", TransformProbit:
		return TransformProbit, nil
	case TransformLogit:
		return TransformLogit, nil
	}
	return "", fmt.Errorf("unknown lfdr transform %q (want probit|logit)", s)
}

// EstimatorConfig is forwarded unchanged to both the pi0 and the local FDR
// estimators. The q-value calculator itself never reads it. Zero fields and
// nil switches are unset and take their value from WithDefaults or Over.
type EstimatorConfig struct {
	// Null proportion
	Pi0Method    Pi0Method `json:"pi0_method,omitempty"`
	Lambda       []float64 `json:"lambda,omitempty"`         // Tuning grid; nil means DefaultLambda()
	SmoothDF     float64   `json:"smooth_df,omitempty"`      // Effective degrees of freedom of the spline
	SmoothLogPi0 *bool     `json:"smooth_log_pi0,omitempty"` // Smooth log(pi0(lambda)) instead of pi0(lambda)

	// Local FDR
	Transform Transform `json:"transform,omitempty"`
	Adjust    float64   `json:"adjust,omitempty"`   // Bandwidth multiplier
	Eps       float64   `json:"eps,omitempty"`      // Clamp for p-values near 0 and 1
	Truncate  *bool     `json:"truncate,omitempty"` // Clip lfdr at 1; default true
	Monotone  *bool     `json:"monotone,omitempty"` // Force lfdr non-decreasing in p; default true
}

// Bool returns a pointer to v for the optional switches
func Bool(v bool) *bool { return &v }

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// LogSmoothing reports whether the smoother works on log(pi0(lambda))
func (c EstimatorConfig) LogSmoothing() bool { return boolOr(c.SmoothLogPi0, false) }

// TruncateLFDR reports whether local FDR values are clipped at 1
func (c EstimatorConfig) TruncateLFDR() bool { return boolOr(c.Truncate, true) }

// MonotoneLFDR reports whether local FDR is forced non-decreasing in p
func (c EstimatorConfig) MonotoneLFDR() bool { return boolOr(c.Monotone, true) }

// DefaultLambda returns the grid 0.05, 0.10, ..., 0.95
func DefaultLambda() []float64 {
	return LambdaGrid(0.05, 0.95, 0.05)
}

// LambdaGrid builds an inclusive grid from lo to hi. Values are rounded to
// 1e-10 so that accumulated error does not push the last point past hi.
func LambdaGrid(lo, hi, step float64) []float64 {
	if step <= 0 || hi <= lo {
		return []float64{lo}
	}
	n := int((hi-lo)/step+1e-9) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = math.Round((lo+float64(i)*step)*1e10) / 1e10
	}
	return grid
}

// DefaultEstimatorConfig mirrors the reference defaults
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Pi0Method:    Pi0Smoother,
		Lambda:       DefaultLambda(),
		SmoothDF:     3,
		SmoothLogPi0: Bool(false),
		Transform:    TransformProbit,
		Adjust:       1.5,
		Eps:          1e-8,
		Truncate:     Bool(true),
		Monotone:     Bool(true),
	}
}

// WithDefaults fills every unset field from DefaultEstimatorConfig
func (c EstimatorConfig) WithDefaults() EstimatorConfig {
	return c.Over(DefaultEstimatorConfig())
}

// Over fills every unset field of c from base, field by field
func (c EstimatorConfig) Over(base EstimatorConfig) EstimatorConfig {
	c = c.Clone()
	if c.Pi0Method == "" {
		c.Pi0Method = base.Pi0Method
	}
	if len(c.Lambda) == 0 {
		c.Lambda = cloneFloats(base.Lambda)
	}
	if c.SmoothDF == 0 {
		c.SmoothDF = base.SmoothDF
	}
	if c.SmoothLogPi0 == nil {
		c.SmoothLogPi0 = cloneBool(base.SmoothLogPi0)
	}
	if c.Transform == "" {
		c.Transform = base.Transform
	}
	if c.Adjust == 0 {
		c.Adjust = base.Adjust
	}
	if c.Eps == 0 {
		c.Eps = base.Eps
	}
	if c.Truncate == nil {
		c.Truncate = cloneBool(base.Truncate)
	}
	if c.Monotone == nil {
		c.Monotone = cloneBool(base.Monotone)
	}
	return c
}

// Clone returns a deep copy
func (c EstimatorConfig) Clone() EstimatorConfig {
	c.Lambda = cloneFloats(c.Lambda)
	c.SmoothLogPi0 = cloneBool(c.SmoothLogPi0)
	c.Truncate = cloneBool(c.Truncate)
	c.Monotone = cloneBool(c.Monotone)
	return c
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	return Bool(*b)
}
