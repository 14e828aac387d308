package fdr

import (
	"encoding/json"
	"time"

	"goqvalue/domain/core"
)

// ============================================================================
// ESTIMATOR OUTPUTS
// ============================================================================

// Pi0Estimate is the output of a null-proportion estimator.
// Pi0Lambda, Lambda and Pi0Smooth are nil when the method does not produce them.
type Pi0Estimate struct {
	Pi0       float64   `json:"pi0"`
	Pi0Lambda []float64 `json:"pi0_lambda,omitempty"` // Raw pi0(lambda) per grid point
	Lambda    []float64 `json:"lambda,omitempty"`     // Grid the raw estimates were taken on
	Pi0Smooth []float64 `json:"pi0_smooth,omitempty"` // Smoothed curve evaluated on Lambda
}

// Warning is a non-fatal diagnostic attached to a result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"` // Number of tests affected
}

// WarningNumericInstability marks pFDR denominators that needed the stabilized form
const WarningNumericInstability = "NUMERIC_INSTABILITY"

// Params records the invocation for provenance
type Params struct {
	PFDR      bool            `json:"pfdr"`
	FDRLevel  *float64        `json:"fdr_level,omitempty"`
	Pi0       *float64        `json:"pi0,omitempty"` // User-supplied pi0, nil when estimated
	LFDR      bool            `json:"lfdr"`
	Estimator EstimatorConfig `json:"estimator"`
}

// ============================================================================
// RESULT
// ============================================================================

// ResultParts are the pieces the assembler combines into a Result
type ResultParts struct {
	Params   Params
	Pi0      Pi0Estimate
	QValues  []float64
	PValues  []float64
	LFDR     []float64 // nil when local FDR was not requested
	Warnings []Warning
}

// Result is the immutable outcome of one q-value computation. Every vector is
// index-aligned with the input p-values. Accessors return copies.
type Result struct {
	params      Params
	pi0         Pi0Estimate
	qvalues     []float64
	pvalues     []float64
	lfdr        []float64
	fdrLevel    *float64
	significant []bool
	warnings    []Warning
}

// NewResult assembles a Result. Every slice is copied so later changes to
// parts cannot leak in. When Params.FDRLevel is set the significance vector
// is q <= level.
func NewResult(parts ResultParts) *Result {
	r := &Result{
		params:   cloneParams(parts.Params),
		pi0:      clonePi0(parts.Pi0),
		qvalues:  cloneFloats(parts.QValues),
		pvalues:  cloneFloats(parts.PValues),
		lfdr:     cloneFloats(parts.LFDR),
		warnings: append([]Warning(nil), parts.Warnings...),
	}

	if parts.Params.FDRLevel != nil {
		level := *parts.Params.FDRLevel
		r.fdrLevel = &level
		r.significant = make([]bool, len(r.qvalues))
		for i, q := range r.qvalues {
			r.significant[i] = q <= level
		}
	}

	return r
}

// Len returns the number of tests
func (r *Result) Len() int { return len(r.pvalues) }

func (r *Result) Params() Params           { return cloneParams(r.params) }
func (r *Result) Pi0() float64             { return r.pi0.Pi0 }
func (r *Result) Pi0Estimate() Pi0Estimate { return clonePi0(r.pi0) }
func (r *Result) QValues() []float64       { return cloneFloats(r.qvalues) }
func (r *Result) PValues() []float64       { return cloneFloats(r.pvalues) }
func (r *Result) Warnings() []Warning      { return append([]Warning(nil), r.warnings...) }

// LFDR returns the local FDR vector, or nil when it was not computed
func (r *Result) LFDR() []float64 { return cloneFloats(r.lfdr) }

// Lambda returns the tuning grid, or nil when the estimator did not use one
func (r *Result) Lambda() []float64 { return cloneFloats(r.pi0.Lambda) }

// Pi0Lambda returns pi0(lambda) per grid point, or nil
func (r *Result) Pi0Lambda() []float64 { return cloneFloats(r.pi0.Pi0Lambda) }

// Pi0Smooth returns the smoothed pi0 curve, or nil
func (r *Result) Pi0Smooth() []float64 { return cloneFloats(r.pi0.Pi0Smooth) }

// FDRLevel returns the requested control level and whether one was requested
func (r *Result) FDRLevel() (float64, bool) {
	if r.fdrLevel == nil {
		return 0, false
	}
	return *r.fdrLevel, true
}

// Significant returns q <= level per test, or nil when no level was requested
func (r *Result) Significant() []bool {
	if r.significant == nil {
		return nil
	}
	return append([]bool(nil), r.significant...)
}

// NumSignificant counts significant tests; zero when no level was requested
func (r *Result) NumSignificant() int {
	n := 0
	for _, s := range r.significant {
		if s {
			n++
		}
	}
	return n
}

// resultJSON is the wire form of a Result
type resultJSON struct {
	Params      Params    `json:"params"`
	Pi0         float64   `json:"pi0"`
	QValues     []float64 `json:"qvalues"`
	PValues     []float64 `json:"pvalues"`
	LFDR        []float64 `json:"lfdr,omitempty"`
	FDRLevel    *float64  `json:"fdr_level,omitempty"`
	Significant []bool    `json:"significant,omitempty"`
	Lambda      []float64 `json:"lambda,omitempty"`
	Pi0Lambda   []float64 `json:"pi0_lambda,omitempty"`
	Pi0Smooth   []float64 `json:"pi0_smooth,omitempty"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Params:      r.params,
		Pi0:         r.pi0.Pi0,
		QValues:     r.qvalues,
		PValues:     r.pvalues,
		LFDR:        r.lfdr,
		FDRLevel:    r.fdrLevel,
		Significant: r.significant,
		Lambda:      r.pi0.Lambda,
		Pi0Lambda:   r.pi0.Pi0Lambda,
		Pi0Smooth:   r.pi0.Pi0Smooth,
		Warnings:    r.warnings,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The significance vector is
// recomputed from the q-values and the level rather than trusted.
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire resultJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	params := wire.Params
	if params.FDRLevel == nil {
		params.FDRLevel = wire.FDRLevel
	}
	*r = *NewResult(ResultParts{
		Params: params,
		Pi0: Pi0Estimate{
			Pi0:       wire.Pi0,
			Pi0Lambda: wire.Pi0Lambda,
			Lambda:    wire.Lambda,
			Pi0Smooth: wire.Pi0Smooth,
		},
		QValues:  wire.QValues,
		PValues:  wire.PValues,
		LFDR:     wire.LFDR,
		Warnings: wire.Warnings,
	})
	return nil
}

// ============================================================================
// RUN
// ============================================================================

// Run is a named, identified Result as stored and served by the application
type Run struct {
	ID        core.RunID `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	Result    *Result    `json:"result"`
}

// NewRun wraps a result with a fresh time-ordered ID
func NewRun(name string, result *Result) *Run {
	return &Run{
		ID:        core.RunID(core.NewID()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
}

func cloneFloats(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}

func clonePi0(e Pi0Estimate) Pi0Estimate {
	return Pi0Estimate{
		Pi0:       e.Pi0,
		Pi0Lambda: cloneFloats(e.Pi0Lambda),
		Lambda:    cloneFloats(e.Lambda),
		Pi0Smooth: cloneFloats(e.Pi0Smooth),
	}
}

func cloneParams(p Params) Params {
	out := p
	if p.FDRLevel != nil {
		v := *p.FDRLevel
		out.FDRLevel = &v
	}
	if p.Pi0 != nil {
		v := *p.Pi0
		out.Pi0 = &v
	}
	out.Estimator = p.Estimator.Clone()
	return out
}
