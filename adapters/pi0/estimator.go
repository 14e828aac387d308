package pi0

import (
	"math"
	"sort"

	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
)

// Grid holds the raw estimates pi0(lambda) = #{p >= lambda} / (m(1-lambda))
type Grid struct {
	M         int
	Lambda    []float64 // Sorted ascending, distinct
	Exceed    []int     // #{p >= lambda}
	Pi0Lambda []float64
}

// NewGrid evaluates pi0(lambda) for every lambda. sortedP must be ascending.
func NewGrid(sortedP []float64, lambda []float64) Grid {
	m := len(sortedP)
	g := Grid{
		M:         m,
		Lambda:    append([]float64(nil), lambda...),
		Exceed:    make([]int, len(lambda)),
		Pi0Lambda: make([]float64, len(lambda)),
	}
	for i, l := range lambda {
		g.Exceed[i] = m - sort.SearchFloat64s(sortedP, l)
		g.Pi0Lambda[i] = float64(g.Exceed[i]) / (float64(m) * (1 - l))
	}
	return g
}

// Strategy reduces a multi-point grid to one pi0 estimate
type Strategy interface {
	Estimate(g Grid, cfg fdr.EstimatorConfig) (*fdr.Pi0Estimate, error)
}

// Estimator implements ports.Pi0Estimator, dispatching on EstimatorConfig.Pi0Method
type Estimator struct {
	strategies map[fdr.Pi0Method]Strategy
	logger     *internal.Logger
}

// NewEstimator creates an estimator with the smoother and bootstrap strategies
func NewEstimator(logger *internal.Logger) *Estimator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Estimator{
		strategies: map[fdr.Pi0Method]Strategy{
			fdr.Pi0Smoother:  SmootherStrategy{},
			fdr.Pi0Bootstrap: BootstrapStrategy{},
		},
		logger: logger,
	}
}

// Register adds or replaces the strategy for method
func (e *Estimator) Register(method fdr.Pi0Method, s Strategy) {
	e.strategies[method] = s
}

// EstimatePi0 implements ports.Pi0Estimator
func (e *Estimator) EstimatePi0(p []float64, cfg fdr.EstimatorConfig) (*fdr.Pi0Estimate, error) {
	cfg = cfg.WithDefaults()

	if len(p) == 0 {
		return nil, errors.RangeError("no p-values supplied")
	}
	sorted := append([]float64(nil), p...)
	sort.Float64s(sorted)
	if !(sorted[0] >= 0 && sorted[len(sorted)-1] <= 1) || hasNaN(sorted) {
		return nil, errors.RangeError("p-values not in valid range [0, 1]")
	}

	lambda, err := checkLambda(cfg.Lambda)
	if err != nil {
		return nil, err
	}
	if sorted[len(sorted)-1] < lambda[len(lambda)-1] {
		return nil, errors.EstimationError("maximum p-value is smaller than lambda range; change the range of lambda", nil)
	}

	grid := NewGrid(sorted, lambda)

	var estimate *fdr.Pi0Estimate
	if len(lambda) == 1 {
		estimate = &fdr.Pi0Estimate{
			Pi0:       math.Min(grid.Pi0Lambda[0], 1),
			Pi0Lambda: grid.Pi0Lambda,
			Lambda:    grid.Lambda,
		}
	} else {
		strategy, ok := e.strategies[cfg.Pi0Method]
		if !ok {
			return nil, errors.EstimationError("unknown pi0 method "+string(cfg.Pi0Method), nil)
		}
		estimate, err = strategy.Estimate(grid, cfg)
		if err != nil {
			return nil, errors.EstimationError("pi0 "+string(cfg.Pi0Method)+" fit failed", err)
		}
	}

	if !(estimate.Pi0 > 0) {
		return nil, errors.EstimationError("the estimated pi0 <= 0; check that you have valid p-values or use a different range of lambda", nil)
	}

	e.logger.Debug("[pi0] method=%s m=%d lambdas=%d pi0=%.4f", cfg.Pi0Method, len(p), len(lambda), estimate.Pi0)
	return estimate, nil
}

// checkLambda sorts the grid and enforces: one point or at least four,
// all in [0, 1), no duplicates
func checkLambda(lambda []float64) ([]float64, error) {
	ll := len(lambda)
	if ll == 0 {
		return nil, errors.EstimationError("lambda grid is empty", nil)
	}
	if ll > 1 && ll < 4 {
		return nil, errors.EstimationError("if length of lambda greater than 1, you need at least 4 values", nil)
	}

	sorted := append([]float64(nil), lambda...)
	sort.Float64s(sorted)
	if hasNaN(sorted) || sorted[0] < 0 || sorted[ll-1] >= 1 {
		return nil, errors.EstimationError("lambda must be within [0, 1)", nil)
	}
	for i := 1; i < ll; i++ {
		if sorted[i] == sorted[i-1] {
			return nil, errors.EstimationError("lambda values must be distinct", nil)
		}
	}
	return sorted, nil
}

func hasNaN(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
