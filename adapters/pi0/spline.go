package pi0

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SmoothingSpline fits a natural cubic smoothing spline to (x, y) and
// returns the fitted values at x. x must be strictly increasing with at
// least three points. df is the effective degrees of freedom, the trace of
// the hat matrix, and must lie in (1, len(x)]; df <= 2 gives the least
// squares line.
//
// The fit minimises sum (y - g)^2 + alpha * g'Kg where K = Q R^-1 Q' is the
// Reinsch penalty matrix. With K = V diag(d) V', the hat matrix is
// V diag(1/(1+alpha*d)) V', so alpha is found by bisection on its trace.
func SmoothingSpline(x, y []float64, df float64) ([]float64, error) {
	n := len(x)
	if n != len(y) {
		return nil, fmt.Errorf("x and y lengths differ: %d vs %d", n, len(y))
	}
	if n < 3 {
		return nil, fmt.Errorf("need at least 3 points, got %d", n)
	}
	if !(df > 1 && df <= float64(n)) {
		return nil, fmt.Errorf("df must satisfy 1 < df <= %d, got %v", n, df)
	}

	K, err := penaltyMatrix(x)
	if err != nil {
		return nil, err
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(K, true); !ok {
		return nil, fmt.Errorf("eigendecomposition of the penalty matrix failed")
	}
	d := eig.Values(nil)
	var V mat.Dense
	eig.VectorsTo(&V)

	maxD := 0.0
	for _, v := range d {
		maxD = math.Max(maxD, v)
	}
	tol := 1e-9 * maxD
	for i, v := range d {
		if v < tol {
			d[i] = 0
		}
	}

	weights := shrinkWeights(d, df)

	var coef mat.VecDense
	coef.MulVec(V.T(), mat.NewVecDense(n, append([]float64(nil), y...)))
	for i, w := range weights {
		coef.SetVec(i, coef.AtVec(i)*w)
	}
	var fit mat.VecDense
	fit.MulVec(&V, &coef)

	out := make([]float64, n)
	for i := range out {
		out[i] = fit.AtVec(i)
	}
	return out, nil
}

// penaltyMatrix builds K = Q R^-1 Q' for knots x
func penaltyMatrix(x []float64) (*mat.SymDense, error) {
	n := len(x)
	h := make([]float64, n-1)
	for i := range h {
		h[i] = x[i+1] - x[i]
		if !(h[i] > 0) {
			return nil, fmt.Errorf("x must be strictly increasing")
		}
	}

	// Q is n x (n-2), R is (n-2) x (n-2) tridiagonal
	Q := mat.NewDense(n, n-2, nil)
	R := mat.NewSymDense(n-2, nil)
	for k := 0; k < n-2; k++ {
		Q.Set(k, k, 1/h[k])
		Q.Set(k+1, k, -1/h[k]-1/h[k+1])
		Q.Set(k+2, k, 1/h[k+1])
		R.SetSym(k, k, (h[k]+h[k+1])/3)
		if k+1 < n-2 {
			R.SetSym(k, k+1, h[k+1]/6)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(R); !ok {
		return nil, fmt.Errorf("penalty band matrix is not positive definite")
	}
	var Z mat.Dense
	if err := chol.SolveTo(&Z, Q.T()); err != nil {
		return nil, fmt.Errorf("solving penalty system: %w", err)
	}
	var full mat.Dense
	full.Mul(Q, &Z)

	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			K.SetSym(i, j, (full.At(i, j)+full.At(j, i))/2)
		}
	}
	return K, nil
}

// shrinkWeights returns 1/(1+alpha*d_i) for the alpha whose weights sum to df
func shrinkWeights(d []float64, df float64) []float64 {
	weightsAt := func(alpha float64) []float64 {
		w := make([]float64, len(d))
		for i, v := range d {
			w[i] = 1 / (1 + alpha*v)
		}
		return w
	}

	nullDim := 0
	for _, v := range d {
		if v == 0 {
			nullDim++
		}
	}
	if df <= float64(nullDim) {
		// alpha -> infinity keeps only the null space (the straight line)
		w := make([]float64, len(d))
		for i, v := range d {
			if v == 0 {
				w[i] = 1
			}
		}
		return w
	}
	if df >= float64(len(d)) {
		return weightsAt(0)
	}

	// trace is decreasing in alpha; bisect on log(alpha)
	lo, hi := -60.0, 60.0
	for iter := 0; iter < 200; iter++ {
		mid := (lo + hi) / 2
		if sum(weightsAt(math.Exp(mid))) > df {
			lo = mid
		} else {
			hi = mid
		}
	}
	return weightsAt(math.Exp((lo + hi) / 2))
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
