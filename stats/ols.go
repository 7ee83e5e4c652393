package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OLSResult holds an ordinary least squares fit.
type OLSResult struct {
	Coeffs    []float64
	StdErrors []float64
	Residuals []float64
	SSE       float64
	N         int
	K         int
}

// LogLik returns the Gaussian log-likelihood at the ML variance SSE/N.
func (r *OLSResult) LogLik() float64 {
	n := float64(r.N)
	sigma2 := r.SSE / n
	return -0.5 * n * (math.Log(2*math.Pi*sigma2) + 1)
}

// AIC returns the Akaike criterion of the regression.
func (r *OLSResult) AIC() float64 {
	return -2*r.LogLik() + 2*float64(r.K)
}

// OLS regresses y on the columns of x. Standard errors use the unbiased
// residual variance SSE/(n-k).
func OLS(x *mat.Dense, y []float64) (*OLSResult, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("ols: %d rows for %d observations", n, len(y))
	}
	if n <= k {
		return nil, fmt.Errorf("ols: %d observations for %d regressors", n, k)
	}

	yVec := mat.NewVecDense(n, y)

	var beta mat.VecDense
	if err := beta.SolveVec(x, yVec); err != nil && !wellConditioned(err) {
		return nil, fmt.Errorf("ols: %w", err)
	}

	var xtx, xtxInv mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxInv.Inverse(&xtx); err != nil && !wellConditioned(err) {
		return nil, fmt.Errorf("ols: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	residuals := make([]float64, n)
	sse := 0.0
	for i := range residuals {
		residuals[i] = y[i] - fitted.AtVec(i)
		sse += residuals[i] * residuals[i]
	}

	s2 := sse / float64(n-k)
	coeffs := make([]float64, k)
	stdErrors := make([]float64, k)
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}

	return &OLSResult{
		Coeffs:    coeffs,
		StdErrors: stdErrors,
		Residuals: residuals,
		SSE:       sse,
		N:         n,
		K:         k,
	}, nil
}

// wellConditioned accepts gonum's finite condition warnings and rejects
// singular systems.
func wellConditioned(err error) bool {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return !math.IsInf(float64(cond), 0) && float64(cond) < 1e15
	}
	return false
}
