package sarima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

// Forecast holds point forecasts with a two-sided prediction interval at
// level 1-Alpha. All slices have one entry per step.
type Forecast struct {
	Mean   []float64
	Lower  []float64
	Upper  []float64
	StdErr []float64
	Alpha  float64
}

// Len returns the forecast horizon.
func (f *Forecast) Len() int {
	return len(f.Mean)
}

// Forecast generates forecasts with prediction intervals at level 1-alpha.
// Models fitted with covariates need exactly one exog row per step.
func (m *Model) Forecast(steps int, exog *timeseries.Exogenous, alpha float64) (*Forecast, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before prediction")
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: forecast horizon %d", errdefs.ErrInvalidConfiguration, steps)
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("%w: alpha %v outside (0, 1)", errdefs.ErrInvalidConfiguration, alpha)
	}
	if err := m.checkExog(steps, exog); err != nil {
		return nil, err
	}

	o := m.Order
	x := m.params()
	ar := x[:o.P]
	sar := x[o.P : o.P+o.SP]
	ma := x[o.P+o.SP : o.P+o.SP+o.Q]
	sma := x[o.P+o.SP+o.Q:]

	n := len(m.diffData)
	extW := make([]float64, n+steps)
	copy(extW, m.diffData)
	extResid := make([]float64, n+steps)
	copy(extResid, m.residuals)

	// Future shocks are zero, so MA terms only see in-sample residuals.
	for t := n; t < n+steps; t++ {
		extW[t] = predict(o, extW, extResid, m.Intercept, t, ar, sar, ma, sma)
	}

	mean := m.integrate(extW[n:])
	if len(m.ExogCoeffs) > 0 {
		for h, row := range exog.Values {
			mean[h] += regression(m.ExogCoeffs, row)
		}
	}

	psi := m.psiWeights(steps)
	z := distuv.UnitNormal.Quantile(1 - alpha/2)

	f := &Forecast{
		Mean:   mean,
		Lower:  make([]float64, steps),
		Upper:  make([]float64, steps),
		StdErr: make([]float64, steps),
		Alpha:  alpha,
	}
	cum := 0.0
	for h := 0; h < steps; h++ {
		cum += psi[h] * psi[h]
		se := math.Sqrt(m.Variance * cum)
		f.StdErr[h] = se
		f.Lower[h] = mean[h] - z*se
		f.Upper[h] = mean[h] + z*se
	}
	return f, nil
}

func (m *Model) checkExog(steps int, exog *timeseries.Exogenous) error {
	want := len(m.ExogNames)
	switch {
	case want == 0 && exog.Cols() > 0:
		return fmt.Errorf("%w: model was fitted without exogenous variables", errdefs.ErrInvalidConfiguration)
	case want == 0:
		return nil
	case exog.Rows() != steps:
		return fmt.Errorf("%w: %d exogenous rows for a horizon of %d",
			errdefs.ErrInvalidConfiguration, exog.Rows(), steps)
	case exog.Cols() != want:
		return fmt.Errorf("%w: %d exogenous variables, model was fitted with %d",
			errdefs.ErrInvalidConfiguration, exog.Cols(), want)
	}
	return nil
}

// integrate maps differenced forecasts back to the level of the fitted
// series: u[t] = w[t] - sum_{i>=1} c_i u[t-i] for the differencing
// polynomial c.
func (m *Model) integrate(w []float64) []float64 {
	c := differencingPoly(m.Order)
	hist := append([]float64(nil), m.data...)
	n := len(hist)
	for _, v := range w {
		t := len(hist)
		u := v
		for i := 1; i < len(c); i++ {
			u -= c[i] * hist[t-i]
		}
		hist = append(hist, u)
	}
	return hist[n:]
}

// psiWeights returns the first steps coefficients of the MA(infinity)
// representation of the full model, differencing included.
func (m *Model) psiWeights(steps int) []float64 {
	o := m.Order

	a := make([]float64, max(o.P, o.SP*o.M)+1)
	a[0] = 1
	for i, v := range m.ARCoeffs {
		a[i+1] -= v
	}
	for i, v := range m.SARCoeffs {
		a[(i+1)*o.M] -= v
	}
	full := polyMul(a, differencingPoly(o))

	b := make([]float64, max(o.Q, o.SQ*o.M)+1)
	b[0] = 1
	for i, v := range m.MACoeffs {
		b[i+1] += v
	}
	for i, v := range m.SMACoeffs {
		b[(i+1)*o.M] += v
	}

	psi := make([]float64, steps)
	for j := range psi {
		if j < len(b) {
			psi[j] = b[j]
		}
		for k := 1; k < len(full) && k <= j; k++ {
			psi[j] -= full[k] * psi[j-k]
		}
	}
	return psi
}

// differencingPoly returns the coefficients of (1-B)^d (1-B^m)^D.
func differencingPoly(o Order) []float64 {
	c := []float64{1}
	for i := 0; i < o.D; i++ {
		c = polyMul(c, []float64{1, -1})
	}
	if o.M > 1 {
		seasonal := make([]float64, o.M+1)
		seasonal[0], seasonal[o.M] = 1, -1
		for i := 0; i < o.SD; i++ {
			c = polyMul(c, seasonal)
		}
	}
	return c
}

// applyPoly returns sum_i c_i x[t-i] for every t with a full window.
func applyPoly(c, x []float64) []float64 {
	lag := len(c) - 1
	if len(x) <= lag {
		return []float64{}
	}
	out := make([]float64, len(x)-lag)
	for t := lag; t < len(x); t++ {
		v := 0.0
		for i, ci := range c {
			v += ci * x[t-i]
		}
		out[t-lag] = v
	}
	return out
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}
