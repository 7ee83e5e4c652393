package sarima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/stats"
	"github.com/sartorproj/parkcast/timeseries"
)

// coefBound is the largest absolute value a coefficient may take.
const coefBound = 0.99

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (e.g., 12 for monthly data with yearly seasonality)
}

// Seasonal reports whether the order has any seasonal component.
func (o Order) Seasonal() bool {
	return o.M > 1 && o.SP+o.SD+o.SQ > 0
}

// ARMAOrder returns p+q+P+Q, the number of estimated ARMA coefficients.
func (o Order) ARMAOrder() int {
	return o.P + o.Q + o.SP + o.SQ
}

func (o Order) String() string {
	if o.Seasonal() {
		return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Validate rejects negative orders and seasonal terms without a period.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 || o.M < 0 {
		return fmt.Errorf("%w: negative order %+v", errdefs.ErrInvalidConfiguration, o)
	}
	if o.M <= 1 && o.SP+o.SD+o.SQ > 0 {
		return fmt.Errorf("%w: seasonal terms need a period above 1, got %d", errdefs.ErrInvalidConfiguration, o.M)
	}
	return nil
}

// Options tune estimation.
type Options struct {
	// ConditionOn is the number of leading differenced observations that
	// only serve as lags. Candidates compared by information criteria must
	// share it. The model's own AR span is used when larger.
	ConditionOn int

	// Exog holds covariates aligned row by row with the series. The model
	// becomes a regression with SARIMA errors.
	Exog *timeseries.Exogenous

	// MaxEvaluations bounds objective evaluations (default 4000).
	MaxEvaluations int
}

// Model represents a SARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // Non-seasonal AR coefficients
	MACoeffs  []float64 // Non-seasonal MA coefficients
	SARCoeffs []float64 // Seasonal AR coefficients
	SMACoeffs []float64 // Seasonal MA coefficients

	// Intercept is the mean of the differenced series. It is only
	// estimated when d+D < 2.
	Intercept float64
	HasMean   bool

	// ExogCoeffs holds the regression constant followed by one coefficient
	// per covariate in ExogNames.
	ExogNames  []string
	ExogCoeffs []float64

	Variance float64
	AIC      float64
	AICc     float64 // Corrected AIC for small sample sizes
	BIC      float64
	LogLik   float64
	NObs     int // observations in the fitted series
	NEff     int // residuals entering the sum of squares

	// Standard errors for coefficients
	ARStdErrors  []float64
	MAStdErrors  []float64
	SARStdErrors []float64
	SMAStdErrors []float64

	fitted    bool
	start     int       // first differenced index with a counted residual
	data      []float64 // series after removing the regression effect
	diffData  []float64
	residuals []float64
}

// New creates a new SARIMA model with the specified order.
func New(order Order) *Model {
	return &Model{
		Order:     order,
		ARCoeffs:  make([]float64, order.P),
		MACoeffs:  make([]float64, order.Q),
		SARCoeffs: make([]float64, order.SP),
		SMACoeffs: make([]float64, order.SQ),
	}
}

// Fit estimates the model on series. opts may be nil.
func (m *Model) Fit(series *timeseries.Series, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	o := m.Order
	if err := o.Validate(); err != nil {
		return err
	}

	y := series.Values
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: series contains non-finite values", errdefs.ErrInvalidConfiguration)
		}
	}

	u, err := m.removeRegression(y, opts.Exog)
	if err != nil {
		return err
	}

	delta := differencingPoly(o)
	w := applyPoly(delta, u)

	start := max(opts.ConditionOn, o.P, o.SP*o.M)
	dim := o.ARMAOrder()
	if len(w)-start < dim+10 {
		return fmt.Errorf("%w: %s needs more than %d observations",
			errdefs.ErrInsufficientHistory, o, series.Len())
	}

	m.HasMean = o.D+o.SD < 2
	m.Intercept = 0
	if m.HasMean {
		m.Intercept = stat.Mean(w, nil)
	}

	scale := 0.0
	for _, v := range w[start:] {
		scale += (v - m.Intercept) * (v - m.Intercept)
	}
	scale = math.Sqrt(scale / float64(len(w)-start))
	if scale == 0 || math.IsNaN(scale) {
		return fmt.Errorf("%w: %s: differenced series has zero variance", errdefs.ErrModelFit, o)
	}

	// Estimation runs on the standardized series; the recursion is linear so
	// the coefficients are unchanged and residuals scale back by scale.
	z := make([]float64, len(w))
	for i, v := range w {
		z[i] = (v - m.Intercept) / scale
	}

	params := m.initialParams(z)
	resid := make([]float64, len(z))
	objective := func(x []float64) float64 {
		for _, v := range x {
			if math.Abs(v) >= coefBound {
				return penalty(x)
			}
		}
		sse := filter(o, z, 0, start, x, resid)
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return penalty(x)
		}
		return sse
	}

	if dim > 0 {
		params, err = minimize(objective, params, opts.MaxEvaluations)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", errdefs.ErrModelFit, o, err)
		}
	}
	m.setParams(params)

	m.residuals = make([]float64, len(w))
	sseZ := filter(o, z, 0, start, params, m.residuals)
	if math.IsNaN(sseZ) || math.IsInf(sseZ, 0) {
		return fmt.Errorf("%w: %s: non-finite sum of squares", errdefs.ErrModelFit, o)
	}
	for i := range m.residuals {
		m.residuals[i] *= scale
	}

	nEff := len(w) - start
	sse := sseZ * scale * scale
	meanParams := 0
	if m.HasMean {
		meanParams = 1
	}
	k := dim + meanParams + len(m.ExogCoeffs) + 1

	sigma2 := sse / float64(nEff)
	logLik := -0.5 * float64(nEff) * (math.Log(2*math.Pi*sigma2) + 1)
	if math.IsNaN(logLik) || math.IsInf(logLik, 0) {
		return fmt.Errorf("%w: %s: non-finite likelihood", errdefs.ErrModelFit, o)
	}
	ic := stats.CalculateIC(logLik, nEff, k)

	m.LogLik = ic.LogLik
	m.AIC = ic.AIC
	m.AICc = ic.AICc
	m.BIC = ic.BIC
	m.Variance = sigma2
	if dof := nEff - dim - meanParams; dof > 0 {
		m.Variance = sse / float64(dof)
	}
	m.NObs = series.Len()
	m.NEff = nEff
	m.start = start
	m.data = u
	m.diffData = w
	m.standardErrors(objective, params, sseZ/float64(nEff))
	m.fitted = true
	return nil
}

// removeRegression estimates y = b0 + X*b by OLS and returns y - X*b. The
// constant stays in the returned series so that differencing removes it.
func (m *Model) removeRegression(y []float64, exog *timeseries.Exogenous) ([]float64, error) {
	m.ExogNames, m.ExogCoeffs = nil, nil
	if exog.Cols() == 0 {
		return y, nil
	}
	if exog.Rows() != len(y) {
		return nil, fmt.Errorf("%w: %d exogenous rows for %d observations",
			errdefs.ErrInvalidConfiguration, exog.Rows(), len(y))
	}

	cols := exog.Cols()
	x := mat.NewDense(len(y), cols+1, nil)
	for i, row := range exog.Values {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	fit, err := stats.OLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: exogenous regression: %v", errdefs.ErrModelFit, err)
	}

	m.ExogNames = append([]string(nil), exog.Names...)
	m.ExogCoeffs = fit.Coeffs

	u := make([]float64, len(y))
	for i, row := range exog.Values {
		u[i] = y[i] - regression(fit.Coeffs, row)
	}
	return u, nil
}

// regression returns the covariate effect of row, excluding the constant.
func regression(coeffs, row []float64) float64 {
	effect := 0.0
	for j, v := range row {
		effect += coeffs[j+1] * v
	}
	return effect
}

// initialParams seeds AR terms from the autocorrelations and MA terms with
// a small positive value.
func (m *Model) initialParams(z []float64) []float64 {
	o := m.Order
	params := make([]float64, 0, o.ARMAOrder())

	maxLag := max(o.P, o.SP*o.M)
	var acf []float64
	if maxLag > 0 {
		acf = stats.ACF(timeseries.New(z), maxLag)
	}
	at := func(lag int) float64 {
		if lag < len(acf) {
			return clamp(acf[lag]*0.5, -0.5, 0.5)
		}
		return 0
	}

	for i := 1; i <= o.P; i++ {
		params = append(params, at(i))
	}
	for i := 1; i <= o.SP; i++ {
		params = append(params, at(i*o.M))
	}
	for i := 0; i < o.Q+o.SQ; i++ {
		params = append(params, 0.1)
	}
	return params
}

// setParams unpacks [AR, SAR, MA, SMA] into the coefficient slices.
func (m *Model) setParams(x []float64) {
	o := m.Order
	m.ARCoeffs = append([]float64(nil), x[:o.P]...)
	m.SARCoeffs = append([]float64(nil), x[o.P:o.P+o.SP]...)
	m.MACoeffs = append([]float64(nil), x[o.P+o.SP:o.P+o.SP+o.Q]...)
	m.SMACoeffs = append([]float64(nil), x[o.P+o.SP+o.Q:]...)
}

func (m *Model) params() []float64 {
	x := make([]float64, 0, m.Order.ARMAOrder())
	x = append(x, m.ARCoeffs...)
	x = append(x, m.SARCoeffs...)
	x = append(x, m.MACoeffs...)
	return append(x, m.SMACoeffs...)
}

// filter computes one-step residuals of the ARMA recursion
//
//	w[t] = mu + sum ar_i (w[t-i]-mu) + sum sar_j (w[t-jm]-mu)
//	          + sum ma_i e[t-i] + sum sma_j e[t-jm] + e[t]
//
// into resid and returns the sum of squares from start on. Residuals
// before start are zero.
func filter(o Order, w []float64, mu float64, start int, x, resid []float64) float64 {
	ar := x[:o.P]
	sar := x[o.P : o.P+o.SP]
	ma := x[o.P+o.SP : o.P+o.SP+o.Q]
	sma := x[o.P+o.SP+o.Q:]

	for t := 0; t < start && t < len(resid); t++ {
		resid[t] = 0
	}

	sse := 0.0
	for t := start; t < len(w); t++ {
		pred := predict(o, w, resid, mu, t, ar, sar, ma, sma)
		resid[t] = w[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse
}

func predict(o Order, w, resid []float64, mu float64, t int, ar, sar, ma, sma []float64) float64 {
	pred := mu
	for i := 0; i < len(ar) && t-i-1 >= 0; i++ {
		pred += ar[i] * (w[t-i-1] - mu)
	}
	for i := range sar {
		if lag := (i + 1) * o.M; t-lag >= 0 {
			pred += sar[i] * (w[t-lag] - mu)
		}
	}
	for i := 0; i < len(ma) && t-i-1 >= 0; i++ {
		pred += ma[i] * resid[t-i-1]
	}
	for i := range sma {
		if lag := (i + 1) * o.M; t-lag >= 0 {
			pred += sma[i] * resid[t-lag]
		}
	}
	return pred
}

func penalty(x []float64) float64 {
	excess := 0.0
	for _, v := range x {
		if a := math.Abs(v); a >= coefBound {
			excess += a - coefBound + 1
		}
	}
	return 1e10 * (1 + excess)
}

// minimize runs Nelder-Mead. Hitting an evaluation limit still yields the
// best point found.
func minimize(f func([]float64) float64, x0 []float64, maxEvals int) ([]float64, error) {
	if maxEvals <= 0 {
		maxEvals = 4000
	}
	problem := optimize.Problem{Func: f}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 200,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if res == nil {
		return nil, err
	}
	if err != nil && res.Status != optimize.FunctionEvaluationLimit && res.Status != optimize.IterationLimit {
		return nil, err
	}
	if math.IsNaN(res.F) || math.IsInf(res.F, 0) || res.F >= 1e10 {
		return nil, errors.New("optimizer found no admissible coefficients")
	}
	return res.X, nil
}

// standardErrors approximates coefficient standard errors from the
// curvature of the sum of squares: Cov = 2 s2 H^-1.
func (m *Model) standardErrors(objective func([]float64) float64, x []float64, s2 float64) {
	o := m.Order
	se := make([]float64, len(x))
	for i := range se {
		se[i] = math.NaN()
	}

	if len(x) > 0 {
		var h mat.SymDense
		fd.Hessian(&h, objective, x, nil)
		var chol mat.Cholesky
		if chol.Factorize(&h) {
			var inv mat.SymDense
			if err := chol.InverseTo(&inv); err == nil {
				for i := range se {
					if v := 2 * s2 * inv.At(i, i); v > 0 {
						se[i] = math.Sqrt(v)
					}
				}
			}
		}
	}

	m.ARStdErrors = se[:o.P]
	m.SARStdErrors = se[o.P : o.P+o.SP]
	m.MAStdErrors = se[o.P+o.SP : o.P+o.SP+o.Q]
	m.SMAStdErrors = se[o.P+o.SP+o.Q:]
}

// Residuals returns the one-step residuals that entered the sum of squares.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals[m.start:]...)
}

// Fitted reports whether Fit succeeded.
func (m *Model) Fitted() bool {
	return m.fitted
}

// Summary represents a model summary.
type Summary struct {
	Order        Order
	ARCoeffs     []float64
	MACoeffs     []float64
	SARCoeffs    []float64
	SMACoeffs    []float64
	ARStdErrors  []float64 // Standard errors for AR coefficients
	MAStdErrors  []float64 // Standard errors for MA coefficients
	SARStdErrors []float64 // Standard errors for seasonal AR coefficients
	SMAStdErrors []float64 // Standard errors for seasonal MA coefficients
	Intercept    float64
	HasMean      bool
	ExogNames    []string
	ExogCoeffs   []float64
	Variance     float64
	AIC          float64
	AICc         float64 // Corrected AIC
	BIC          float64
	LogLik       float64
	NObs         int
	NEff         int
	LjungBox     *stats.LjungBoxResult
	DurbinWatson float64
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	resid := m.Residuals()
	lags := min(10, len(resid)/5)
	lb := stats.LjungBox(timeseries.New(resid), lags, m.Order.ARMAOrder())

	return &Summary{
		Order:        m.Order,
		ARCoeffs:     m.ARCoeffs,
		MACoeffs:     m.MACoeffs,
		SARCoeffs:    m.SARCoeffs,
		SMACoeffs:    m.SMACoeffs,
		ARStdErrors:  m.ARStdErrors,
		MAStdErrors:  m.MAStdErrors,
		SARStdErrors: m.SARStdErrors,
		SMAStdErrors: m.SMAStdErrors,
		Intercept:    m.Intercept,
		HasMean:      m.HasMean,
		ExogNames:    m.ExogNames,
		ExogCoeffs:   m.ExogCoeffs,
		Variance:     m.Variance,
		AIC:          m.AIC,
		AICc:         m.AICc,
		BIC:          m.BIC,
		LogLik:       m.LogLik,
		NObs:         m.NObs,
		NEff:         m.NEff,
		LjungBox:     lb,
		DurbinWatson: stats.DurbinWatson(resid),
	}
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
