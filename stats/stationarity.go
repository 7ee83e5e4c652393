package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

// MinUnitRootObservations is the shortest series ADF and Phillips-Perron accept.
const MinUnitRootObservations = 10

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	IsStationary bool
}

// ADF performs the Augmented Dickey-Fuller test for a unit root with a
// constant term. The null hypothesis is that the series has a unit root.
//
// With maxLag <= 0 the lag order is chosen by AIC over
// 0..ceil(12*(n/100)^(1/4)); a positive maxLag is used as given.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	n := series.Len()
	if n < MinUnitRootObservations {
		return nil, fmt.Errorf("%w: adf needs %d observations, got %d",
			errdefs.ErrInsufficientHistory, MinUnitRootObservations, n)
	}

	autolag := maxLag <= 0
	if autolag {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if limit := n/2 - 2; maxLag > limit {
		maxLag = limit
	}
	// Keep enough degrees of freedom for the largest regression.
	for maxLag > 0 && n-maxLag-1 < maxLag+4 {
		maxLag--
	}

	diff := series.Diff()

	lag := maxLag
	if autolag {
		best := math.Inf(1)
		for l := 0; l <= maxLag; l++ {
			fit, err := adfRegression(series.Values, diff.Values, l, maxLag)
			if err != nil {
				continue
			}
			if aic := fit.AIC(); aic < best {
				best, lag = aic, l
			}
		}
	}

	fit, err := adfRegression(series.Values, diff.Values, lag, lag)
	if err != nil {
		return nil, fmt.Errorf("adf regression: %w", err)
	}
	if fit.StdErrors[1] == 0 || math.IsNaN(fit.StdErrors[1]) {
		return nil, fmt.Errorf("adf regression: degenerate series")
	}

	tStat := fit.Coeffs[1] / fit.StdErrors[1]
	pValue := MacKinnonPValue(tStat)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         lag,
		NObs:         fit.N,
		CriticalVals: mackinnonCritical(fit.N),
		IsStationary: pValue < 0.05,
	}, nil
}

// adfRegression fits diff[t] = a + b*y[t] + sum(g_j * diff[t-j]) using
// observations from index start onwards so that lag searches share a sample.
func adfRegression(levels, diff []float64, lags, start int) (*OLSResult, error) {
	nObs := len(diff) - start
	k := 2 + lags
	x := mat.NewDense(nObs, k, nil)
	y := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + start
		y[i] = diff[t]
		x.Set(i, 0, 1)
		x.Set(i, 1, levels[t])
		for j := 1; j <= lags; j++ {
			x.Set(i, 1+j, diff[t-j])
		}
	}
	return OLS(x, y)
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is level ("c") or trend ("ct")
// stationary.
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	n := series.Len()
	if n < MinUnitRootObservations {
		return nil, fmt.Errorf("%w: kpss needs %d observations, got %d",
			errdefs.ErrInsufficientHistory, MinUnitRootObservations, n)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == "ct" {
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i)
		}
		a, b := stat.LinearRegression(t, series.Values, nil, false)
		for i, v := range series.Values {
			residuals[i] = v - a - b*t[i]
		}
	} else {
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	s2 := longRunVariance(residuals, nlags)
	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq := 0.0
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	table := kpssLevelTable
	if regression == "ct" {
		table = kpssTrendTable
	}
	pValue := kpssPValue(kpssStat, table)

	return &KPSSResult{
		Statistic: kpssStat,
		PValue:    pValue,
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"10%":  table[0],
			"5%":   table[1],
			"2.5%": table[2],
			"1%":   table[3],
		},
		IsStationary: pValue >= 0.05,
	}, nil
}

// longRunVariance is the Newey-West estimator with Bartlett weights.
func longRunVariance(residuals []float64, nlags int) float64 {
	n := len(residuals)
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)

	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	return s2
}

// PhillipsPerronResult represents the result of a Phillips-Perron test.
type PhillipsPerronResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// PhillipsPerron performs the Phillips-Perron Z-tau test for a unit root
// with a constant. Serial correlation is handled by a Newey-West correction
// instead of lagged differences.
func PhillipsPerron(series *timeseries.Series, nlags int) (*PhillipsPerronResult, error) {
	n := series.Len()
	if n < MinUnitRootObservations {
		return nil, fmt.Errorf("%w: phillips-perron needs %d observations, got %d",
			errdefs.ErrInsufficientHistory, MinUnitRootObservations, n)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}

	// diff[t] = a + b*y[t-1] + e
	nObs := n - 1
	y := make([]float64, nObs)
	x := mat.NewDense(nObs, 2, nil)
	for i := 0; i < nObs; i++ {
		y[i] = series.Values[i+1] - series.Values[i]
		x.Set(i, 0, 1)
		x.Set(i, 1, series.Values[i])
	}

	fit, err := OLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("phillips-perron regression: %w", err)
	}
	if fit.StdErrors[1] == 0 || math.IsNaN(fit.StdErrors[1]) {
		return nil, fmt.Errorf("phillips-perron regression: degenerate series")
	}

	gamma0 := 0.0
	for _, r := range fit.Residuals {
		gamma0 += r * r
	}
	gamma0 /= float64(nObs)

	lambda2 := longRunVariance(fit.Residuals, nlags)
	if lambda2 <= 0 {
		lambda2 = gamma0
	}
	s2 := fit.SSE / float64(nObs-2)

	tStat := fit.Coeffs[1] / fit.StdErrors[1]
	ppStat := math.Sqrt(gamma0/lambda2)*tStat -
		(lambda2-gamma0)*float64(nObs)*fit.StdErrors[1]/(2*math.Sqrt(lambda2)*math.Sqrt(s2))

	pValue := MacKinnonPValue(ppStat)

	return &PhillipsPerronResult{
		Statistic:    ppStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: mackinnonCritical(nObs),
		IsStationary: pValue < 0.05,
	}, nil
}

// MacKinnon (1994) response surface for the tau statistic with a constant
// and a single integrated variable.
const (
	tauMax  = 2.74
	tauMin  = -18.83
	tauStar = -1.61
)

var (
	tauSmallP = [3]float64{2.1659, 1.4412, 0.038269}
	tauLargeP = [4]float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// MacKinnonPValue returns the approximate p-value of a Dickey-Fuller tau
// statistic for a regression with a constant.
func MacKinnonPValue(tau float64) float64 {
	switch {
	case math.IsNaN(tau):
		return math.NaN()
	case tau > tauMax:
		return 1
	case tau < tauMin:
		return 0
	}

	var z float64
	if tau <= tauStar {
		z = tauSmallP[0] + tauSmallP[1]*tau + tauSmallP[2]*tau*tau
	} else {
		z = tauLargeP[0] + tauLargeP[1]*tau + tauLargeP[2]*tau*tau + tauLargeP[3]*tau*tau*tau
	}
	return distuv.UnitNormal.CDF(z)
}

// mackinnonCritical returns finite-sample critical values (MacKinnon 2010).
func mackinnonCritical(nobs int) map[string]float64 {
	n := float64(nobs)
	return map[string]float64{
		"1%":  -3.43035 - 6.5393/n - 16.786/(n*n) - 79.433/(n*n*n),
		"5%":  -2.86154 - 2.8903/n - 4.234/(n*n) - 40.040/(n*n*n),
		"10%": -2.56677 - 1.5384/n - 2.809/(n*n),
	}
}

// KPSS critical values at 10%, 5%, 2.5% and 1%.
var (
	kpssLevelTable = [4]float64{0.347, 0.463, 0.574, 0.739}
	kpssTrendTable = [4]float64{0.119, 0.146, 0.176, 0.216}
	kpssPValues    = [4]float64{0.10, 0.05, 0.025, 0.01}
)

// kpssPValue interpolates the KPSS table. Results are clipped to [0.01, 0.10].
func kpssPValue(stat float64, table [4]float64) float64 {
	if stat <= table[0] {
		return kpssPValues[0]
	}
	if stat >= table[3] {
		return kpssPValues[3]
	}
	for i := 1; i < len(table); i++ {
		if stat <= table[i] {
			frac := (stat - table[i-1]) / (table[i] - table[i-1])
			return kpssPValues[i-1] + frac*(kpssPValues[i]-kpssPValues[i-1])
		}
	}
	return kpssPValues[3]
}
