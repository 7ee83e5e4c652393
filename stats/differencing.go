package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/parkcast/timeseries"
)

// UnitRootTest selects the test NDiffs uses to decide on differencing.
type UnitRootTest string

const (
	TestKPSS UnitRootTest = "kpss"
	TestADF  UnitRootTest = "adf"
	TestPP   UnitRootTest = "pp"
)

// SeasonalStrengthThreshold is the seasonal strength at or above which
// NSDiffs suggests a seasonal difference.
const SeasonalStrengthThreshold = 0.64

// NDiffs determines the number of first differences required for
// stationarity at the 5% level, between 0 and maxD (default 2).
// Testing stops early when the differenced series gets too short.
func NDiffs(series *timeseries.Series, maxD int, test UnitRootTest) int {
	if maxD <= 0 {
		maxD = 2
	}
	if test == "" {
		test = TestKPSS
	}

	current := series
	for d := 0; d < maxD; d++ {
		stationary, ok := isStationary(current, test)
		if !ok || stationary {
			return d
		}

		current = current.Diff()
		if current.Len() < MinUnitRootObservations {
			return d
		}
	}

	return maxD
}

// isStationary runs test on s. ok is false when the test could not run.
func isStationary(s *timeseries.Series, test UnitRootTest) (stationary, ok bool) {
	switch test {
	case TestADF:
		r, err := ADF(s, 0)
		if err != nil {
			return false, false
		}
		return r.IsStationary, true
	case TestPP:
		r, err := PhillipsPerron(s, 0)
		if err != nil {
			return false, false
		}
		return r.IsStationary, true
	default:
		if constant(s.Values) {
			return true, true
		}
		r, err := KPSS(s, "c", 0)
		if err != nil {
			return false, false
		}
		return r.IsStationary, true
	}
}

// NSDiffs determines the number of seasonal differences required, using
// the seasonal strength F_S of a classical decomposition. period is the
// seasonal period, 12 for monthly data with a yearly cycle.
func NSDiffs(series *timeseries.Series, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || series.Len() < 2*period {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < SeasonalStrengthThreshold {
			return d
		}

		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d + 1
		}
	}

	return maxD
}

// SeasonalStrength calculates F_S = max(0, 1 - Var(R) / Var(S+R)).
func SeasonalStrength(series *timeseries.Series, period int) float64 {
	decomp := Decompose(series, period)
	if decomp == nil {
		return 0
	}

	var resid, seasonalPlusResid []float64
	for i, r := range decomp.Residual.Values {
		if math.IsNaN(r) {
			continue
		}
		resid = append(resid, r)
		seasonalPlusResid = append(seasonalPlusResid, decomp.Seasonal.Values[i]+r)
	}
	if len(resid) < 2 {
		return 0
	}

	varSR := stat.Variance(seasonalPlusResid, nil)
	if varSR == 0 {
		return 0
	}

	return math.Max(0, 1-stat.Variance(resid, nil)/varSR)
}

func constant(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// InformationCriteria holds the likelihood-based model selection criteria.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
