// Package evaluation computes forecast accuracy metrics.
package evaluation

import (
	"fmt"
	"math"

	"github.com/sartorproj/parkcast/errdefs"
)

// Metrics compares a forecast with the held-out actuals. MAPE is a
// fraction, not a percentage.
type Metrics struct {
	MAE  float64
	MAPE float64
	RMSE float64
	N    int

	// ZeroActuals counts points left out of MAPE because the actual value
	// is zero. MAPE is NaN when every actual is zero.
	ZeroActuals int
}

// Evaluate computes MAE, MAPE and RMSE over paired actual and forecast
// values.
func Evaluate(actual, forecast []float64) (Metrics, error) {
	if len(actual) != len(forecast) {
		return Metrics{}, fmt.Errorf("%w: %d actual values, %d forecasts",
			errdefs.ErrMismatchedLength, len(actual), len(forecast))
	}
	if len(actual) == 0 {
		return Metrics{}, fmt.Errorf("%w: nothing to evaluate", errdefs.ErrMismatchedLength)
	}

	var absSum, sqSum, pctSum float64
	m := Metrics{N: len(actual)}
	for i, a := range actual {
		e := math.Abs(a - forecast[i])
		absSum += e
		sqSum += e * e
		if a == 0 {
			m.ZeroActuals++
			continue
		}
		pctSum += e / math.Abs(a)
	}

	n := float64(m.N)
	m.MAE = absSum / n
	m.RMSE = math.Sqrt(sqSum / n)
	m.MAPE = math.NaN()
	if counted := m.N - m.ZeroActuals; counted > 0 {
		m.MAPE = pctSum / float64(counted)
	}
	return m, nil
}
