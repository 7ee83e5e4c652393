// Package stats provides statistical tests and functions for time series analysis.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/parkcast/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := series.Mean()
	variance := 0.0
	for _, v := range series.Values {
		diff := v - mean
		variance += diff * diff
	}

	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (series.Values[i] - mean) * (series.Values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}

// PACF calculates the Partial Autocorrelation Function using the Durbin-Levinson algorithm.
// Returns PACF values for lags 0 to maxLag, with lag 0 fixed at 1.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	acf := ACF(series, maxLag)
	if acf == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1.0

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}

	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}

		if den == 0 {
			pacf[k] = 0
			continue
		}

		phi[k][k] = num / den
		pacf[k] = phi[k][k]

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}

	return pacf
}

// Correlogram holds ACF or PACF values with a white-noise confidence band.
type Correlogram struct {
	Lags       []int
	Values     []float64
	ConfBounds float64 // +/- z(1-alpha/2)/sqrt(n)
}

// ACFWithConfidence calculates ACF with confidence bounds at level 1-alpha.
func ACFWithConfidence(series *timeseries.Series, maxLag int, alpha float64) *Correlogram {
	return newCorrelogram(ACF(series, maxLag), series.Len(), alpha)
}

// PACFWithConfidence calculates PACF with confidence bounds at level 1-alpha.
func PACFWithConfidence(series *timeseries.Series, maxLag int, alpha float64) *Correlogram {
	return newCorrelogram(PACF(series, maxLag), series.Len(), alpha)
}

func newCorrelogram(values []float64, n int, alpha float64) *Correlogram {
	if values == nil {
		return nil
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	lags := make([]int, len(values))
	for i := range lags {
		lags[i] = i
	}

	return &Correlogram{
		Lags:       lags,
		Values:     values,
		ConfBounds: distuv.UnitNormal.Quantile(1-alpha/2) / math.Sqrt(float64(n)),
	}
}
