package stats

import (
	"math"

	"github.com/sartorproj/parkcast/timeseries"
)

// DecompositionResult represents an additive decomposition Y = T + S + R.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
}

// Decompose performs classical additive decomposition: a centered moving
// average trend and a seasonal pattern averaged per position in the cycle.
// It returns nil when the series covers fewer than two periods.
func Decompose(series *timeseries.Series, period int) *DecompositionResult {
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil
	}

	trend := centeredTrend(series.Values, period)

	seasonalPattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(trend[i]) {
			seasonalPattern[i%period] += series.Values[i] - trend[i]
			counts[i%period]++
		}
	}

	mean := 0.0
	for i := range seasonalPattern {
		if counts[i] > 0 {
			seasonalPattern[i] /= float64(counts[i])
		}
		mean += seasonalPattern[i]
	}
	mean /= float64(period)
	for i := range seasonalPattern {
		seasonalPattern[i] -= mean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = seasonalPattern[i%period]
		if math.IsNaN(trend[i]) {
			residual[i] = math.NaN()
		} else {
			residual[i] = series.Values[i] - trend[i] - seasonal[i]
		}
	}

	return &DecompositionResult{
		Original: series,
		Trend:    &timeseries.Series{Values: trend, Timestamps: series.Timestamps, Name: "trend"},
		Seasonal: &timeseries.Series{Values: seasonal, Timestamps: series.Timestamps, Name: "seasonal"},
		Residual: &timeseries.Series{Values: residual, Timestamps: series.Timestamps, Name: "residual"},
		Period:   period,
	}
}

// centeredTrend is a centered moving average; even periods use the 2xm
// filter with half weights at both ends.
func centeredTrend(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5 * (values[i-half] + values[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}
