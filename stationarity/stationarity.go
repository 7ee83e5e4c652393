// Package stationarity searches for the number of first differences a
// series needs before a unit-root test calls it stationary.
package stationarity

import (
	"fmt"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/stats"
	"github.com/sartorproj/parkcast/timeseries"
)

// Test is a unit-root test that reports a p-value under the null
// hypothesis of non-stationarity.
type Test interface {
	// Name identifies the test in logs and plot titles.
	Name() string
	// MinObservations is the shortest series the test accepts.
	MinObservations() int
	// PValue runs the test.
	PValue(s *timeseries.Series) (stat, p float64, err error)
}

// ADF is the Augmented Dickey-Fuller test with AIC lag selection.
type ADF struct{}

func (ADF) Name() string         { return "Dickey-Fuller" }
func (ADF) MinObservations() int { return stats.MinUnitRootObservations }

func (ADF) PValue(s *timeseries.Series) (float64, float64, error) {
	r, err := stats.ADF(s, 0)
	if err != nil {
		return 0, 0, err
	}
	return r.Statistic, r.PValue, nil
}

// PhillipsPerron is the Phillips-Perron Z-tau test.
type PhillipsPerron struct{}

func (PhillipsPerron) Name() string         { return "Phillips-Perron" }
func (PhillipsPerron) MinObservations() int { return stats.MinUnitRootObservations }

func (PhillipsPerron) PValue(s *timeseries.Series) (float64, float64, error) {
	r, err := stats.PhillipsPerron(s, 0)
	if err != nil {
		return 0, 0, err
	}
	return r.Statistic, r.PValue, nil
}

// ParseTest maps a configuration name to a Test. The empty name selects ADF.
func ParseTest(name string) (Test, error) {
	switch name {
	case "", "adf":
		return ADF{}, nil
	case "pp":
		return PhillipsPerron{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown stationarity test %q", errdefs.ErrInvalidConfiguration, name)
	}
}

// Result is the outcome of a stationarity search.
type Result struct {
	Series    *timeseries.Series // the series after Diffs first differences
	Diffs     int
	Statistic float64
	PValue    float64 // p-value of the last test performed
	Test      string
}

// Stationary reports whether the last test rejected a unit root at alpha.
func (r *Result) Stationary(alpha float64) bool {
	return r.PValue <= alpha
}

// Reducer differences a series until Test no longer finds a unit root.
type Reducer struct {
	Test Test
}

// NewReducer returns a reducer using test, or ADF when test is nil.
func NewReducer(test Test) *Reducer {
	if test == nil {
		test = ADF{}
	}
	return &Reducer{Test: test}
}

// Reduce applies first differences while the p-value exceeds significance
// and fewer than maxIterations differences were taken. It never shrinks
// the series below the test's minimum length: when the next difference
// would, the last tested series is returned. Not reaching significance is
// not an error.
func (r *Reducer) Reduce(series *timeseries.Series, significance float64, maxIterations int) (*Result, error) {
	if significance <= 0 || significance >= 1 {
		return nil, fmt.Errorf("%w: significance %v outside (0, 1)", errdefs.ErrInvalidConfiguration, significance)
	}
	if maxIterations < 0 {
		return nil, fmt.Errorf("%w: negative max iterations %d", errdefs.ErrInvalidConfiguration, maxIterations)
	}
	minObs := r.Test.MinObservations()
	if series.Len() < minObs {
		return nil, fmt.Errorf("%w: %d observations, %s needs %d",
			errdefs.ErrInsufficientHistory, series.Len(), r.Test.Name(), minObs)
	}

	current := series
	stat, p, err := r.Test.PValue(current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Test.Name(), err)
	}

	diffs := 0
	for p > significance && diffs < maxIterations {
		if current.Len()-1 < minObs {
			break
		}
		next := current.Diff()
		nextStat, nextP, err := r.Test.PValue(next)
		if err != nil {
			// A degenerate difference (constant series) cannot be tested.
			break
		}
		current, stat, p = next, nextStat, nextP
		diffs++
	}

	return &Result{
		Series:    current,
		Diffs:     diffs,
		Statistic: stat,
		PValue:    p,
		Test:      r.Test.Name(),
	}, nil
}

// SeasonalDifference applies one seasonal difference of period m. Periods
// of 1 or less return the series unchanged.
func SeasonalDifference(series *timeseries.Series, m int) (*timeseries.Series, error) {
	if m <= 1 {
		return series, nil
	}
	if series.Len() <= m {
		return nil, fmt.Errorf("%w: %d observations for seasonal period %d",
			errdefs.ErrInsufficientHistory, series.Len(), m)
	}
	return series.SeasonalDiff(m), nil
}
