// Package split partitions a series into a training prefix and a trailing
// test suffix, cutting exogenous covariates at the same boundary.
package split

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cast"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

// TestSize is either a fraction of the series or a count of observations.
type TestSize struct {
	fraction float64
	count    int
}

// Fraction returns a test size covering floor(f*N) observations.
func Fraction(f float64) TestSize {
	return TestSize{fraction: f}
}

// Count returns a test size covering exactly k observations.
func Count(k int) TestSize {
	return TestSize{count: k}
}

// ParseTestSize converts a configuration value: numbers in (0,1) are
// fractions, integral numbers >= 1 are counts. Numeric strings are accepted.
func ParseTestSize(v any) (TestSize, error) {
	switch t := v.(type) {
	case TestSize:
		return t, t.Validate()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		k, err := cast.ToIntE(t)
		if err != nil {
			return TestSize{}, fmt.Errorf("%w: test size %v: %v", errdefs.ErrInvalidConfiguration, v, err)
		}
		return checked(Count(k))
	case bool, nil:
		return TestSize{}, fmt.Errorf("%w: unsupported test size %v", errdefs.ErrInvalidConfiguration, v)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return TestSize{}, fmt.Errorf("%w: test size %v is not a number", errdefs.ErrInvalidConfiguration, v)
	}
	switch {
	case f > 0 && f < 1:
		return checked(Fraction(f))
	case f >= 1 && f == math.Trunc(f) && f <= math.MaxInt32:
		return checked(Count(int(f)))
	default:
		return TestSize{}, fmt.Errorf("%w: test size %v must be a fraction in (0,1) or a whole count >= 1",
			errdefs.ErrInvalidConfiguration, v)
	}
}

func checked(ts TestSize) (TestSize, error) {
	return ts, ts.Validate()
}

// Validate checks the size independently of any series length.
func (ts TestSize) Validate() error {
	switch {
	case ts.count > 0:
		return nil
	case ts.fraction > 0 && ts.fraction < 1:
		return nil
	default:
		return fmt.Errorf("%w: test size %s", errdefs.ErrInvalidConfiguration, ts)
	}
}

// IsZero reports whether the size was never set.
func (ts TestSize) IsZero() bool {
	return ts.count == 0 && ts.fraction == 0
}

// Cutoff resolves the number of test observations for a series of length n.
func (ts TestSize) Cutoff(n int) (int, error) {
	if err := ts.Validate(); err != nil {
		return 0, err
	}
	cutoff := ts.count
	if ts.count == 0 {
		cutoff = int(math.Floor(ts.fraction * float64(n)))
	}
	if cutoff < 1 {
		return 0, fmt.Errorf("%w: test size %s leaves no test observations out of %d",
			errdefs.ErrInvalidConfiguration, ts, n)
	}
	if cutoff >= n {
		return 0, fmt.Errorf("%w: test size %s leaves no training observations out of %d",
			errdefs.ErrInvalidConfiguration, ts, n)
	}
	return cutoff, nil
}

func (ts TestSize) String() string {
	if ts.count > 0 {
		return strconv.Itoa(ts.count)
	}
	return strconv.FormatFloat(ts.fraction, 'g', -1, 64)
}

// Result is a train/test partition. TrainExog and TestExog are nil when no
// covariates were supplied.
type Result struct {
	Train     *timeseries.Series
	Test      *timeseries.Series
	TrainExog *timeseries.Exogenous
	TestExog  *timeseries.Exogenous
}

// Split cuts the last Cutoff(N) observations off as the test partition.
// Covariates are first aligned to the series timestamps, so exog may
// cover a wider range than the series.
func Split(series *timeseries.Series, size TestSize, exog *timeseries.Exogenous) (*Result, error) {
	n := series.Len()
	cutoff, err := size.Cutoff(n)
	if err != nil {
		return nil, err
	}
	boundary := n - cutoff

	res := &Result{
		Train: series.Slice(0, boundary),
		Test:  series.Slice(boundary, n),
	}

	if exog != nil {
		aligned, err := exog.Align(series.Timestamps)
		if err != nil {
			return nil, err
		}
		res.TrainExog = aligned.Slice(0, boundary)
		res.TestExog = aligned.Slice(boundary, n)
	}

	return res, nil
}
