// Package timeseries provides the series, frame and exogenous matrix types
// the forecasting pipeline operates on.
package timeseries

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/parkcast/errdefs"
)

// Series represents a named time series with timestamps and values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// Epoch is the first month used by New.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// New creates a monthly series from values, starting at Epoch.
func New(values []float64) *Series {
	return NewMonthly(Epoch, values)
}

// NewMonthly creates a series with one observation per calendar month,
// starting at the month containing start.
func NewMonthly(start time.Time, values []float64) *Series {
	start = MonthStart(start)
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = start.AddDate(0, i, 0)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values",
			errdefs.ErrInvalidConfiguration, len(timestamps), len(values))
	}
	s := &Series{
		Timestamps: timestamps,
		Values:     values,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MonthStart truncates t to midnight UTC on the first day of its month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Validate checks that timestamps are strictly increasing and aligned with values.
func (s *Series) Validate() error {
	if len(s.Timestamps) != len(s.Values) {
		return fmt.Errorf("%w: series %q has %d timestamps for %d values",
			errdefs.ErrInvalidConfiguration, s.Name, len(s.Timestamps), len(s.Values))
	}
	for i := 1; i < len(s.Timestamps); i++ {
		if !s.Timestamps[i].After(s.Timestamps[i-1]) {
			return fmt.Errorf("%w: series %q timestamps not strictly increasing at %s",
				errdefs.ErrInvalidConfiguration, s.Name, s.Timestamps[i].Format(time.DateOnly))
		}
	}
	return nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.StdDev(s.Values, nil)
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Diff calculates the first difference of the series, dropping the
// leading undefined entry.
func (s *Series) Diff() *Series {
	return s.DiffLag(1)
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.DiffLag(m)
}

// DiffLag returns y[t] - y[t-k]. The result is k observations shorter and
// keeps the timestamps of the later observation.
func (s *Series) DiffLag(k int) *Series {
	if k <= 0 || len(s.Values) <= k {
		return &Series{Values: []float64{}, Timestamps: []time.Time{}, Name: s.Name}
	}

	result := make([]float64, len(s.Values)-k)
	for i := k; i < len(s.Values); i++ {
		result[i-k] = s.Values[i] - s.Values[i-k]
	}

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) == len(s.Values) {
		copy(timestamps, s.Timestamps[k:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name,
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Timestamps: []time.Time{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Tail returns the last n observations.
func (s *Series) Tail(n int) *Series {
	return s.Slice(len(s.Values)-n, len(s.Values))
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// DropNaN returns a copy of the series without missing observations.
func (s *Series) DropNaN() *Series {
	out := &Series{
		Timestamps: make([]time.Time, 0, len(s.Values)),
		Values:     make([]float64, 0, len(s.Values)),
		Name:       s.Name,
	}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Values = append(out.Values, v)
		if i < len(s.Timestamps) {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		}
	}
	return out
}

// RollingMean calculates a centered moving average with the given window.
// Positions without a full window are NaN, so the result keeps the length
// and timestamps of the input.
func (s *Series) RollingMean(window int) *Series {
	n := len(s.Values)
	result := make([]float64, n)
	for i := range result {
		result[i] = math.NaN()
	}
	if window > 0 && window <= n {
		// Even windows put the extra observation on the left, as pandas does.
		left := window / 2
		sum := 0.0
		for i := 0; i < window; i++ {
			sum += s.Values[i]
		}
		result[left] = sum / float64(window)
		for i := window; i < n; i++ {
			sum += s.Values[i] - s.Values[i-window]
			result[i-window+1+left] = sum / float64(window)
		}
	}

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + "_rolling_mean",
	}
}
