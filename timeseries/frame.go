package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sartorproj/parkcast/errdefs"
)

// Frame is a wide table of named columns sharing one timestamp index.
// Missing cells are NaN.
type Frame struct {
	Timestamps []time.Time
	Columns    []string
	data       map[string][]float64
}

// NewFrame creates an empty frame over the given timestamps.
func NewFrame(timestamps []time.Time) *Frame {
	return &Frame{
		Timestamps: timestamps,
		data:       make(map[string][]float64),
	}
}

// AddColumn appends a column. The values must cover every timestamp.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.Timestamps) {
		return fmt.Errorf("%w: column %q has %d values for %d timestamps",
			errdefs.ErrInvalidConfiguration, name, len(values), len(f.Timestamps))
	}
	if _, ok := f.data[name]; ok {
		return fmt.Errorf("%w: duplicate column %q", errdefs.ErrInvalidConfiguration, name)
	}
	f.Columns = append(f.Columns, name)
	f.data[name] = values
	return nil
}

// Has reports whether the frame contains the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Timestamps)
}

// Column returns the named column as a series, NaN cells included. The
// frame's timestamps must be strictly increasing.
func (f *Frame) Column(name string) (*Series, error) {
	values, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown column %q", errdefs.ErrInvalidConfiguration, name)
	}
	s, err := NewWithTimestamps(slices.Clone(f.Timestamps), slices.Clone(values))
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	s.Name = name
	return s, nil
}

// Exogenous extracts the named columns as a covariate matrix over the
// full frame index.
func (f *Frame) Exogenous(names []string) (*Exogenous, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows := make([][]float64, len(f.Timestamps))
	for i := range rows {
		rows[i] = make([]float64, len(names))
	}
	for j, name := range names {
		values, ok := f.data[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown exogenous variable %q",
				errdefs.ErrInvalidConfiguration, name)
		}
		for i, v := range values {
			rows[i][j] = v
		}
	}
	return &Exogenous{
		Timestamps: slices.Clone(f.Timestamps),
		Names:      slices.Clone(names),
		Values:     rows,
	}, nil
}

// Regularize resamples the frame to one row per month start. Rows inside
// the same month keep the last observation. Months absent from the source
// take the previous month's value, NaN included.
func (f *Frame) Regularize() *Frame {
	if len(f.Timestamps) == 0 {
		return f
	}

	order := make([]int, len(f.Timestamps))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return f.Timestamps[a].Compare(f.Timestamps[b])
	})

	first := MonthStart(f.Timestamps[order[0]])
	last := MonthStart(f.Timestamps[order[len(order)-1]])
	var months []time.Time
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}

	out := NewFrame(months)
	for _, name := range f.Columns {
		src := f.data[name]
		values := make([]float64, len(months))
		present := make([]bool, len(months))
		for i := range values {
			values[i] = math.NaN()
		}
		for _, idx := range order {
			pos := monthIndex(first, f.Timestamps[idx])
			if !present[pos] || !math.IsNaN(src[idx]) {
				values[pos] = src[idx]
			}
			present[pos] = true
		}
		// Empty cells in rows the source had stay NaN.
		for i := 1; i < len(values); i++ {
			if !present[i] {
				values[i] = values[i-1]
			}
		}
		out.Columns = append(out.Columns, name)
		out.data[name] = values
	}
	return out
}

func monthIndex(first, t time.Time) int {
	t = t.UTC()
	return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
}

// Exogenous is a matrix of covariates indexed by timestamp, one row per
// timestamp and one column per variable.
type Exogenous struct {
	Timestamps []time.Time
	Names      []string
	Values     [][]float64
}

// Rows returns the number of rows.
func (e *Exogenous) Rows() int {
	if e == nil {
		return 0
	}
	return len(e.Values)
}

// Cols returns the number of covariates.
func (e *Exogenous) Cols() int {
	if e == nil {
		return 0
	}
	return len(e.Names)
}

// Align returns the rows matching timestamps, in that order. Every
// timestamp must exist in the matrix.
func (e *Exogenous) Align(timestamps []time.Time) (*Exogenous, error) {
	index := make(map[int64]int, len(e.Timestamps))
	for i, ts := range e.Timestamps {
		index[ts.UnixNano()] = i
	}
	out := &Exogenous{
		Timestamps: make([]time.Time, len(timestamps)),
		Names:      slices.Clone(e.Names),
		Values:     make([][]float64, len(timestamps)),
	}
	for i, ts := range timestamps {
		row, ok := index[ts.UnixNano()]
		if !ok {
			return nil, fmt.Errorf("%w: exogenous variables missing row for %s",
				errdefs.ErrInvalidConfiguration, ts.Format(time.DateOnly))
		}
		for _, v := range e.Values[row] {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: exogenous variables missing value for %s",
					errdefs.ErrInvalidConfiguration, ts.Format(time.DateOnly))
			}
		}
		out.Timestamps[i] = ts
		out.Values[i] = slices.Clone(e.Values[row])
	}
	return out, nil
}

// Slice returns rows from start to end (exclusive).
func (e *Exogenous) Slice(start, end int) *Exogenous {
	if start < 0 {
		start = 0
	}
	if end > len(e.Values) {
		end = len(e.Values)
	}
	if start > end {
		start = end
	}
	out := &Exogenous{
		Timestamps: slices.Clone(e.Timestamps[start:end]),
		Names:      slices.Clone(e.Names),
		Values:     make([][]float64, end-start),
	}
	for i := start; i < end; i++ {
		out.Values[i-start] = slices.Clone(e.Values[i])
	}
	return out
}
