package split

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

func series(n int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	s := timeseries.New(values)
	s.Name = "YELL"
	return s
}

func TestSplitFraction(t *testing.T) {
	s := series(100)

	res, err := Split(s, Fraction(0.2), nil)
	require.NoError(t, err)
	assert.Equal(t, 80, res.Train.Len())
	assert.Equal(t, 20, res.Test.Len())
	assert.Nil(t, res.TrainExog)
	assert.Nil(t, res.TestExog)

	// Concatenation reconstructs the input and partitions do not overlap.
	joined := append(append([]float64{}, res.Train.Values...), res.Test.Values...)
	assert.Equal(t, s.Values, joined)
	assert.True(t, res.Train.Timestamps[79].Before(res.Test.Timestamps[0]))
	assert.Equal(t, "YELL", res.Test.Name)
}

func TestSplitFractionTruncates(t *testing.T) {
	res, err := Split(series(101), Fraction(0.25), nil)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Test.Len())
	assert.Equal(t, 76, res.Train.Len())
}

func TestSplitCount(t *testing.T) {
	res, err := Split(series(100), Count(12), nil)
	require.NoError(t, err)
	assert.Equal(t, 88, res.Train.Len())
	assert.Equal(t, 12, res.Test.Len())
	assert.Equal(t, 88.0, res.Test.Values[0])
}

func TestSplitInvalidSizes(t *testing.T) {
	s := series(100)

	tests := []struct {
		name string
		size TestSize
	}{
		{"zero", Fraction(0)},
		{"whole series", Count(100)},
		{"beyond series", Count(150)},
		{"unset", TestSize{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(s, tt.size, nil)
			assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
		})
	}

	_, err := Split(series(3), Fraction(0.2), nil)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration, "floor(0.6) leaves an empty test set")
}

func TestParseTestSize(t *testing.T) {
	valid := []struct {
		in   any
		want string
	}{
		{0.2, "0.2"},
		{12, "12"},
		{int64(6), "6"},
		{24.0, "24"},
		{"0.3", "0.3"},
		{"18", "18"},
		{Count(5), "5"},
	}
	for _, tt := range valid {
		ts, err := ParseTestSize(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, ts.String())
	}

	invalid := []any{0, 0.0, 1.5, -0.2, -3, "abc", true, nil, []int{1}}
	for _, in := range invalid {
		_, err := ParseTestSize(in)
		assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration, "%v", in)
	}
}

func TestSplitWithExogenous(t *testing.T) {
	// Covariates cover two extra months on each side of the series.
	base := timeseries.Epoch.AddDate(0, -2, 0)
	frame := timeseries.NewFrame(nil)
	for i := 0; i < 14; i++ {
		frame.Timestamps = append(frame.Timestamps, base.AddDate(0, i, 0))
	}
	temps := make([]float64, 14)
	for i := range temps {
		temps[i] = float64(100 + i)
	}
	require.NoError(t, frame.AddColumn("temp", temps))
	exog, err := frame.Exogenous([]string{"temp"})
	require.NoError(t, err)

	res, err := Split(series(10), Count(3), exog)
	require.NoError(t, err)

	require.Equal(t, 7, res.TrainExog.Rows())
	require.Equal(t, 3, res.TestExog.Rows())
	assert.Equal(t, []float64{102}, res.TrainExog.Values[0])
	assert.Equal(t, []float64{109}, res.TestExog.Values[0])
	assert.Equal(t, res.Test.Timestamps, res.TestExog.Timestamps)
}

func TestSplitExogenousMissingRows(t *testing.T) {
	frame := timeseries.NewFrame([]time.Time{timeseries.Epoch})
	require.NoError(t, frame.AddColumn("temp", []float64{1}))
	exog, err := frame.Exogenous([]string{"temp"})
	require.NoError(t, err)

	_, err = Split(series(10), Count(3), exog)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
}
