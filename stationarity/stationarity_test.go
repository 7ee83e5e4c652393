package stationarity

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

// scriptedTest returns p-values keyed by series length.
type scriptedTest struct {
	pByLen map[int]float64
	minObs int
	calls  int
}

func (s *scriptedTest) Name() string         { return "scripted" }
func (s *scriptedTest) MinObservations() int { return s.minObs }

func (s *scriptedTest) PValue(series *timeseries.Series) (float64, float64, error) {
	s.calls++
	p, ok := s.pByLen[series.Len()]
	if !ok {
		return 0, 0, errors.New("unexpected length")
	}
	return -1, p, nil
}

func seeded(n int, seed int64, f func(i int) float64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = f(i) + rng.NormFloat64()
	}
	return timeseries.New(values)
}

func TestReduceAlreadyStationary(t *testing.T) {
	series := seeded(200, 42, func(int) float64 { return 50 })

	res, err := NewReducer(nil).Reduce(series, 0.05, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Diffs)
	assert.Equal(t, series.Len(), res.Series.Len())
	assert.True(t, res.Stationary(0.05))
	assert.Equal(t, "Dickey-Fuller", res.Test)
}

func TestReduceQuadraticTrend(t *testing.T) {
	series := seeded(120, 42, func(i int) float64 { return 0.5 * float64(i*i) })

	res, err := NewReducer(ADF{}).Reduce(series, 0.05, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Diffs)
	assert.Equal(t, 118, res.Series.Len())
	assert.LessOrEqual(t, res.PValue, 0.05)
	assert.Equal(t, series.Timestamps[2], res.Series.Timestamps[0])
}

func TestReducePhillipsPerron(t *testing.T) {
	series := seeded(120, 7, func(i int) float64 { return 0.5 * float64(i*i) })

	res, err := NewReducer(PhillipsPerron{}).Reduce(series, 0.05, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Diffs)
}

func TestReduceStopsAtMaxIterations(t *testing.T) {
	test := &scriptedTest{
		pByLen: map[int]float64{20: 0.9, 19: 0.8, 18: 0.7, 17: 0.6},
		minObs: 10,
	}
	series := timeseries.New(make([]float64, 20))

	res, err := NewReducer(test).Reduce(series, 0.05, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Diffs)
	assert.Equal(t, 18, res.Series.Len())
	assert.Equal(t, 0.7, res.PValue)
	assert.False(t, res.Stationary(0.05))
	assert.Equal(t, 3, test.calls)
}

func TestReduceZeroIterations(t *testing.T) {
	test := &scriptedTest{pByLen: map[int]float64{20: 0.9}, minObs: 10}

	res, err := NewReducer(test).Reduce(timeseries.New(make([]float64, 20)), 0.05, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Diffs)
	assert.Equal(t, 0.9, res.PValue)
}

func TestReduceStopsAtMinimumLength(t *testing.T) {
	test := &scriptedTest{
		pByLen: map[int]float64{12: 0.9, 11: 0.9, 10: 0.9},
		minObs: 10,
	}

	res, err := NewReducer(test).Reduce(timeseries.New(make([]float64, 12)), 0.05, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Diffs)
	assert.Equal(t, 10, res.Series.Len(), "never differenced below the test minimum")
}

func TestReduceEarlyExit(t *testing.T) {
	test := &scriptedTest{pByLen: map[int]float64{30: 0.5, 29: 0.01}, minObs: 10}

	res, err := NewReducer(test).Reduce(timeseries.New(make([]float64, 30)), 0.05, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Diffs)
	assert.Equal(t, 2, test.calls)
}

func TestReduceInvalidArguments(t *testing.T) {
	r := NewReducer(nil)
	series := timeseries.New(make([]float64, 30))

	_, err := r.Reduce(series, 0, 3)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	_, err = r.Reduce(series, 1.5, 3)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	_, err = r.Reduce(series, 0.05, -1)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	_, err = r.Reduce(timeseries.New([]float64{1, 2, 3}), 0.05, 3)
	assert.ErrorIs(t, err, errdefs.ErrInsufficientHistory)
}

func TestParseTest(t *testing.T) {
	for name, want := range map[string]string{"": "Dickey-Fuller", "adf": "Dickey-Fuller", "pp": "Phillips-Perron"} {
		test, err := ParseTest(name)
		require.NoError(t, err)
		assert.Equal(t, want, test.Name())
	}

	_, err := ParseTest("kpss")
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
}

func TestSeasonalDifference(t *testing.T) {
	series := timeseries.New([]float64{1, 2, 3, 4, 5, 6, 7, 8})

	same, err := SeasonalDifference(series, 1)
	require.NoError(t, err)
	assert.Same(t, series, same)

	diff, err := SeasonalDifference(series, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 4, 4, 4}, diff.Values)

	_, err = SeasonalDifference(series, 12)
	assert.ErrorIs(t, err, errdefs.ErrInsufficientHistory)
}
