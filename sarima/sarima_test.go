package sarima

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

func seasonalSeries(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		trend := 0.5 * float64(i)
		seasonal := 20 * math.Sin(2*math.Pi*float64(i)/12)
		values[i] = 100 + trend + seasonal + rng.NormFloat64()
	}
	return values
}

func ar1Series(n int, phi float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + rng.NormFloat64()
	}
	return values
}

func TestOrderString(t *testing.T) {
	assert.Equal(t, "ARIMA(1,1,2)", Order{P: 1, D: 1, Q: 2}.String())
	assert.Equal(t, "SARIMA(0,1,1)(0,1,1)[12]", Order{D: 1, Q: 1, SD: 1, SQ: 1, M: 12}.String())
	// A period without seasonal terms is plain ARIMA.
	assert.Equal(t, "ARIMA(2,0,0)", Order{P: 2, M: 12}.String())
}

func TestOrderValidate(t *testing.T) {
	require.NoError(t, Order{P: 1, D: 1, SQ: 1, M: 12}.Validate())

	err := Order{P: -1}.Validate()
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	err = Order{SP: 1, M: 1}.Validate()
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
}

func TestFitRecoversAR1(t *testing.T) {
	model := New(Order{P: 1})
	require.NoError(t, model.Fit(timeseries.New(ar1Series(500, 0.6, 7)), nil))

	assert.True(t, model.Fitted())
	assert.InDelta(t, 0.6, model.ARCoeffs[0], 0.1)
	assert.True(t, model.HasMean)
	assert.InDelta(t, 1.0, model.Variance, 0.2)
	require.Len(t, model.ARStdErrors, 1)
	assert.Greater(t, model.ARStdErrors[0], 0.0)
	assert.Less(t, model.ARStdErrors[0], 0.2)
	assert.Len(t, model.Residuals(), model.NEff)
	assert.Equal(t, 500, model.NObs)
}

func TestFitSeasonal(t *testing.T) {
	values := seasonalSeries(132, 3)
	train := timeseries.New(values[:120])

	model := New(Order{P: 1, SQ: 1, SD: 1, M: 12})
	require.NoError(t, model.Fit(train, nil))
	assert.Len(t, model.SMACoeffs, 1)
	assert.False(t, math.IsNaN(model.AIC))

	fc, err := model.Forecast(12, nil, 0.05)
	require.NoError(t, err)
	require.Equal(t, 12, fc.Len())

	for h := 0; h < 12; h++ {
		assert.Less(t, fc.Lower[h], fc.Mean[h])
		assert.Greater(t, fc.Upper[h], fc.Mean[h])
		assert.InDelta(t, values[120+h], fc.Mean[h], 10)
		if h > 0 {
			assert.GreaterOrEqual(t, fc.StdErr[h], fc.StdErr[h-1])
		}
	}
}

func TestRandomWalkIntervals(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 200)
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + rng.NormFloat64()
	}

	model := New(Order{D: 1})
	require.NoError(t, model.Fit(timeseries.New(values), nil))

	fc, err := model.Forecast(4, nil, 0.05)
	require.NoError(t, err)

	// Every psi weight of a random walk is one, so the standard error grows
	// with the square root of the horizon.
	assert.InDelta(t, 2.0, fc.StdErr[3]/fc.StdErr[0], 1e-9)
	// The forecast follows the estimated drift.
	step := fc.Mean[1] - fc.Mean[0]
	assert.InDelta(t, model.Intercept, step, 1e-9)
	assert.InDelta(t, values[len(values)-1]+model.Intercept, fc.Mean[0], 1e-9)
}

func TestSecondDifferenceHasNoMean(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := make([]float64, 80)
	for i := range values {
		x := float64(i)
		values[i] = 0.3*x*x + rng.NormFloat64()
	}
	model := New(Order{D: 2, Q: 1})
	require.NoError(t, model.Fit(timeseries.New(values), nil))
	assert.False(t, model.HasMean)
	assert.Zero(t, model.Intercept)
}

func TestFitErrors(t *testing.T) {
	t.Run("insufficient history", func(t *testing.T) {
		err := New(Order{P: 1, Q: 1}).Fit(timeseries.New([]float64{1, 2, 3, 2, 1, 2, 3, 2}), nil)
		assert.ErrorIs(t, err, errdefs.ErrInsufficientHistory)
	})

	t.Run("non-finite value", func(t *testing.T) {
		values := ar1Series(50, 0.5, 1)
		values[10] = math.NaN()
		err := New(Order{P: 1}).Fit(timeseries.New(values), nil)
		assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
	})

	t.Run("constant series", func(t *testing.T) {
		values := make([]float64, 40)
		for i := range values {
			values[i] = 5
		}
		err := New(Order{D: 1}).Fit(timeseries.New(values), nil)
		assert.ErrorIs(t, err, errdefs.ErrModelFit)
	})

	t.Run("invalid order", func(t *testing.T) {
		err := New(Order{SP: 1}).Fit(timeseries.New(ar1Series(50, 0.5, 1)), nil)
		assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
	})
}

func TestForecastErrors(t *testing.T) {
	_, err := New(Order{P: 1}).Forecast(3, nil, 0.05)
	assert.Error(t, err)

	model := New(Order{P: 1})
	require.NoError(t, model.Fit(timeseries.New(ar1Series(100, 0.5, 2)), nil))

	_, err = model.Forecast(0, nil, 0.05)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	_, err = model.Forecast(3, nil, 1)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	exog := &timeseries.Exogenous{Names: []string{"x"}, Values: [][]float64{{1}, {2}, {3}}}
	_, err = model.Forecast(3, exog, 0.05)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)
}

func TestExogenousRegression(t *testing.T) {
	const n = 200
	rng := rand.New(rand.NewSource(9))
	noise := ar1Series(n+6, 0.4, 13)
	exog := &timeseries.Exogenous{Names: []string{"temperature"}, Values: make([][]float64, n+6)}
	values := make([]float64, n+6)
	for i := range values {
		x := rng.NormFloat64() * 5
		exog.Values[i] = []float64{x}
		values[i] = 10 + 3*x + noise[i]
	}

	model := New(Order{P: 1})
	require.NoError(t, model.Fit(timeseries.New(values[:n]), &Options{Exog: exog.Slice(0, n)}))
	require.Len(t, model.ExogCoeffs, 2)
	assert.Equal(t, []string{"temperature"}, model.ExogNames)
	assert.InDelta(t, 3.0, model.ExogCoeffs[1], 0.2)

	_, err := model.Forecast(6, nil, 0.05)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	_, err = model.Forecast(6, exog.Slice(n, n+3), 0.05)
	assert.ErrorIs(t, err, errdefs.ErrInvalidConfiguration)

	fc, err := model.Forecast(6, exog.Slice(n, n+6), 0.05)
	require.NoError(t, err)
	for h := 0; h < 6; h++ {
		assert.InDelta(t, values[n+h], fc.Mean[h], 6)
	}

	assert.ErrorIs(t, New(Order{P: 1}).Fit(timeseries.New(values[:n]), &Options{Exog: exog}),
		errdefs.ErrInvalidConfiguration)
}

func TestSharedConditioning(t *testing.T) {
	series := timeseries.New(ar1Series(150, 0.5, 21))

	a := New(Order{P: 1})
	b := New(Order{P: 3})
	require.NoError(t, a.Fit(series, &Options{ConditionOn: 3}))
	require.NoError(t, b.Fit(series, &Options{ConditionOn: 3}))
	assert.Equal(t, a.NEff, b.NEff)
}

func TestJSONRoundTrip(t *testing.T) {
	values := seasonalSeries(120, 4)
	model := New(Order{P: 1, Q: 1, SD: 1, M: 12})
	require.NoError(t, model.Fit(timeseries.New(values), nil))

	raw, err := json.Marshal(model)
	require.NoError(t, err)

	var restored Model
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.True(t, restored.Fitted())
	assert.Equal(t, model.Order, restored.Order)
	assert.Equal(t, model.ARCoeffs, restored.ARCoeffs)

	want, err := model.Forecast(12, nil, 0.1)
	require.NoError(t, err)
	got, err := restored.Forecast(12, nil, 0.1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Mean, got.Mean, 1e-9)
	assert.InDeltaSlice(t, want.Upper, got.Upper, 1e-9)

	_, err = json.Marshal(New(Order{P: 1}))
	assert.Error(t, err)

	assert.Error(t, json.Unmarshal([]byte(`{"order":{"P":2},"ar":[0.1]}`), &restored))
}

func TestDifferencingPoly(t *testing.T) {
	assert.Equal(t, []float64{1}, differencingPoly(Order{}))
	assert.Equal(t, []float64{1, -2, 1}, differencingPoly(Order{D: 2}))
	assert.Equal(t, []float64{1, -1, 0, 0, -1, 1}, differencingPoly(Order{D: 1, SD: 1, M: 4}))

	// (1-B) applied to 1,3,6,10 gives the first differences.
	assert.Equal(t, []float64{2, 3, 4}, applyPoly([]float64{1, -1}, []float64{1, 3, 6, 10}))
	assert.Empty(t, applyPoly([]float64{1, 0, -1}, []float64{1, 2}))
}

func TestSummary(t *testing.T) {
	assert.Nil(t, New(Order{P: 1}).Summary())

	model := New(Order{P: 1, Q: 1})
	require.NoError(t, model.Fit(timeseries.New(ar1Series(200, 0.5, 8)), nil))

	s := model.Summary()
	require.NotNil(t, s)
	require.NotNil(t, s.LjungBox)
	assert.Equal(t, model.AIC, s.AIC)
	// Residuals of a correctly specified model look like white noise.
	assert.InDelta(t, 2.0, s.DurbinWatson, 0.4)
}
