package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/timeseries"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	return values
}

func quadraticTrend(n int, seed int64) []float64 {
	values := whiteNoise(n, seed)
	for i := range values {
		t := float64(i)
		values[i] += 0.5 * t * t
	}
	return values
}

func TestACF(t *testing.T) {
	n := 100
	phi := 0.8
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	acf := ACF(timeseries.New(values), 10)
	require.NotNil(t, acf)
	assert.Len(t, acf, 11)
	assert.InDelta(t, 1.0, acf[0], 1e-10)
	assert.Greater(t, acf[1], 0.5)

	assert.Nil(t, ACF(timeseries.New([]float64{3, 3, 3}), 2), "constant series has no ACF")
}

func TestPACF(t *testing.T) {
	n := 300
	values := make([]float64, n)
	noise := whiteNoise(n, 3)
	for i := 1; i < n; i++ {
		values[i] = 0.7*values[i-1] + noise[i]
	}

	pacf := PACF(timeseries.New(values), 10)
	require.NotNil(t, pacf)
	assert.InDelta(t, 1.0, pacf[0], 1e-10)
	assert.InDelta(t, 0.7, pacf[1], 0.15)
	for k := 2; k <= 10; k++ {
		assert.Less(t, math.Abs(pacf[k]), 0.25, "lag %d", k)
	}
}

func TestCorrelogramBounds(t *testing.T) {
	series := timeseries.New(whiteNoise(100, 1))

	acf := ACFWithConfidence(series, 20, 0.05)
	require.NotNil(t, acf)
	assert.InDelta(t, 1.96/math.Sqrt(100), acf.ConfBounds, 0.001)
	assert.Equal(t, 20, acf.Lags[len(acf.Lags)-1])

	pacf := PACFWithConfidence(series, 20, 0.01)
	require.NotNil(t, pacf)
	assert.InDelta(t, 2.5758/math.Sqrt(100), pacf.ConfBounds, 0.001)
}

func TestMacKinnonPValue(t *testing.T) {
	assert.InDelta(t, 0.05, MacKinnonPValue(-2.86), 0.005)
	assert.InDelta(t, 0.9585, MacKinnonPValue(0), 0.001)
	assert.Equal(t, 1.0, MacKinnonPValue(3))
	assert.Equal(t, 0.0, MacKinnonPValue(-20))
	assert.True(t, math.IsNaN(MacKinnonPValue(math.NaN())))

	// Monotone in the statistic.
	prev := 0.0
	for tau := -6.0; tau <= 2.5; tau += 0.25 {
		p := MacKinnonPValue(tau)
		assert.GreaterOrEqual(t, p, prev, "tau=%.2f", tau)
		prev = p
	}
}

func TestADFFunc(t *testing.T) {
	stationary, err := ADF(timeseries.New(whiteNoise(200, 42)), 0)
	require.NoError(t, err)
	assert.True(t, stationary.IsStationary)
	assert.Less(t, stationary.PValue, 0.01)
	assert.Less(t, stationary.Statistic, stationary.CriticalVals["1%"])

	trending, err := ADF(timeseries.New(quadraticTrend(120, 42)), 0)
	require.NoError(t, err)
	assert.False(t, trending.IsStationary)
	assert.Greater(t, trending.PValue, 0.05)

	fixed, err := ADF(timeseries.New(whiteNoise(200, 42)), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, fixed.Lags)
	assert.Equal(t, 197, fixed.NObs)
}

func TestADFInsufficientHistory(t *testing.T) {
	_, err := ADF(timeseries.New([]float64{1, 2, 3}), 0)
	assert.ErrorIs(t, err, errdefs.ErrInsufficientHistory)

	_, err = PhillipsPerron(timeseries.New([]float64{1, 2, 3}), 0)
	assert.ErrorIs(t, err, errdefs.ErrInsufficientHistory)

	_, err = KPSS(timeseries.New([]float64{1, 2, 3}), "c", 0)
	assert.ErrorIs(t, err, errdefs.ErrInsufficientHistory)
}

func TestPhillipsPerron(t *testing.T) {
	stationary, err := PhillipsPerron(timeseries.New(whiteNoise(200, 11)), 0)
	require.NoError(t, err)
	assert.True(t, stationary.IsStationary)

	trending, err := PhillipsPerron(timeseries.New(quadraticTrend(120, 11)), 0)
	require.NoError(t, err)
	assert.False(t, trending.IsStationary)
}

func TestKPSSFunc(t *testing.T) {
	values := make([]float64, 120)
	for i := range values {
		values[i] = 10 + math.Sin(float64(i)*2.1)
	}
	level, err := KPSS(timeseries.New(values), "c", 0)
	require.NoError(t, err)
	assert.True(t, level.IsStationary)
	assert.Equal(t, 0.10, level.PValue)

	trend := make([]float64, 120)
	for i := range trend {
		trend[i] = float64(i) + math.Sin(float64(i)*2.1)
	}
	trending, err := KPSS(timeseries.New(trend), "c", 0)
	require.NoError(t, err)
	assert.False(t, trending.IsStationary)
	assert.Equal(t, 0.01, trending.PValue)

	detrended, err := KPSS(timeseries.New(trend), "ct", 0)
	require.NoError(t, err)
	assert.True(t, detrended.IsStationary)
}

func TestKPSSPValueInterpolation(t *testing.T) {
	assert.InDelta(t, 0.075, kpssPValue((0.347+0.463)/2, kpssLevelTable), 1e-9)
	assert.Equal(t, 0.10, kpssPValue(0.01, kpssLevelTable))
	assert.Equal(t, 0.01, kpssPValue(5, kpssLevelTable))
}

func TestOLS(t *testing.T) {
	n := 50
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
		y[i] = 3 + 2*float64(i)
	}
	y[10] += 0.5
	y[20] -= 0.5

	fit, err := OLS(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 3, fit.Coeffs[0], 0.1)
	assert.InDelta(t, 2, fit.Coeffs[1], 0.01)
	assert.Len(t, fit.Residuals, n)
	assert.Greater(t, fit.StdErrors[1], 0.0)

	singular := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		singular.Set(i, 0, 1)
		singular.Set(i, 1, 1)
	}
	_, err = OLS(singular, y)
	assert.Error(t, err)

	_, err = OLS(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), []float64{1, 2})
	assert.Error(t, err, "no residual degrees of freedom")
}

func TestLjungBox(t *testing.T) {
	noise := LjungBox(timeseries.New(whiteNoise(200, 5)), 10, 0)
	require.NotNil(t, noise)
	assert.Greater(t, noise.PValue, 0.01)
	assert.Equal(t, 10, noise.DOF)

	ar := make([]float64, 200)
	eps := whiteNoise(200, 5)
	for i := 1; i < len(ar); i++ {
		ar[i] = 0.9*ar[i-1] + eps[i]
	}
	correlated := LjungBox(timeseries.New(ar), 10, 2)
	require.NotNil(t, correlated)
	assert.Less(t, correlated.PValue, 0.001)
	assert.Equal(t, 8, correlated.DOF)
}

func TestDurbinWatson(t *testing.T) {
	assert.InDelta(t, 4.0*3/4, DurbinWatson([]float64{1, -1, 1, -1}), 1e-9)
	assert.True(t, math.IsNaN(DurbinWatson([]float64{0, 0})))
}

func seasonalValues(n, period int, amplitude float64) []float64 {
	values := make([]float64, n)
	noise := whiteNoise(n, 9)
	for i := range values {
		values[i] = 100 + 0.5*float64(i) + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period)) + noise[i]
	}
	return values
}

func TestDecompose(t *testing.T) {
	series := timeseries.New(seasonalValues(120, 12, 15))
	decomp := Decompose(series, 12)
	require.NotNil(t, decomp)

	assert.True(t, math.IsNaN(decomp.Trend.Values[0]))
	assert.False(t, math.IsNaN(decomp.Trend.Values[6]))
	assert.InDelta(t, 100+0.5*60, decomp.Trend.Values[60], 1.0)

	sum := 0.0
	for _, v := range decomp.Seasonal.Values[:12] {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9, "seasonal pattern is centered")
	assert.InDelta(t, 15, decomp.Seasonal.Values[3], 2.0)

	assert.Nil(t, Decompose(timeseries.New(make([]float64, 20)), 12))
}

func TestNDiffs(t *testing.T) {
	stationary := make([]float64, 100)
	for i := range stationary {
		stationary[i] = math.Sin(float64(i) * 2.1)
	}
	assert.Equal(t, 0, NDiffs(timeseries.New(stationary), 2, TestKPSS))

	trend := make([]float64, 100)
	for i := range trend {
		trend[i] = 100 + 2*float64(i) + math.Sin(float64(i)*2.1)
	}
	assert.Equal(t, 1, NDiffs(timeseries.New(trend), 2, TestKPSS))

	assert.Equal(t, 2, NDiffs(timeseries.New(quadraticTrend(120, 42)), 2, TestADF))
	assert.Equal(t, 0, NDiffs(timeseries.New(whiteNoise(120, 42)), 2, TestPP))
}

func TestNSDiffs(t *testing.T) {
	assert.Equal(t, 1, NSDiffs(timeseries.New(seasonalValues(120, 12, 15)), 12, 1))
	assert.Equal(t, 0, NSDiffs(timeseries.New(whiteNoise(120, 2)), 12, 1))
	assert.Equal(t, 0, NSDiffs(timeseries.New(seasonalValues(20, 12, 15)), 12, 1), "too short")
	assert.Equal(t, 0, NSDiffs(timeseries.New(seasonalValues(120, 12, 15)), 1, 1), "no period")
}

func TestSeasonalStrength(t *testing.T) {
	strong := SeasonalStrength(timeseries.New(seasonalValues(120, 12, 15)), 12)
	weak := SeasonalStrength(timeseries.New(whiteNoise(120, 2)), 12)
	assert.Greater(t, strong, SeasonalStrengthThreshold)
	assert.Less(t, weak, SeasonalStrengthThreshold)
}

func TestCalculateIC(t *testing.T) {
	ic := CalculateIC(-100, 50, 3)
	assert.InDelta(t, 206, ic.AIC, 1e-9)
	assert.InDelta(t, 206+24.0/46, ic.AICc, 1e-9)
	assert.InDelta(t, 200+3*math.Log(50), ic.BIC, 1e-9)

	assert.True(t, math.IsInf(CalculateIC(-1, 3, 3).AICc, 1))
}
