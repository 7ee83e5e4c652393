// Package stats provides the statistical tests behind differencing and
// order selection.
//
// # Unit root and stationarity tests
//
//	// Augmented Dickey-Fuller, H0: unit root. Lag order chosen by AIC.
//	adf, err := stats.ADF(series, 0)
//
//	// Phillips-Perron, H0: unit root.
//	pp, err := stats.PhillipsPerron(series, 0)
//
//	// KPSS, H0: level stationary.
//	kpss, err := stats.KPSS(series, "c", 0)
//
// ADF and Phillips-Perron p-values come from the MacKinnon (1994) response
// surface for a regression with a constant. KPSS p-values are interpolated
// from the published table and clipped to [0.01, 0.10].
//
// # Differencing analysis
//
//	d := stats.NDiffs(series, 2, stats.TestKPSS)
//	sd := stats.NSDiffs(series, 12, 1)
//
// # Correlograms and residual diagnostics
//
//	acf := stats.ACFWithConfidence(series, 24, 0.05)
//	pacf := stats.PACFWithConfidence(series, 24, 0.05)
//	lb := stats.LjungBox(residuals, 10, p+q)
//
// # Regression
//
// OLS wraps gonum's least squares solver and returns coefficients with
// standard errors. It backs the unit root regressions and the exogenous
// regression in package sarima.
package stats
