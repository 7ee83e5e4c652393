// Package sarima implements Seasonal ARIMA (SARIMA) models estimated by
// conditional sum of squares, with optional regression on exogenous
// covariates.
//
// A SARIMA(p,d,q)(P,D,Q)[m] model includes:
//   - Non-seasonal components: AR(p), I(d), MA(q)
//   - Seasonal components: SAR(P), SI(D), SMA(Q) at seasonal period m
//
// # Basic Usage
//
//	// Airline model for monthly data
//	model := sarima.New(sarima.Order{Q: 1, D: 1, SQ: 1, SD: 1, M: 12})
//	if err := model.Fit(series, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	fc, _ := model.Forecast(12, nil, 0.05)
//	fmt.Println(fc.Mean, fc.Lower, fc.Upper)
//
// # Covariates
//
// With Options.Exog set the model becomes a regression with SARIMA errors.
// The covariate effect is estimated by least squares and removed before the
// ARMA part is fitted. Forecasts then need one covariate row per step.
//
// # Comparing Candidates
//
// The conditional likelihood depends on how many leading observations are
// used as lags only. Fit all candidates of a search with the same
// Options.ConditionOn so that AIC, AICc and BIC are comparable.
//
// # Persistence
//
// Fitted models implement json.Marshaler and json.Unmarshaler. A restored
// model forecasts exactly like the one it was saved from.
package sarima
