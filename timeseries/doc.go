// Package timeseries provides the data structures the forecasting pipeline
// operates on.
//
// # Series
//
// A Series is an ordered run of (timestamp, value) observations. Monthly
// series are built with New or NewMonthly:
//
//	visits := timeseries.NewMonthly(start, values)
//	diff := visits.Diff()              // first difference, one shorter
//	sdiff := visits.SeasonalDiff(12)   // y[t] - y[t-12]
//	trend := visits.RollingMean(12)    // centered, NaN at the edges
//
// # Frames
//
// A Frame is a wide table with one column per park series or covariate,
// as produced by the visitor-count scrapers:
//
//	frame, err := timeseries.LoadFrameCSV("visits.csv", nil)
//	monthly := frame.Regularize()      // month starts, absent months filled
//	yell, err := monthly.Column("YELL")
//
// # Exogenous covariates
//
// Exogenous holds covariate rows keyed by timestamp. Align selects the
// rows matching a series, failing when the matrix does not cover it:
//
//	exog, err := monthly.Exogenous([]string{"unemployment"})
//	rows, err := exog.Align(yell.DropNaN().Timestamps)
package timeseries
