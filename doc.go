// Package parkcast forecasts monthly park visitation with automatically
// selected seasonal ARIMA models.
//
// Each visitor series is checked for stationarity, split into a training
// prefix and a held-out tail, fitted by an order search over seasonal ARIMA
// candidates and scored on the tail. The fitted model, its summary, the
// forecast table and the figures are written per series; a run report
// records every series outcome.
//
// # Quick Start
//
// Train every recipe of a configuration file:
//
//	parkcast train --config configs/parkcast.yaml --workers 4
//
// Or drive the pipeline from Go:
//
//	frame, _ := timeseries.LoadFrameCSV("visitors.csv", nil)
//	cfg := pipeline.DefaultConfig()
//	cfg.SeasonalPeriod = 12
//	p, _ := pipeline.New(cfg, artifacts.NewWriter("output", "parks", plots.NewRenderer(nil)))
//	report, _ := p.Run(ctx, frame.Regularize())
//
// # Packages
//
//   - timeseries: series, wide frames, exogenous matrices and CSV loading
//   - stats: unit-root tests, ACF/PACF, Ljung-Box, differencing analysis
//   - stationarity: differencing search used for the diagnostic figures
//   - split: trailing train/test partitions
//   - sarima: seasonal ARIMA estimation and forecasting
//   - autoarima: automatic order selection
//   - evaluation: forecast accuracy metrics
//   - parks: park name reference tables
//   - plots: PNG figures
//   - artifacts: output layout, model files, forecast tables, run reports
//   - pipeline: the per-series workflow
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package parkcast
