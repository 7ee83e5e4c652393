// Package autoarima implements automatic SARIMA order selection.
//
// Fit decides the differencing orders from the training series, then
// searches ARMA orders and keeps the candidate with the lowest information
// criterion.
//
// # Basic Usage
//
//	cfg := autoarima.DefaultConfig()
//	cfg.SeasonalPeriod = 12
//	cfg.MaxOrder = 8
//
//	result, err := autoarima.Fit(ctx, train, nil, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Order, result.Score)
//
//	fc, _ := result.Predict(24, nil, 0.05)
//	fmt.Print(result.Summary())
//
// # Differencing
//
// With SeasonalPeriod above one, the seasonal difference order comes from
// the seasonal strength of a classical decomposition. The first difference
// order then comes from repeated unit-root tests (KPSS by default) on the
// seasonally differenced series.
//
// # Search Methods
//
// Two search methods are available:
//   - Stepwise (default): starts from a few seed orders and walks to
//     neighbouring orders while the criterion improves
//   - Grid: every admissible order (set Stepwise=false)
//
// Orders with p+q+P+Q above MaxOrder are never fitted. Fitted candidates
// are memoised by order, so the stepwise walk never fits an order twice.
// The context is checked before each new fit.
package autoarima
