// Package errdefs defines the error kinds shared by the forecasting pipeline.
//
// Callers wrap these sentinels with fmt.Errorf("...: %w", ...) and classify
// failures with errors.Is.
package errdefs

import "errors"

var (
	// ErrInvalidConfiguration reports malformed options, such as an invalid
	// test size or a forecast horizon that disagrees with the exogenous rows.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientHistory reports a series too short to be modelled.
	// The pipeline turns it into a skip, never a run failure.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrModelFit reports that no candidate model could be estimated.
	ErrModelFit = errors.New("model fit failed")

	// ErrMismatchedLength reports evaluation inputs of unequal length.
	ErrMismatchedLength = errors.New("mismatched length")
)
