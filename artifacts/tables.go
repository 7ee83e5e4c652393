package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/sartorproj/parkcast/sarima"
	"github.com/sartorproj/parkcast/timeseries"
)

// ForecastRow is one step of a forecast next to the held-out actual.
type ForecastRow struct {
	Date     time.Time `parquet:"date,snappy"`
	Actual   float64   `parquet:"actual,snappy"`
	Forecast float64   `parquet:"forecast,snappy"`
	Lower    float64   `parquet:"lower,snappy"`
	Upper    float64   `parquet:"upper,snappy"`
	StdErr   float64   `parquet:"std_err,snappy"`
	Alpha    float64   `parquet:"alpha,snappy"`
}

// ReportRow is the outcome of one series in a pipeline run.
type ReportRow struct {
	RunID      string    `parquet:"run_id,snappy"`
	Recipe     string    `parquet:"recipe,snappy"`
	Series     string    `parquet:"series,snappy"`
	Status     string    `parquet:"status,snappy"`
	Reason     *string   `parquet:"reason,optional,snappy"`
	StartedAt  time.Time `parquet:"started_at,snappy"`
	DurationMs int64     `parquet:"duration_ms,snappy"`
	NObs       int32     `parquet:"n_obs,snappy"`
	NTest      int32     `parquet:"n_test,snappy"`
	Diffs      *int32    `parquet:"diffs,optional,snappy"`
	PValue     *float64  `parquet:"p_value,optional,snappy"`
	Order      *string   `parquet:"order,optional,snappy"`
	AIC        *float64  `parquet:"aic,optional,snappy"`
	MAE        *float64  `parquet:"mae,optional,snappy"`
	MAPE       *float64  `parquet:"mape,optional,snappy"`
	RMSE       *float64  `parquet:"rmse,optional,snappy"`
}

// WriteForecast writes one row per test step.
func WriteForecast(path string, test *timeseries.Series, fc *sarima.Forecast) error {
	if test.Len() != fc.Len() {
		return fmt.Errorf("forecast covers %d steps, test period has %d", fc.Len(), test.Len())
	}
	rows := make([]ForecastRow, fc.Len())
	for i := range rows {
		rows[i] = ForecastRow{
			Date:     test.Timestamps[i],
			Actual:   test.Values[i],
			Forecast: fc.Mean[i],
			Lower:    fc.Lower[i],
			Upper:    fc.Upper[i],
			StdErr:   fc.StdErr[i],
			Alpha:    fc.Alpha,
		}
	}
	return writeParquet(path, rows)
}

// ReadForecast reads a table written by WriteForecast.
func ReadForecast(path string) ([]ForecastRow, error) {
	return readParquet[ForecastRow](path)
}

// WriteReport writes the run report, creating its directory.
func WriteReport(path string, rows []ReportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	return writeParquet(path, rows)
}

// ReadReport reads a report written by WriteReport.
func ReadReport(path string) ([]ReportRow, error) {
	return readParquet[ReportRow](path)
}

func writeParquet[T any](path string, rows []T) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return writer.Close()
}

func readParquet[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows[:n], nil
}
