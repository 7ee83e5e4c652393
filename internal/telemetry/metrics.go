// Package telemetry holds the run metrics and the trace provider.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for pipeline runs. Each instance
// owns its registry so tests and repeated runs do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	SeriesTotal     *prometheus.CounterVec
	FitDuration     *prometheus.HistogramVec
	ModelsEvaluated *prometheus.CounterVec
	ForecastMAPE    *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		SeriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkcast_series_total",
				Help: "Series processed per recipe and outcome",
			},
			[]string{"recipe", "status"},
		),
		FitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parkcast_fit_duration_seconds",
				Help:    "Wall time of the model search per series",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"recipe"},
		),
		ModelsEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkcast_models_evaluated_total",
				Help: "Candidate models fitted during order search",
			},
			[]string{"recipe"},
		),
		ForecastMAPE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parkcast_forecast_mape",
				Help: "Test-period MAPE of the selected model, as a fraction",
			},
			[]string{"recipe", "series"},
		),
	}
}

// ObserveSeries records the outcome of one series.
func (m *Metrics) ObserveSeries(recipe, status string) {
	if m == nil {
		return
	}
	m.SeriesTotal.WithLabelValues(recipe, status).Inc()
}

// ObserveFit records a completed order search.
func (m *Metrics) ObserveFit(recipe string, took time.Duration, evaluated int) {
	if m == nil {
		return
	}
	m.FitDuration.WithLabelValues(recipe).Observe(took.Seconds())
	m.ModelsEvaluated.WithLabelValues(recipe).Add(float64(evaluated))
}

// ObserveAccuracy records the test-period MAPE of a series.
func (m *Metrics) ObserveAccuracy(recipe, series string, mape float64) {
	if m == nil {
		return
	}
	m.ForecastMAPE.WithLabelValues(recipe, series).Set(mape)
}

// WriteTextfile exports the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
