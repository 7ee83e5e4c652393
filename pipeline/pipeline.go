// Package pipeline drives the per-series workflow: stationarity
// diagnostics, train/test split, automatic order search, forecasting,
// evaluation and artifact emission. Series are independent; one failing
// series never stops the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/parkcast/artifacts"
	"github.com/sartorproj/parkcast/autoarima"
	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/evaluation"
	"github.com/sartorproj/parkcast/internal/telemetry"
	"github.com/sartorproj/parkcast/split"
	"github.com/sartorproj/parkcast/stationarity"
	"github.com/sartorproj/parkcast/timeseries"
)

// Emitter persists the results of a completed series.
type Emitter interface {
	Emit(ctx context.Context, b *artifacts.Bundle) error
}

// Pipeline runs one recipe over a frame.
type Pipeline struct {
	cfg     Config
	emitter Emitter
	recipe  string
	runID   string
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records series outcomes and fit timings in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer wraps every series in a span.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithRecipe names the recipe in logs, metrics and the report.
func WithRecipe(name string) Option {
	return func(p *Pipeline) { p.recipe = name }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// New validates cfg and returns a pipeline. A nil emitter runs the
// workflow without writing anything.
func New(cfg Config, emitter Emitter, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		emitter: emitter,
		logger:  zerolog.Nop(),
		tracer:  noop.NewTracerProvider().Tracer(telemetry.TracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run processes every target column of frame. Input errors abort the run
// before any series is touched; per-series errors end up in the report.
// The returned error is non-nil only for input errors or when ctx ends
// the run early, in which case the partial report is returned with it.
func (p *Pipeline) Run(ctx context.Context, frame *timeseries.Frame) (*Report, error) {
	targets, exog, err := p.inputs(frame)
	if err != nil {
		return nil, err
	}

	runID := p.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &Report{
		RunID:     runID,
		Recipe:    p.recipe,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(targets)),
	}
	logger := p.logger.With().Str("run_id", runID).Str("recipe", p.recipe).Logger()
	logger.Info().Int("series", len(targets)).Int("workers", p.cfg.Workers).Msg("run started")

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i, name := range targets {
		g.Go(func() error {
			report.Outcomes[i] = p.process(ctx, logger, frame, name, exog)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt)
	logger.Info().
		Int("completed", report.Count(StatusCompleted)).
		Int("skipped", report.Count(StatusSkipped)).
		Int("failed", report.Count(StatusFailed)).
		Dur("took", report.Duration).
		Msg("run finished")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	return report, nil
}

// inputs resolves the target columns and the covariate matrix.
func (p *Pipeline) inputs(frame *timeseries.Frame) ([]string, *timeseries.Exogenous, error) {
	if frame == nil || frame.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: empty input frame", errdefs.ErrInvalidConfiguration)
	}
	exog, err := frame.Exogenous(p.cfg.ExogVars)
	if err != nil {
		return nil, nil, err
	}

	targets := p.cfg.TSCols
	if len(targets) == 0 {
		for _, col := range frame.Columns {
			if !slices.Contains(p.cfg.ExogVars, col) {
				targets = append(targets, col)
			}
		}
	}
	for _, col := range targets {
		if !frame.Has(col) {
			return nil, nil, fmt.Errorf("%w: unknown series column %q", errdefs.ErrInvalidConfiguration, col)
		}
	}
	if len(targets) == 0 {
		return nil, nil, fmt.Errorf("%w: no series to model", errdefs.ErrInvalidConfiguration)
	}
	return targets, exog, nil
}

// process runs one series to a terminal state.
func (p *Pipeline) process(ctx context.Context, logger zerolog.Logger, frame *timeseries.Frame, name string, exog *timeseries.Exogenous) Outcome {
	out := Outcome{Series: name, StartedAt: time.Now()}
	log := logger.With().Str("series", name).Logger()

	ctx, span := p.tracer.Start(ctx, "series", trace.WithAttributes(
		attribute.String("series", name),
		attribute.String("recipe", p.recipe),
	))
	defer span.End()

	err := p.runSeries(ctx, log, frame, name, exog, &out)
	out.Duration = time.Since(out.StartedAt)

	switch {
	case err == nil:
		out.Status = StatusCompleted
		log.Info().
			Str("order", out.Model.Order.String()).
			Float64("mae", out.Metrics.MAE).
			Float64("mape", out.Metrics.MAPE).
			Dur("took", out.Duration).
			Msg("series completed")
	case errors.Is(err, errdefs.ErrInsufficientHistory):
		out.Status = StatusSkipped
		out.Reason = err.Error()
		log.Info().Str("reason", out.Reason).Msg("series skipped")
	default:
		out.Status = StatusFailed
		out.Reason = err.Error()
		out.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "series failed")
		log.Error().Err(err).Msg("series failed")
	}
	span.SetAttributes(attribute.String("status", string(out.Status)))
	p.metrics.ObserveSeries(p.recipe, string(out.Status))
	return out
}

func (p *Pipeline) runSeries(ctx context.Context, log zerolog.Logger, frame *timeseries.Frame, name string, exog *timeseries.Exogenous, out *Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	column, err := frame.Column(name)
	if err != nil {
		return err
	}
	series := column.DropNaN()
	out.NObs = series.Len()
	if series.Len() < p.cfg.MinHistoryLength {
		return fmt.Errorf("%w: %d observations below minimum history of %d",
			errdefs.ErrInsufficientHistory, series.Len(), p.cfg.MinHistoryLength)
	}

	parts, err := split.Split(series, p.cfg.TestSize, exog)
	if err != nil {
		return err
	}
	out.NTest = parts.Test.Len()
	out.Diagnostic = p.diagnose(parts.Train, log)

	fitCtx := ctx
	if p.cfg.FitTimeout > 0 {
		var cancel context.CancelFunc
		fitCtx, cancel = context.WithTimeout(ctx, p.cfg.FitTimeout)
		defer cancel()
	}
	start := time.Now()
	model, err := autoarima.Fit(fitCtx, parts.Train, parts.TrainExog, p.cfg.modelConfig())
	if err != nil {
		return err
	}
	out.Model = model
	p.metrics.ObserveFit(p.recipe, time.Since(start), model.ModelsEvaluated)
	log.Debug().
		Str("order", model.Order.String()).
		Int("evaluated", model.ModelsEvaluated).
		Int("failed", model.ModelsFailed).
		Float64("score", model.Score).
		Msg("order search finished")

	fc, err := model.Predict(parts.Test.Len(), parts.TestExog, p.cfg.ForecastConfidenceAlpha)
	if err != nil {
		return err
	}

	metrics, err := evaluation.Evaluate(parts.Test.Values, fc.Mean)
	if err != nil {
		return err
	}
	out.Metrics = &metrics
	p.metrics.ObserveAccuracy(p.recipe, name, metrics.MAPE)

	if p.emitter == nil {
		return nil
	}
	return p.emitter.Emit(ctx, &artifacts.Bundle{
		Name:           name,
		Series:         series,
		Train:          parts.Train,
		Test:           parts.Test,
		Diagnostic:     out.Diagnostic,
		Period:         p.cfg.SeasonalPeriod,
		Model:          model,
		Forecast:       fc,
		Metrics:        metrics,
		RollingWindow:  p.cfg.RollingWindow,
		TrainPlotLimit: p.cfg.TrainPlotLimit,
	})
}

// diagnose seasonally differences the training partition once and
// reduces it to stationarity for the analysis figure. The model never sees the result,
// so failures only cost the figure.
func (p *Pipeline) diagnose(series *timeseries.Series, log zerolog.Logger) *stationarity.Result {
	deseasoned, err := stationarity.SeasonalDifference(series, p.cfg.SeasonalPeriod)
	if err != nil {
		log.Warn().Err(err).Msg("seasonal difference skipped")
		return nil
	}
	test, _ := stationarity.ParseTest(p.cfg.StationarityTest)
	res, err := stationarity.NewReducer(test).Reduce(deseasoned, p.cfg.StationaritySignificance, p.cfg.MaxDifferenceIterations)
	if err != nil {
		log.Warn().Err(err).Msg("stationarity search failed")
		return nil
	}
	level := zerolog.DebugLevel
	if !res.Stationary(p.cfg.StationaritySignificance) {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Int("diffs", res.Diffs).
		Float64("p_value", res.PValue).
		Str("test", res.Test).
		Msg("stationarity search finished")
	return res
}
