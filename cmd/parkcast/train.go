package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sartorproj/parkcast/artifacts"
	"github.com/sartorproj/parkcast/internal/config"
	"github.com/sartorproj/parkcast/internal/logging"
	"github.com/sartorproj/parkcast/internal/telemetry"
	"github.com/sartorproj/parkcast/parks"
	"github.com/sartorproj/parkcast/pipeline"
	"github.com/sartorproj/parkcast/plots"
	"github.com/sartorproj/parkcast/timeseries"
)

var errSeriesFailed = errors.New("one or more series failed")

type trainOptions struct {
	configPath  string
	workers     int
	outputDir   string
	metricsFile string
	trace       bool
	strict      bool
	noPlots     bool
}

func newTrainCmd() *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit, forecast and evaluate every recipe in the configuration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("workers") {
				cfg.Workers = opts.workers
			}
			if flags.Changed("output-dir") {
				cfg.OutputDir = opts.outputDir
			}
			if flags.Changed("metrics-file") {
				cfg.MetricsFile = opts.metricsFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runTrain(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default ./parkcast.yaml or ./configs/parkcast.yaml)")
	f.IntVarP(&opts.workers, "workers", "w", 1, "series processed concurrently")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "root directory for models, plots and reports")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	f.BoolVar(&opts.trace, "trace", false, "print per-series trace spans to stderr")
	f.BoolVar(&opts.strict, "strict", false, "exit non-zero when any series fails")
	f.BoolVar(&opts.noPlots, "no-plots", false, "skip figure rendering")
	return cmd
}

// job is a recipe resolved against its input.
type job struct {
	recipe    config.RecipeConfig
	input     config.InputConfig
	algorithm pipeline.Algorithm
}

func runTrain(ctx context.Context, cfg *config.Config, opts *trainOptions, out io.Writer) error {
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	jobs, err := resolveJobs(cfg)
	if err != nil {
		return err
	}
	frames, err := loadInputs(jobs)
	if err != nil {
		return err
	}

	var registry *parks.Registry
	if cfg.Reference.ParkNames != "" {
		registry, err = parks.Load(cfg.Reference.ParkNames, cfg.Reference.ParkTypes)
		if err != nil {
			return fmt.Errorf("load park reference: %w", err)
		}
	}
	var renderer *plots.Renderer
	if !opts.noPlots {
		renderer = plots.NewRenderer(registry)
	}

	tracing := telemetry.NoopTracing()
	if opts.trace {
		if tracing, err = telemetry.NewTracing(os.Stderr, "parkcast", version); err != nil {
			return err
		}
	}
	defer func() {
		if serr := tracing.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			logger.Warn().Err(serr).Msg("trace shutdown failed")
		}
	}()
	metrics := telemetry.NewMetrics()

	runID := uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()
	logger.Info().Int("recipes", len(jobs)).Str("output_dir", cfg.OutputDir).Msg("job started")

	for name, frame := range frames {
		logger.Info().Str("input", name).Int("rows", frame.Len()).Int("columns", len(frame.Columns)).Msg("input loaded")
	}

	failed := 0
	for _, j := range jobs {
		report, err := runRecipe(ctx, cfg, j, frames[j.input.Name], renderer, logger, metrics, tracing, runID)
		if report != nil {
			printReport(out, report)
			failed += report.Count(pipeline.StatusFailed)
		}
		if err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}
	if failed > 0 && opts.strict {
		return fmt.Errorf("%w: %d failed", errSeriesFailed, failed)
	}
	logger.Info().Int("failed", failed).Msg("job succeeded")
	return nil
}

// resolveJobs parses every recipe before any data is read, so a bad
// recipe aborts the run without partial output.
func resolveJobs(cfg *config.Config) ([]job, error) {
	base := pipeline.DefaultConfig()
	base.Workers = cfg.Workers
	base.FitTimeout = cfg.FitTimeout

	jobs := make([]job, 0, len(cfg.Recipes))
	for _, r := range cfg.Recipes {
		alg, err := pipeline.ParseAlgorithm(r.Algorithm, base, r.Params)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", r.Name, err)
		}
		in, _ := cfg.Input(r.Input)
		jobs = append(jobs, job{recipe: r, input: in, algorithm: alg})
	}
	return jobs, nil
}

// loadInputs reads every input a job references, once each, so a bad
// path aborts the run before any recipe writes output.
func loadInputs(jobs []job) (map[string]*timeseries.Frame, error) {
	frames := make(map[string]*timeseries.Frame)
	for _, j := range jobs {
		if _, ok := frames[j.input.Name]; ok {
			continue
		}
		frame, err := loadInput(j.input)
		if err != nil {
			return nil, err
		}
		frames[j.input.Name] = frame
	}
	return frames, nil
}

func loadInput(in config.InputConfig) (*timeseries.Frame, error) {
	opts := timeseries.DefaultCSVOptions()
	if in.DateColumn != "" {
		opts.DateColumn = in.DateColumn
	}
	frame, err := timeseries.LoadFrameCSV(in.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", in.Name, err)
	}
	return frame.Regularize(), nil
}

func runRecipe(ctx context.Context, cfg *config.Config, j job, frame *timeseries.Frame, renderer *plots.Renderer,
	logger zerolog.Logger, metrics *telemetry.Metrics, tracing *telemetry.Tracing, runID string) (*pipeline.Report, error) {
	writer := artifacts.NewWriter(cfg.OutputDir, j.recipe.OutputsSubdir, renderer)
	p, err := pipeline.New(j.algorithm.Config(), writer,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithTracer(tracing.Tracer()),
		pipeline.WithRecipe(j.recipe.Name),
		pipeline.WithRunID(runID),
	)
	if err != nil {
		return nil, fmt.Errorf("recipe %q: %w", j.recipe.Name, err)
	}

	report, runErr := p.Run(ctx, frame)
	if report == nil {
		return nil, fmt.Errorf("recipe %q: %w", j.recipe.Name, runErr)
	}
	path := writer.Layout.ReportPath(j.recipe.Name)
	if err := artifacts.WriteReport(path, report.Rows()); err != nil {
		return report, fmt.Errorf("recipe %q: %w", j.recipe.Name, err)
	}
	logger.Info().Str("recipe", j.recipe.Name).Str("report", path).Msg("report written")
	if runErr != nil {
		return report, fmt.Errorf("recipe %q: %w", j.recipe.Name, runErr)
	}
	return report, nil
}
