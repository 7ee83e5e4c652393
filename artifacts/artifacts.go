// Package artifacts lays out and writes the files produced for each
// modelled series: the serialized model, its text summary, the forecast
// table and the figures.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/sartorproj/parkcast/autoarima"
	"github.com/sartorproj/parkcast/evaluation"
	"github.com/sartorproj/parkcast/plots"
	"github.com/sartorproj/parkcast/sarima"
	"github.com/sartorproj/parkcast/stationarity"
	"github.com/sartorproj/parkcast/timeseries"
)

// Layout maps series names to output directories:
// <root>/models/<subdir>/<name> and <root>/plots/<subdir>/<name>.
type Layout struct {
	Root   string
	Subdir string
}

// Paths are the files written for one series.
type Paths struct {
	ModelDir string
	PlotDir  string
	name     string
}

func (p Paths) Model() string         { return filepath.Join(p.ModelDir, p.name+"_arima.model") }
func (p Paths) Summary() string       { return filepath.Join(p.ModelDir, p.name+"_arima_summary.txt") }
func (p Paths) ForecastTable() string { return filepath.Join(p.ModelDir, p.name+"_forecast.parquet") }
func (p Paths) Overview() string      { return filepath.Join(p.PlotDir, p.name+".png") }
func (p Paths) Analysis() string      { return filepath.Join(p.PlotDir, p.name+"_analysis.png") }
func (p Paths) ForecastPlot() string  { return filepath.Join(p.PlotDir, p.name+"_forecast.png") }

// For returns the paths for name without touching the filesystem.
func (l Layout) For(name string) Paths {
	return Paths{
		ModelDir: filepath.Join(l.Root, "models", l.Subdir, name),
		PlotDir:  filepath.Join(l.Root, "plots", l.Subdir, name),
		name:     name,
	}
}

// Prepare creates the output directories for name.
func (l Layout) Prepare(name string) (Paths, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return Paths{}, fmt.Errorf("invalid series name %q for an output path", name)
	}
	p := l.For(name)
	for _, dir := range []string{p.ModelDir, p.PlotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("create output directory: %w", err)
		}
	}
	return p, nil
}

// ReportPath returns <root>/reports/<recipe>.parquet.
func (l Layout) ReportPath(recipe string) string {
	return filepath.Join(l.Root, "reports", recipe+".parquet")
}

// Bundle is everything known about one completed series.
type Bundle struct {
	Name       string
	Series     *timeseries.Series
	Train      *timeseries.Series
	Test       *timeseries.Series
	Diagnostic *stationarity.Result // nil when the search failed
	Period     int
	Model      *autoarima.Result
	Forecast   *sarima.Forecast
	Metrics    evaluation.Metrics

	RollingWindow  int
	TrainPlotLimit float64
}

// Writer writes bundles to a layout. A nil Renderer skips the figures.
type Writer struct {
	Layout   Layout
	Renderer *plots.Renderer
}

// NewWriter returns a writer rooted at root.
func NewWriter(root, subdir string, renderer *plots.Renderer) *Writer {
	return &Writer{
		Layout:   Layout{Root: root, Subdir: subdir},
		Renderer: renderer,
	}
}

// Emit writes all artifacts of b.
func (w *Writer) Emit(ctx context.Context, b *Bundle) error {
	if b.Model == nil || b.Forecast == nil {
		return errors.New("bundle has no fitted model")
	}
	paths, err := w.Layout.Prepare(b.Name)
	if err != nil {
		return err
	}

	if err := WriteModel(paths.Model(), b.Model); err != nil {
		return err
	}
	if err := os.WriteFile(paths.Summary(), []byte(b.Model.Summary()), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := WriteForecast(paths.ForecastTable(), b.Test, b.Forecast); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Renderer == nil {
		return nil
	}

	if err := w.Renderer.Overview(b.Series, b.RollingWindow, paths.Overview()); err != nil {
		return fmt.Errorf("overview plot: %w", err)
	}
	if d := b.Diagnostic; d != nil {
		err := w.Renderer.Diagnostics(plots.Diagnostic{
			Series: d.Series,
			Name:   b.Name,
			Diffs:  d.Diffs,
			Period: b.Period,
			Test:   d.Test,
			PValue: d.PValue,
		}, paths.Analysis())
		if err != nil {
			return fmt.Errorf("diagnostics plot: %w", err)
		}
	}
	err = w.Renderer.Forecast(plots.ForecastFigure{
		Name:       b.Name,
		Train:      b.Train,
		Test:       b.Test,
		Forecast:   b.Forecast,
		MAE:        b.Metrics.MAE,
		MAPE:       b.Metrics.MAPE,
		TrainLimit: b.TrainPlotLimit,
	}, paths.ForecastPlot())
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	return nil
}

// WriteModel stores r as snappy-compressed JSON.
func WriteModel(path string, r *autoarima.Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, snappy.Encode(nil, raw), 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// ReadModel loads a model written by WriteModel.
func ReadModel(path string) (*autoarima.Result, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	var r autoarima.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &r, nil
}
