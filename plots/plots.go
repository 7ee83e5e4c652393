// Package plots renders the PNG figures written next to each model: the
// series overview, the stationarity diagnostics and the forecast against
// held-out actuals.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sartorproj/parkcast/parks"
	"github.com/sartorproj/parkcast/sarima"
	"github.com/sartorproj/parkcast/stats"
	"github.com/sartorproj/parkcast/timeseries"
)

var (
	lightBlue = color.RGBA{R: 0xa6, G: 0xce, B: 0xe3, A: 0xff}
	darkBlue  = color.RGBA{R: 0x1f, G: 0x78, B: 0xb4, A: 0xff}
	orange    = color.RGBA{R: 0xff, G: 0x7f, B: 0x00, A: 0xff}
	ribbon    = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x80}
)

const timeFormat = "2006-01"

// Renderer draws figures. Titles use the registry to expand park codes;
// a nil registry falls back to title-cased series names.
type Renderer struct {
	Registry *parks.Registry
	Width    vg.Length
	Height   vg.Length
}

// NewRenderer returns a renderer producing 12x8 inch figures.
func NewRenderer(registry *parks.Registry) *Renderer {
	return &Renderer{
		Registry: registry,
		Width:    12 * vg.Inch,
		Height:   8 * vg.Inch,
	}
}

// Overview plots a series with its centered rolling mean. A window below
// two draws the series alone.
func (r *Renderer) Overview(series *timeseries.Series, window int, path string) error {
	p := plot.New()
	p.Title.Text = r.Registry.SeriesTitle(series.Name) + "\nMonthly Visitors"
	timeAxes(p)

	line, err := plotter.NewLine(seriesXYs(series))
	if err != nil {
		return fmt.Errorf("overview plot: %w", err)
	}
	line.Color = lightBlue
	p.Add(plotter.NewGrid(), line)

	if window >= 2 {
		p.Title.Text += fmt.Sprintf(" and %d-Month Rolling Average", window)
		if xys := seriesXYs(series.RollingMean(window)); len(xys) > 0 {
			avg, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("overview plot: %w", err)
			}
			avg.Color = darkBlue
			avg.Width = vg.Points(2)
			p.Add(avg)
		}
	}
	return p.Save(r.Width, r.Height, path)
}

// Diagnostic describes a reduced series for the diagnostics figure.
type Diagnostic struct {
	Series *timeseries.Series // after seasonal and first differencing
	Name   string
	Diffs  int
	Period int // seasonal period removed first, 1 for none
	Test   string
	PValue float64
	Lags   int // ACF/PACF lags, 0 picks min(10*log10(n), n-1)
	Alpha  float64
}

// Diagnostics draws the reduced series on top with its ACF and PACF below.
func (r *Renderer) Diagnostics(d Diagnostic, path string) error {
	s := d.Series
	if s == nil || s.Len() < 3 {
		return errors.New("diagnostics plot: series too short")
	}
	lags := d.Lags
	if lags <= 0 {
		lags = int(10 * math.Log10(float64(s.Len())))
	}
	lags = min(lags, s.Len()/2-1)
	alpha := d.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	top := plot.New()
	timeAxes(top)
	deseasoned := ""
	if d.Period > 1 {
		deseasoned = fmt.Sprintf("%d-Step Deseasoned, ", d.Period)
	}
	top.Title.Text = fmt.Sprintf("Time Series Analysis Plots for %s%s-Order Differenced Series for\n%s\n%s p-value: %.5g",
		deseasoned, parks.Ordinal(d.Diffs), r.Registry.SeriesTitle(d.Name), d.Test, d.PValue)
	line, err := plotter.NewLine(seriesXYs(s))
	if err != nil {
		return fmt.Errorf("diagnostics plot: %w", err)
	}
	top.Add(plotter.NewGrid(), line)

	acf, err := correlogramPlot("Autocorrelation", stats.ACFWithConfidence(s, lags, alpha))
	if err != nil {
		return err
	}
	pacf, err := correlogramPlot("Partial Autocorrelation", stats.PACFWithConfidence(s, lags, alpha))
	if err != nil {
		return err
	}

	img := vgimg.New(r.Width, r.Height)
	dc := draw.New(img)
	half := (dc.Max.Y - dc.Min.Y) / 2
	upper := draw.Crop(dc, 0, 0, half, 0)
	lower := draw.Crop(dc, 0, 0, 0, -half)
	top.Draw(upper)

	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter * 4, PadTop: vg.Millimeter * 2}
	canvases := plot.Align([][]*plot.Plot{{acf, pacf}}, tiles, lower)
	acf.Draw(canvases[0][0])
	pacf.Draw(canvases[0][1])

	return writePNG(img, path)
}

func correlogramPlot(title string, c *stats.Correlogram) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Lag"
	if c == nil {
		return p, nil
	}

	bars, err := plotter.NewBarChart(plotter.Values(c.Values), vg.Points(4))
	if err != nil {
		return nil, fmt.Errorf("%s plot: %w", title, err)
	}
	bars.Color = darkBlue
	p.Add(plotter.NewGrid(), bars)

	for _, bound := range []float64{c.ConfBounds, -c.ConfBounds} {
		f := plotter.NewFunction(func(float64) float64 { return bound })
		f.XMin, f.XMax = 0, float64(len(c.Values)-1)
		f.Color = orange
		f.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(f)
	}
	p.Y.Min, p.Y.Max = -1, 1
	return p, nil
}

// ForecastFigure holds what the forecast plot draws.
type ForecastFigure struct {
	Name     string
	Train    *timeseries.Series
	Test     *timeseries.Series
	Forecast *sarima.Forecast
	MAE      float64
	MAPE     float64

	// TrainLimit bounds the rendered train history to TrainLimit times the
	// test length. Zero draws the whole train series.
	TrainLimit float64
}

// Forecast draws train and test actuals, the point forecast and its
// prediction interval as a ribbon.
func (r *Renderer) Forecast(f ForecastFigure, path string) error {
	if f.Forecast == nil || f.Forecast.Len() != f.Test.Len() {
		return errors.New("forecast plot: forecast does not cover the test period")
	}

	train := f.Train
	if f.TrainLimit > 0 {
		limit := int(math.Ceil(f.TrainLimit * float64(f.Test.Len())))
		train = train.Tail(min(max(limit, 1), train.Len()))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Forecast for %s\nMAE = %.5g, MAPE = %.5g",
		r.Registry.SeriesTitle(f.Name), f.MAE, f.MAPE)
	timeAxes(p)

	ts := f.Test.Timestamps
	band := make(plotter.XYs, 0, 2*len(ts))
	for i, t := range ts {
		band = append(band, plotter.XY{X: float64(t.Unix()), Y: f.Forecast.Upper[i]})
	}
	for i := len(ts) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: float64(ts[i].Unix()), Y: f.Forecast.Lower[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	poly.Color = ribbon
	poly.LineStyle.Width = 0
	p.Add(plotter.NewGrid(), poly)

	trainLine, err := plotter.NewLine(seriesXYs(train))
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	trainLine.Color = lightBlue

	testLine, err := plotter.NewLine(seriesXYs(f.Test))
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	testLine.Color = darkBlue

	fcXYs := make(plotter.XYs, len(ts))
	for i, t := range ts {
		fcXYs[i] = plotter.XY{X: float64(t.Unix()), Y: f.Forecast.Mean[i]}
	}
	fcLine, err := plotter.NewLine(fcXYs)
	if err != nil {
		return fmt.Errorf("forecast plot: %w", err)
	}
	fcLine.Color = orange
	fcLine.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	p.Add(trainLine, testLine, fcLine)
	p.Legend.Add("train", trainLine)
	p.Legend.Add("test", testLine)
	p.Legend.Add("forecast", fcLine)
	p.Legend.Top = true

	return p.Save(r.Width, r.Height/2, path)
}

func timeAxes(p *plot.Plot) {
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Monthly Visitors"
	p.X.Tick.Marker = plot.TimeTicks{Format: timeFormat}
}

// seriesXYs converts a series to plot points, skipping NaN values.
func seriesXYs(s *timeseries.Series) plotter.XYs {
	xys := make(plotter.XYs, 0, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(s.Timestamps[i].Unix()), Y: v})
	}
	return xys
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
