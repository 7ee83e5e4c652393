package pipeline

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sartorproj/parkcast/autoarima"
	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/split"
	"github.com/sartorproj/parkcast/stationarity"
)

// Config holds the options of one modelling recipe. Fields tagged with a
// key are read from recipe params; Workers and FitTimeout come from the
// process configuration.
type Config struct {
	TestSize                 split.TestSize `mapstructure:"test_size"`
	SeasonalPeriod           int            `mapstructure:"seasonal_period"`
	StationarityTest         string         `mapstructure:"stationarity_test"`
	StationaritySignificance float64        `mapstructure:"stationarity_significance"`
	MaxDifferenceIterations  int            `mapstructure:"max_difference_iterations"`
	MaxModelOrder            int            `mapstructure:"max_model_order"`
	InformationCriterion     string         `mapstructure:"information_criterion"`
	ForecastConfidenceAlpha  float64        `mapstructure:"forecast_confidence_alpha"`
	MinHistoryLength         int            `mapstructure:"min_history_length"`
	TrainPlotLimit           float64        `mapstructure:"train_plot_limit"`
	RollingWindow            int            `mapstructure:"rolling_window"`
	ExogVars                 []string       `mapstructure:"exog_vars"`
	TSCols                   []string       `mapstructure:"ts_cols"`

	Workers    int           `mapstructure:"-"`
	FitTimeout time.Duration `mapstructure:"-"`
}

// DefaultConfig returns the defaults used for missing recipe params.
func DefaultConfig() Config {
	return Config{
		TestSize:                 split.Fraction(0.2),
		SeasonalPeriod:           1,
		StationarityTest:         "adf",
		StationaritySignificance: 0.05,
		MaxDifferenceIterations:  3,
		MaxModelOrder:            8,
		InformationCriterion:     string(autoarima.AIC),
		ForecastConfidenceAlpha:  0.05,
		MinHistoryLength:         60,
		TrainPlotLimit:           2,
		RollingWindow:            12,
		Workers:                  1,
	}
}

// Validate checks every option independently of the input data.
func (c Config) Validate() error {
	if err := c.TestSize.Validate(); err != nil {
		return err
	}
	switch {
	case c.SeasonalPeriod < 1:
		return invalid("seasonal_period must be at least 1, got %d", c.SeasonalPeriod)
	case c.StationaritySignificance <= 0 || c.StationaritySignificance >= 1:
		return invalid("stationarity_significance %v outside (0, 1)", c.StationaritySignificance)
	case c.MaxDifferenceIterations < 0:
		return invalid("negative max_difference_iterations %d", c.MaxDifferenceIterations)
	case c.MaxModelOrder < 0:
		return invalid("negative max_model_order %d", c.MaxModelOrder)
	case c.ForecastConfidenceAlpha <= 0 || c.ForecastConfidenceAlpha >= 1:
		return invalid("forecast_confidence_alpha %v outside (0, 1)", c.ForecastConfidenceAlpha)
	case c.MinHistoryLength < 0:
		return invalid("negative min_history_length %d", c.MinHistoryLength)
	case c.TrainPlotLimit < 0:
		return invalid("negative train_plot_limit %v", c.TrainPlotLimit)
	case c.RollingWindow < 0:
		return invalid("negative rolling_window %d", c.RollingWindow)
	case c.Workers < 1:
		return invalid("workers must be at least 1, got %d", c.Workers)
	case c.FitTimeout < 0:
		return invalid("negative fit timeout %s", c.FitTimeout)
	}
	if _, err := stationarity.ParseTest(c.StationarityTest); err != nil {
		return err
	}
	if _, err := autoarima.ParseCriterion(c.InformationCriterion); err != nil {
		return err
	}
	if err := unique("exog_vars", c.ExogVars); err != nil {
		return err
	}
	if err := unique("ts_cols", c.TSCols); err != nil {
		return err
	}
	for _, col := range c.TSCols {
		if slices.Contains(c.ExogVars, col) {
			return invalid("column %q is both a target and an exogenous variable", col)
		}
	}
	return nil
}

// modelConfig derives the order-search configuration.
func (c Config) modelConfig() autoarima.Config {
	cfg := autoarima.DefaultConfig()
	cfg.SeasonalPeriod = c.SeasonalPeriod
	cfg.MaxOrder = c.MaxModelOrder
	cfg.Criterion, _ = autoarima.ParseCriterion(c.InformationCriterion)
	return cfg
}

// DecodeParams overlays recipe params on base. Unknown keys are rejected.
func DecodeParams(base Config, params map[string]any) (Config, error) {
	cfg := base
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			testSizeHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(params); err != nil {
		return Config{}, fmt.Errorf("%w: recipe params: %v", errdefs.ErrInvalidConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var testSizeType = reflect.TypeOf(split.TestSize{})

func testSizeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != testSizeType {
		return data, nil
	}
	return split.ParseTestSize(data)
}

func unique(key string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return invalid("empty name in %s", key)
		}
		if seen[n] {
			return invalid("duplicate %q in %s", n, key)
		}
		seen[n] = true
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errdefs.ErrInvalidConfiguration}, args...)...)
}
