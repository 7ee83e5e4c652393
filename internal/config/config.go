// Package config loads the parkcast configuration file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sartorproj/parkcast/errdefs"
)

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig   `mapstructure:"logging"`
	OutputDir   string          `mapstructure:"output_dir"`
	Workers     int             `mapstructure:"workers"`
	FitTimeout  time.Duration   `mapstructure:"fit_timeout"` // 0 disables the per-series deadline
	MetricsFile string          `mapstructure:"metrics_file"`
	Reference   ReferenceConfig `mapstructure:"reference"`
	Inputs      []InputConfig   `mapstructure:"inputs"`
	Recipes     []RecipeConfig  `mapstructure:"recipes"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json or console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr or a file path
	TimeFormat string `mapstructure:"time_format"`
}

// ReferenceConfig points at the park name tables used for plot titles.
// Both are optional.
type ReferenceConfig struct {
	ParkNames string `mapstructure:"park_names"`
	ParkTypes string `mapstructure:"park_types"`
}

// InputConfig names a wide CSV table.
type InputConfig struct {
	Name       string `mapstructure:"name"`
	Path       string `mapstructure:"path"`
	DateColumn string `mapstructure:"date_column"`
}

// RecipeConfig describes one modelling run over an input.
type RecipeConfig struct {
	Name          string         `mapstructure:"name"`
	Input         string         `mapstructure:"input"`
	Algorithm     string         `mapstructure:"algorithm"`
	OutputsSubdir string         `mapstructure:"outputs_subdir"`
	Params        map[string]any `mapstructure:"params"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", errdefs.ErrInvalidConfiguration, c.Workers)
	}
	if c.FitTimeout < 0 {
		return fmt.Errorf("%w: negative fit_timeout", errdefs.ErrInvalidConfiguration)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", errdefs.ErrInvalidConfiguration)
	}
	if (c.Reference.ParkNames == "") != (c.Reference.ParkTypes == "") {
		return fmt.Errorf("%w: reference needs both park_names and park_types", errdefs.ErrInvalidConfiguration)
	}

	inputs := make(map[string]bool, len(c.Inputs))
	for i, in := range c.Inputs {
		if in.Name == "" || in.Path == "" {
			return fmt.Errorf("%w: input %d needs a name and a path", errdefs.ErrInvalidConfiguration, i)
		}
		if inputs[in.Name] {
			return fmt.Errorf("%w: duplicate input %q", errdefs.ErrInvalidConfiguration, in.Name)
		}
		inputs[in.Name] = true
	}

	recipes := make(map[string]bool, len(c.Recipes))
	for i, r := range c.Recipes {
		if r.Name == "" {
			return fmt.Errorf("%w: recipe %d has no name", errdefs.ErrInvalidConfiguration, i)
		}
		if recipes[r.Name] {
			return fmt.Errorf("%w: duplicate recipe %q", errdefs.ErrInvalidConfiguration, r.Name)
		}
		recipes[r.Name] = true
		if !inputs[r.Input] {
			return fmt.Errorf("%w: recipe %q uses unknown input %q", errdefs.ErrInvalidConfiguration, r.Name, r.Input)
		}
		if strings.ContainsAny(r.OutputsSubdir, `\`) || strings.Contains(r.OutputsSubdir, "..") {
			return fmt.Errorf("%w: recipe %q has an invalid outputs_subdir", errdefs.ErrInvalidConfiguration, r.Name)
		}
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("%w: invalid log level %q", errdefs.ErrInvalidConfiguration, c.Level)
	}
	switch c.Format {
	case "json", "console", "pretty":
	default:
		return fmt.Errorf("%w: invalid log format %q", errdefs.ErrInvalidConfiguration, c.Format)
	}
	return nil
}

// Input returns the input named name.
func (c *Config) Input(name string) (InputConfig, bool) {
	for _, in := range c.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputConfig{}, false
}
