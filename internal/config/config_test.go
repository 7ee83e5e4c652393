package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/parkcast/errdefs"
)

const sample = `
output_dir: out
workers: 4
fit_timeout: 90s
logging:
  level: debug
  format: json
reference:
  park_names: configs/all_parks.yaml
  park_types: configs/park_types.yaml
inputs:
  - name: parks
    path: data/visitors.csv
  - name: types
    path: data/visitors_by_type.csv
    date_column: month
recipes:
  - name: parks_arima
    input: parks
    algorithm: arima
    outputs_subdir: parks
    params:
      test_size: 0.2
      seasonal_period: 12
  - name: types_arima
    input: types
    algorithm: arima
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parkcast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.FitTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.OutputPath)

	require.Len(t, cfg.Inputs, 2)
	assert.Equal(t, "month", cfg.Inputs[1].DateColumn)
	require.Len(t, cfg.Recipes, 2)
	assert.Equal(t, "parks", cfg.Recipes[0].OutputsSubdir)
	assert.Equal(t, 0.2, cfg.Recipes[0].Params["test_size"])
	assert.EqualValues(t, 12, cfg.Recipes[0].Params["seasonal_period"])

	in, ok := cfg.Input("types")
	assert.True(t, ok)
	assert.Equal(t, "data/visitors_by_type.csv", in.Path)
	_, ok = cfg.Input("missing")
	assert.False(t, ok)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PARKCAST_WORKERS", "7")
	t.Setenv("PARKCAST_LOGGING_LEVEL", "error")
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Inputs = []InputConfig{{Name: "parks", Path: "parks.csv"}}
		cfg.Recipes = []RecipeConfig{{Name: "r", Input: "parks", Algorithm: "arima"}}
		return cfg
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"negative timeout", func(c *Config) { c.FitTimeout = -time.Second }},
		{"no output dir", func(c *Config) { c.OutputDir = "" }},
		{"half reference", func(c *Config) { c.Reference.ParkNames = "names.yaml" }},
		{"unnamed input", func(c *Config) { c.Inputs[0].Name = "" }},
		{"duplicate input", func(c *Config) { c.Inputs = append(c.Inputs, c.Inputs[0]) }},
		{"unknown input", func(c *Config) { c.Recipes[0].Input = "types" }},
		{"unnamed recipe", func(c *Config) { c.Recipes[0].Name = "" }},
		{"duplicate recipe", func(c *Config) { c.Recipes = append(c.Recipes, c.Recipes[0]) }},
		{"escaping subdir", func(c *Config) { c.Recipes[0].OutputsSubdir = "../elsewhere" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errdefs.ErrInvalidConfiguration)
		})
	}
}
