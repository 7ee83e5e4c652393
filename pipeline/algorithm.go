package pipeline

import (
	"fmt"
	"strings"

	"github.com/sartorproj/parkcast/errdefs"
)

// Algorithm is a modelling recipe the pipeline can run. ARIMA is the only
// implementation.
type Algorithm interface {
	Name() string
	Config() Config
	sealed()
}

// ARIMA selects seasonal ARIMA orders automatically per series.
type ARIMA struct {
	Cfg Config
}

func (ARIMA) Name() string     { return "arima" }
func (a ARIMA) Config() Config { return a.Cfg }
func (ARIMA) sealed()          {}

// ParseAlgorithm resolves an algorithm name and decodes its params on top
// of base.
func ParseAlgorithm(name string, base Config, params map[string]any) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "arima":
		cfg, err := DecodeParams(base, params)
		if err != nil {
			return nil, fmt.Errorf("arima: %w", err)
		}
		return ARIMA{Cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", errdefs.ErrInvalidConfiguration, name)
	}
}
