// Package autoarima implements automatic SARIMA order selection.
package autoarima

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sartorproj/parkcast/errdefs"
	"github.com/sartorproj/parkcast/sarima"
	"github.com/sartorproj/parkcast/stats"
	"github.com/sartorproj/parkcast/timeseries"
)

// Criterion is the information criterion candidates are ranked by.
type Criterion string

const (
	AIC  Criterion = "aic"
	AICc Criterion = "aicc"
	BIC  Criterion = "bic"
)

// ParseCriterion accepts "aic", "aicc" and "bic" in any case. The empty
// string selects AIC.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return AIC, nil
	case AIC, AICc, BIC:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown information criterion %q", errdefs.ErrInvalidConfiguration, s)
	}
}

func (c Criterion) score(m *sarima.Model) float64 {
	switch c {
	case BIC:
		return m.BIC
	case AICc:
		return m.AICc
	default:
		return m.AIC
	}
}

// Config holds configuration for the order search.
type Config struct {
	SeasonalPeriod int // 1 disables seasonal terms
	MaxOrder       int // bound on p+q+P+Q
	MaxP           int // Maximum AR order (default: 5)
	MaxQ           int // Maximum MA order (default: 5)
	MaxSP          int // Maximum seasonal AR order (default: 2)
	MaxSQ          int // Maximum seasonal MA order (default: 2)
	MaxD           int // Maximum differencing order (default: 2)
	MaxSD          int // Maximum seasonal differencing order (default: 1)
	Criterion      Criterion
	Stepwise       bool // Use stepwise search instead of exhaustive
	StationTest    stats.UnitRootTest

	// MaxEvaluations bounds objective evaluations per candidate.
	MaxEvaluations int
	// CacheSize is the number of candidate fits kept for reuse (default 64).
	CacheSize int
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		SeasonalPeriod: 1,
		MaxOrder:       8,
		MaxP:           5,
		MaxQ:           5,
		MaxSP:          2,
		MaxSQ:          2,
		MaxD:           2,
		MaxSD:          1,
		Criterion:      AIC,
		Stepwise:       true,
		StationTest:    stats.TestKPSS,
		CacheSize:      64,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SeasonalPeriod < 1 {
		return fmt.Errorf("%w: seasonal period %d below 1", errdefs.ErrInvalidConfiguration, c.SeasonalPeriod)
	}
	if c.MaxOrder < 0 {
		return fmt.Errorf("%w: max order %d is negative", errdefs.ErrInvalidConfiguration, c.MaxOrder)
	}
	for name, v := range map[string]int{
		"max_p": c.MaxP, "max_q": c.MaxQ, "max_P": c.MaxSP, "max_Q": c.MaxSQ,
		"max_d": c.MaxD, "max_D": c.MaxSD, "max_evaluations": c.MaxEvaluations, "cache_size": c.CacheSize,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", errdefs.ErrInvalidConfiguration, name)
		}
	}
	if _, err := ParseCriterion(string(c.Criterion)); err != nil {
		return err
	}
	switch c.StationTest {
	case "", stats.TestKPSS, stats.TestADF, stats.TestPP:
	default:
		return fmt.Errorf("%w: unknown stationarity test %q", errdefs.ErrInvalidConfiguration, c.StationTest)
	}
	return nil
}

// Candidate records one fitted (or failed) order.
type Candidate struct {
	Order sarima.Order
	Score float64
	Err   error
}

// Result is the selected model together with search statistics.
type Result struct {
	Name      string
	Model     *sarima.Model
	Order     sarima.Order
	Criterion Criterion
	Score     float64

	// Search information
	ModelsEvaluated int
	ModelsFailed    int
	Candidates      []Candidate
}

// search carries the state shared by all candidates of one Fit call.
type search struct {
	ctx    context.Context
	cfg    Config
	series *timeseries.Series
	exog   *timeseries.Exogenous
	d, sd  int
	m      int
	maxP   int
	maxSP  int
	start  int
	cache  *lru.Cache[sarima.Order, Candidate]
	models map[sarima.Order]*sarima.Model
	tried  []Candidate
	failed int
}

// Fit selects and fits the best SARIMA model for train. Differencing
// orders are chosen from train itself: seasonal differencing by seasonal
// strength, then first differences by a unit-root test. exog may be nil.
func Fit(ctx context.Context, train *timeseries.Series, exog *timeseries.Exogenous, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Criterion, _ = ParseCriterion(string(cfg.Criterion))
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 64
	}
	if exog.Cols() > 0 && exog.Rows() != train.Len() {
		return nil, fmt.Errorf("%w: %d exogenous rows for %d training observations",
			errdefs.ErrInvalidConfiguration, exog.Rows(), train.Len())
	}

	s := &search{
		ctx:    ctx,
		cfg:    cfg,
		series: train,
		exog:   exog,
		m:      cfg.SeasonalPeriod,
		models: make(map[sarima.Order]*sarima.Model),
	}
	cache, err := lru.New[sarima.Order, Candidate](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrInvalidConfiguration, err)
	}
	s.cache = cache

	s.determineDifferencing()
	s.bound()

	var best *Candidate
	if cfg.Stepwise {
		best, err = s.stepwise()
	} else {
		best, err = s.grid()
	}
	if err != nil {
		return nil, err
	}
	if best == nil {
		var last error
		for _, c := range s.tried {
			if c.Err != nil {
				last = c.Err
			}
		}
		return nil, fmt.Errorf("%w: no candidate order could be fitted to %d observations (last error: %v)",
			errdefs.ErrModelFit, train.Len(), last)
	}

	return &Result{
		Name:            train.Name,
		Model:           s.models[best.Order],
		Order:           best.Order,
		Criterion:       cfg.Criterion,
		Score:           best.Score,
		ModelsEvaluated: len(s.tried),
		ModelsFailed:    s.failed,
		Candidates:      s.tried,
	}, nil
}

func (s *search) determineDifferencing() {
	current := s.series
	if s.m > 1 {
		s.sd = stats.NSDiffs(current, s.m, s.cfg.MaxSD)
		for i := 0; i < s.sd; i++ {
			current = current.SeasonalDiff(s.m)
		}
	}
	if current.Len() >= stats.MinUnitRootObservations {
		s.d = stats.NDiffs(current, s.cfg.MaxD, s.cfg.StationTest)
	}
}

// bound shrinks the AR maxima to what the differenced sample can support
// and fixes the conditioning start every candidate shares, so that their
// likelihoods cover identical observations.
func (s *search) bound() {
	nw := s.series.Len() - s.d - s.sd*s.m
	limit := max(nw/3, 0)

	s.maxP = min(s.cfg.MaxP, limit)
	s.maxSP = 0
	if s.m > 1 {
		s.maxSP = min(s.cfg.MaxSP, limit/s.m)
	}
	s.start = max(s.maxP, s.maxSP*s.m)
}

func (s *search) maxSQ() int {
	if s.m > 1 {
		return s.cfg.MaxSQ
	}
	return 0
}

func (s *search) admissible(o sarima.Order) bool {
	return o.P >= 0 && o.Q >= 0 && o.SP >= 0 && o.SQ >= 0 &&
		o.P <= s.maxP && o.Q <= s.cfg.MaxQ &&
		o.SP <= s.maxSP && o.SQ <= s.maxSQ() &&
		o.ARMAOrder() <= s.cfg.MaxOrder
}

func (s *search) order(p, q, sp, sq int) sarima.Order {
	o := sarima.Order{P: p, D: s.d, Q: q, SP: sp, SD: s.sd, SQ: sq}
	if s.m > 1 {
		o.M = s.m
	}
	return o
}

// evaluate fits o unless it was fitted before. The returned candidate has
// a non-nil Err when the fit failed.
func (s *search) evaluate(o sarima.Order) (Candidate, error) {
	if c, ok := s.cache.Get(o); ok {
		return c, nil
	}
	if err := s.ctx.Err(); err != nil {
		return Candidate{}, fmt.Errorf("%w: order search interrupted: %w", errdefs.ErrModelFit, err)
	}

	model := sarima.New(o)
	err := model.Fit(s.series, &sarima.Options{
		ConditionOn:    s.start,
		Exog:           s.exog,
		MaxEvaluations: s.cfg.MaxEvaluations,
	})

	c := Candidate{Order: o, Score: math.Inf(1), Err: err}
	if err == nil {
		c.Score = s.cfg.Criterion.score(model)
		if math.IsNaN(c.Score) {
			c.Score = math.Inf(1)
		}
		s.models[o] = model
	} else {
		s.failed++
	}
	s.tried = append(s.tried, c)
	s.cache.Add(o, c)
	return c, nil
}

// consider evaluates o and replaces best when o scores lower.
func (s *search) consider(o sarima.Order, best **Candidate) (bool, error) {
	if !s.admissible(o) {
		return false, nil
	}
	c, err := s.evaluate(o)
	if err != nil {
		return false, err
	}
	if c.Err != nil || math.IsInf(c.Score, 1) {
		return false, nil
	}
	if *best == nil || c.Score < (*best).Score {
		*best = &c
		return true, nil
	}
	return false, nil
}

func (s *search) grid() (*Candidate, error) {
	var best *Candidate
	for p := 0; p <= s.maxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			for sp := 0; sp <= s.maxSP; sp++ {
				for sq := 0; sq <= s.maxSQ(); sq++ {
					if _, err := s.consider(s.order(p, q, sp, sq), &best); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return best, nil
}

func (s *search) stepwise() (*Candidate, error) {
	type orders struct{ p, q, sp, sq int }

	seeds := []orders{{2, 2, 1, 1}, {0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}}
	var best *Candidate
	for _, sd := range seeds {
		if s.m <= 1 {
			sd.sp, sd.sq = 0, 0
		}
		if _, err := s.consider(s.order(sd.p, sd.q, sd.sp, sd.sq), &best); err != nil {
			return nil, err
		}
	}

	// Stepwise refinement
	for improved := best != nil; improved; {
		improved = false
		o := best.Order
		neighbors := []orders{
			{o.P + 1, o.Q, o.SP, o.SQ},
			{o.P - 1, o.Q, o.SP, o.SQ},
			{o.P, o.Q + 1, o.SP, o.SQ},
			{o.P, o.Q - 1, o.SP, o.SQ},
			{o.P + 1, o.Q + 1, o.SP, o.SQ},
			{o.P - 1, o.Q - 1, o.SP, o.SQ},
			{o.P, o.Q, o.SP + 1, o.SQ},
			{o.P, o.Q, o.SP - 1, o.SQ},
			{o.P, o.Q, o.SP, o.SQ + 1},
			{o.P, o.Q, o.SP, o.SQ - 1},
			{o.P, o.Q, o.SP + 1, o.SQ + 1},
			{o.P, o.Q, o.SP - 1, o.SQ - 1},
		}
		for _, n := range neighbors {
			better, err := s.consider(s.order(n.p, n.q, n.sp, n.sq), &best)
			if err != nil {
				return nil, err
			}
			if better {
				improved = true
				break
			}
		}
	}
	return best, nil
}

// Forecast holds point forecasts and a prediction interval per step.
type Forecast = sarima.Forecast

// Predict produces exactly horizon forecasts with intervals at level
// 1-alpha. exog must be given iff the model was fitted with covariates.
func (r *Result) Predict(horizon int, exog *timeseries.Exogenous, alpha float64) (*Forecast, error) {
	if r == nil || r.Model == nil {
		return nil, errors.New("no fitted model")
	}
	return r.Model.Forecast(horizon, exog, alpha)
}
