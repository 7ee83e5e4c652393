package autoarima

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/sartorproj/parkcast/sarima"
)

// Summary renders the selected model as a text report: orders,
// coefficients with standard errors, fit statistics and residual
// diagnostics.
func (r *Result) Summary() string {
	if r == nil || r.Model == nil {
		return ""
	}
	s := r.Model.Summary()
	if s == nil {
		return ""
	}

	var b strings.Builder
	name := r.Name
	if name == "" {
		name = "y"
	}
	fmt.Fprintf(&b, "%s results for %s\n", r.Order, name)
	fmt.Fprintf(&b, "Observations: %d (%d in likelihood)\n", s.NObs, s.NEff)
	fmt.Fprintf(&b, "Selected by %s over %d candidates (%d failed)\n\n",
		strings.ToUpper(string(r.Criterion)), r.ModelsEvaluated, r.ModelsFailed)

	coef := tablewriter.NewWriter(&b)
	coef.Header([]string{"Term", "Coef", "Std Err", "z"})
	coef.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var rows [][]string
	add := func(term string, v, se float64) {
		z := math.NaN()
		if se > 0 {
			z = v / se
		}
		rows = append(rows, []string{term, num(v), num(se), num(z)})
	}
	if s.HasMean {
		add("intercept", s.Intercept, math.NaN())
	}
	for i, v := range s.ExogCoeffs {
		term := "const"
		if i > 0 {
			term = s.ExogNames[i-1]
		}
		add(term, v, math.NaN())
	}
	for i, v := range s.ARCoeffs {
		add(fmt.Sprintf("ar.L%d", i+1), v, s.ARStdErrors[i])
	}
	for i, v := range s.MACoeffs {
		add(fmt.Sprintf("ma.L%d", i+1), v, s.MAStdErrors[i])
	}
	for i, v := range s.SARCoeffs {
		add(fmt.Sprintf("ar.S.L%d", (i+1)*s.Order.M), v, s.SARStdErrors[i])
	}
	for i, v := range s.SMACoeffs {
		add(fmt.Sprintf("ma.S.L%d", (i+1)*s.Order.M), v, s.SMAStdErrors[i])
	}
	add("sigma2", s.Variance, math.NaN())
	if err := coef.Bulk(rows); err != nil {
		return b.String()
	}
	if err := coef.Render(); err != nil {
		return b.String()
	}

	fit := tablewriter.NewWriter(&b)
	fit.Header([]string{"Statistic", "Value"})
	fit.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	stats := [][]string{
		{"Log likelihood", num(s.LogLik)},
		{"AIC", num(s.AIC)},
		{"AICc", num(s.AICc)},
		{"BIC", num(s.BIC)},
		{"Durbin-Watson", num(s.DurbinWatson)},
	}
	if lb := s.LjungBox; lb != nil {
		stats = append(stats,
			[]string{fmt.Sprintf("Ljung-Box Q(%d)", lb.Lags), num(lb.Statistic)},
			[]string{"Prob(Q)", num(lb.PValue)},
		)
	}
	if err := fit.Bulk(stats); err != nil {
		return b.String()
	}
	_ = fit.Render()
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

type resultState struct {
	Name            string        `json:"name"`
	Criterion       Criterion     `json:"criterion"`
	Score           *float64      `json:"score"`
	ModelsEvaluated int           `json:"models_evaluated"`
	ModelsFailed    int           `json:"models_failed"`
	Model           *sarima.Model `json:"model"`
}

// MarshalJSON encodes the selected model and search statistics. The
// candidate trace is not kept.
func (r *Result) MarshalJSON() ([]byte, error) {
	var score *float64
	if !math.IsInf(r.Score, 0) && !math.IsNaN(r.Score) {
		score = &r.Score
	}
	return json.Marshal(resultState{
		Name:            r.Name,
		Criterion:       r.Criterion,
		Score:           score,
		ModelsEvaluated: r.ModelsEvaluated,
		ModelsFailed:    r.ModelsFailed,
		Model:           r.Model,
	})
}

// UnmarshalJSON restores a result written by MarshalJSON.
func (r *Result) UnmarshalJSON(b []byte) error {
	var st resultState
	if err := json.Unmarshal(b, &st); err != nil {
		return err
	}
	if st.Model == nil {
		return fmt.Errorf("serialized result has no model")
	}
	*r = Result{
		Name:            st.Name,
		Model:           st.Model,
		Order:           st.Model.Order,
		Criterion:       st.Criterion,
		Score:           math.Inf(1),
		ModelsEvaluated: st.ModelsEvaluated,
		ModelsFailed:    st.ModelsFailed,
	}
	if st.Score != nil {
		r.Score = *st.Score
	}
	return nil
}
