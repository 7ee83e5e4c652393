package pipeline

import (
	"math"
	"time"

	"github.com/sartorproj/parkcast/artifacts"
	"github.com/sartorproj/parkcast/autoarima"
	"github.com/sartorproj/parkcast/evaluation"
	"github.com/sartorproj/parkcast/stationarity"
)

// Status is the terminal state of one series.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one series.
type Outcome struct {
	Series    string
	Status    Status
	Reason    string // skip or failure reason
	Err       error  // set for failures
	StartedAt time.Time
	Duration  time.Duration

	NObs  int
	NTest int

	Diagnostic *stationarity.Result
	Model      *autoarima.Result
	Metrics    *evaluation.Metrics
}

// Report is the result of a run. Outcomes follow the input column order.
type Report struct {
	RunID     string
	Recipe    string
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []Outcome
}

// Count returns the number of outcomes with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Outcome returns the outcome of the named series.
func (r *Report) Outcome(series string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Series == series {
			return o, true
		}
	}
	return Outcome{}, false
}

// Rows converts the report for artifacts.WriteReport.
func (r *Report) Rows() []artifacts.ReportRow {
	rows := make([]artifacts.ReportRow, len(r.Outcomes))
	for i, o := range r.Outcomes {
		row := artifacts.ReportRow{
			RunID:      r.RunID,
			Recipe:     r.Recipe,
			Series:     o.Series,
			Status:     string(o.Status),
			StartedAt:  o.StartedAt.UTC(),
			DurationMs: o.Duration.Milliseconds(),
			NObs:       int32(o.NObs),
			NTest:      int32(o.NTest),
		}
		if o.Reason != "" {
			row.Reason = ptr(o.Reason)
		}
		if d := o.Diagnostic; d != nil {
			row.Diffs = ptr(int32(d.Diffs))
			row.PValue = finite(d.PValue)
		}
		if m := o.Model; m != nil {
			row.Order = ptr(m.Order.String())
			row.AIC = finite(m.Model.AIC)
		}
		if m := o.Metrics; m != nil {
			row.MAE = finite(m.MAE)
			row.MAPE = finite(m.MAPE)
			row.RMSE = finite(m.RMSE)
		}
		rows[i] = row
	}
	return rows
}

func ptr[T any](v T) *T { return &v }

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
