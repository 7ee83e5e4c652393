package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/sartorproj/parkcast/pipeline"
)

var (
	completedColor = color.New(color.FgGreen)
	skippedColor   = color.New(color.FgYellow)
	failedColor    = color.New(color.FgRed, color.Bold)
)

func statusLabel(s pipeline.Status) string {
	switch s {
	case pipeline.StatusCompleted:
		return completedColor.Sprint(s)
	case pipeline.StatusSkipped:
		return skippedColor.Sprint(s)
	default:
		return failedColor.Sprint(s)
	}
}

// printReport renders one row per series followed by a status tally.
func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "\nRecipe %s (run %s)\n", r.Recipe, r.RunID)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Series", "Status", "Obs", "Model", "MAE", "MAPE", "Time", "Note"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{
			tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignLeft,
			tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft,
		}
	})

	rows := make([][]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		model, mae, mape := "-", "-", "-"
		if o.Model != nil {
			model = o.Model.Order.String()
		}
		if m := o.Metrics; m != nil {
			mae = fmt.Sprintf("%.1f", m.MAE)
			if !math.IsNaN(m.MAPE) {
				mape = fmt.Sprintf("%.2f%%", 100*m.MAPE)
			}
		}
		note := ""
		if o.Status != pipeline.StatusCompleted {
			note = truncate(o.Reason, 60)
		}
		rows = append(rows, []string{
			o.Series,
			statusLabel(o.Status),
			fmt.Sprint(o.NObs),
			model,
			mae,
			mape,
			o.Duration.Round(1e6).String(),
			note,
		})
	}
	if err := table.Bulk(rows); err != nil {
		fmt.Fprintln(w, err)
		return
	}
	if err := table.Render(); err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintf(w, "%d completed, %d skipped, %d failed in %s\n",
		r.Count(pipeline.StatusCompleted), r.Count(pipeline.StatusSkipped), r.Count(pipeline.StatusFailed),
		r.Duration.Round(1e6))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
