package viz

import (
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/rxnet/internal/analysis"
	"github.com/san-kum/rxnet/internal/automation"
)

// CompoundSummary describes one compound of a stored trajectory.
type CompoundSummary struct {
	Name        string
	Min, Max    float64
	Final       float64
	Oscillation analysis.Oscillation
}

// RenderAnalysis tabulates per-compound ranges and dominant periods.
// Periods with less than a tenth of the spectral power are left out.
func RenderAnalysis(rows []CompoundSummary, settled bool) string {
	t := newTable("compound", "min", "max", "final", "period", "power share")
	for _, r := range rows {
		period := "-"
		if r.Oscillation.Share >= 0.1 {
			period = formatValue(r.Oscillation.Period)
		}
		t.Row(r.Name, formatValue(r.Min), formatValue(r.Max), formatValue(r.Final), period,
			strconv.FormatFloat(r.Oscillation.Share, 'f', 2, 64))
	}
	status := StatusPaused.Render("still changing")
	if settled {
		status = StatusRunning.Render("settled")
	}
	return t.String() + "\n" + MetricLabel.Render("steady state: ") + status + "\n"
}

// RenderSensitivity shows dx/dln p with one row per parameter.
func RenderSensitivity(s *analysis.Sensitivity, names []string) string {
	t := newTable(append([]string{"parameter"}, names...)...)
	for i, p := range s.Parameters {
		row := []string{p}
		for j := range names {
			row = append(row, formatValue(s.Values[i][j]))
		}
		t.Row(row...)
	}
	base := newTable(append([]string{""}, names...)...)
	row := []string{"final"}
	for j := range names {
		row = append(row, formatValue(s.Base[j]))
	}
	base.Row(row...)
	return base.String() + "\n" + t.String()
}

// RenderEnsemble summarizes Monte Carlo final states.
func RenderEnsemble(stats []automation.CompoundStats, failed, trials int) string {
	t := newTable("compound", "mean", "std", "min", "max")
	for _, s := range stats {
		if math.IsNaN(s.Mean) {
			t.Row(s.Name, "-", "-", "-", "-")
			continue
		}
		t.Row(s.Name, formatValue(s.Mean), formatValue(s.Std), formatValue(s.Min), formatValue(s.Max))
	}
	summary := fmt.Sprintf("%d/%d trials succeeded", trials-failed, trials)
	if failed > 0 {
		summary = StatusFailed.Render(summary)
	}
	return t.String() + "\n" + summary + "\n"
}
