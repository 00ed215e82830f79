package viz

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
	"github.com/san-kum/rxnet/internal/storage"
)

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sectionName = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	derivedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// RenderNetwork summarises the components of a finalized network.
func RenderNetwork(name string, net *network.FrozenNetwork) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(strings.ToUpper(name)) + "\n")
	fmt.Fprintf(&b, "%d compounds, %d parameters, %d forcings, %d modules, %d reactions\n\n",
		net.Dim(), len(net.ParameterNames()), len(net.Forcings()), len(net.ModuleOrder()), len(net.Reactions()))

	compounds := newTable("compound", "initial")
	initial := net.InitialState()
	for i, c := range net.Compounds() {
		compounds.Row(c, formatValue(initial[i]))
	}
	b.WriteString(sectionName.Render("Compounds") + "\n" + compounds.String() + "\n\n")

	if f := net.Forcings(); len(f) > 0 {
		b.WriteString(sectionName.Render("Forcings") + "\n  " + strings.Join(f, ", ") + "\n\n")
	}
	if order := net.ModuleOrder(); len(order) > 0 {
		b.WriteString(sectionName.Render("Module order") + "\n  " + strings.Join(order, " → ") + "\n\n")
	}

	reactions := newTable("reaction", "stoichiometry", "modifiers", "reversible")
	for _, rn := range net.Reactions() {
		info, _ := net.Reaction(rn)
		reactions.Row(info.Name, formatStoichiometry(net.Compounds(), info.Stoichiometry), strings.Join(info.Modifiers, ", "), strconv.FormatBool(info.Reversible))
	}
	b.WriteString(sectionName.Render("Reactions") + "\n" + reactions.String() + "\n")
	return b.String()
}

// formatStoichiometry writes substrates then products in compound order,
// e.g. "2 A + B -> C".
func formatStoichiometry(compounds []string, stoich map[string]float64) string {
	var lhs, rhs []string
	for _, c := range compounds {
		coeff, ok := stoich[c]
		if !ok {
			continue
		}
		term := c
		if a := math.Abs(coeff); a != 1 {
			term = formatValue(a) + " " + c
		}
		if coeff < 0 {
			lhs = append(lhs, term)
		} else {
			rhs = append(rhs, term)
		}
	}
	left, right := strings.Join(lhs, " + "), strings.Join(rhs, " + ")
	if left == "" {
		left = "∅"
	}
	if right == "" {
		right = "∅"
	}
	return left + " -> " + right
}

// RenderParameters lists resolved parameter values. Derived parameters are
// marked with an asterisk.
func RenderParameters(net *network.FrozenNetwork) string {
	params := net.Parameters()
	t := newTable("parameter", "value", "")
	for _, name := range net.ParameterNames() {
		mark := ""
		if net.IsDerived(name) {
			mark = derivedMark.Render("*")
		}
		t.Row(name, formatValue(params[name]), mark)
	}
	return t.String() + "\n" + Subtle.Render("* derived") + "\n"
}

// RenderState tabulates one state vector by compound name.
func RenderState(names []string, x sim.State) string {
	t := newTable("compound", "value")
	for i, name := range names {
		if i < len(x) {
			t.Row(name, formatValue(x[i]))
		}
	}
	return t.String()
}

// RenderMetrics tabulates named run metrics in sorted order.
func RenderMetrics(metrics map[string]float64) string {
	t := newTable("metric", "value")
	for _, k := range slices.Sorted(maps.Keys(metrics)) {
		t.Row(k, formatValue(metrics[k]))
	}
	return t.String()
}

func RenderRuns(runs []storage.RunMetadata) string {
	t := newTable("id", "kind", "model", "time", "duration", "integrator", "steps", "error")
	for _, run := range runs {
		t.Row(
			run.ID,
			run.Kind,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			formatValue(run.Duration),
			run.Integrator,
			strconv.Itoa(run.Stats.Steps),
			run.Error,
		)
	}
	return t.String()
}

// RenderScan shows the final value of the selected compounds per scanned
// parameter value.
func RenderScan(parameter string, names []string, results []sim.ScanResult) string {
	t := newTable(append(append([]string{parameter}, names...), "status")...)
	for _, r := range results {
		row := []string{formatValue(r.Value)}
		var final sim.State
		if r.Err == nil && r.Result != nil {
			final = r.Result.Final()
		}
		for i := range names {
			if i < len(final) {
				row = append(row, formatValue(final[i]))
			} else {
				row = append(row, "-")
			}
		}
		status := StatusRunning.Render("ok")
		if r.Err != nil {
			status = StatusFailed.Render(r.Err.Error())
		}
		t.Row(append(row, status)...)
	}
	return t.String()
}
