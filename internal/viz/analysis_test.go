package viz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/rxnet/internal/analysis"
	"github.com/san-kum/rxnet/internal/automation"
)

func TestRenderAnalysis(t *testing.T) {
	rows := []CompoundSummary{
		{Name: "X", Min: 0, Max: 3, Final: 0.5, Oscillation: analysis.Oscillation{Period: 2.5, Share: 0.9}},
		{Name: "Y", Min: 0, Max: 1, Final: 1, Oscillation: analysis.Oscillation{Period: 40, Share: 0.01}},
	}
	out := RenderAnalysis(rows, true)
	assert.Contains(t, out, "2.5")
	assert.NotContains(t, out, "40")
	assert.Contains(t, out, "settled")
	assert.Contains(t, RenderAnalysis(rows, false), "still changing")
}

func TestRenderSensitivity(t *testing.T) {
	s := &analysis.Sensitivity{
		Parameters: []string{"k"},
		Base:       []float64{0.25, 2.75},
		Values:     [][]float64{{-0.375, 0.375}},
	}
	out := RenderSensitivity(s, []string{"X", "Y"})
	assert.Contains(t, out, "-0.375")
	assert.Contains(t, out, "2.75")
}

func TestRenderEnsemble(t *testing.T) {
	stats := []automation.CompoundStats{
		{Name: "X", Mean: 1, Std: 0.1, Min: 0.8, Max: 1.2},
		{Name: "Y", Mean: math.NaN()},
	}
	out := RenderEnsemble(stats, 1, 10)
	assert.Contains(t, out, "9/10 trials succeeded")
	assert.Contains(t, out, "1.2")
}
