package viz

import (
	"github.com/guptarohit/asciigraph"
)

type PlotOptions struct {
	Width     int
	Height    int
	Caption   string
	Precision uint
	Theme     Theme
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 12, Precision: 3, Theme: ThemeMinimal}
}

// Downsample picks n evenly spaced samples, keeping the first and last.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	if n == 1 {
		return []float64{values[len(values)-1]}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}

// PlotSeries draws several series on one set of axes with a legend. Series
// longer than the plot width are downsampled; empty series are skipped.
func PlotSeries(names []string, series [][]float64, opts PlotOptions) string {
	data := make([][]float64, 0, len(series))
	legends := make([]string, 0, len(series))
	for i, s := range series {
		if len(s) == 0 {
			continue
		}
		data = append(data, Downsample(s, opts.Width))
		if i < len(names) {
			legends = append(legends, names[i])
		} else {
			legends = append(legends, "")
		}
	}
	if len(data) == 0 {
		return ""
	}
	if len(opts.Theme.Series) == 0 {
		opts.Theme = ThemeMinimal
	}

	options := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(opts.Precision),
		asciigraph.SeriesColors(opts.Theme.seriesColors(len(data))...),
	}
	if opts.Caption != "" {
		options = append(options, asciigraph.Caption(opts.Caption))
	}
	if len(data) > 1 {
		options = append(options, asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(data, options...)
}

// Plot draws a single series.
func Plot(values []float64, opts PlotOptions) string {
	return PlotSeries(nil, [][]float64{values}, opts)
}
