package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/rxnet/internal/viz"
)

// Palette colors the series of a plot in order.
var Palette = []string{"#00d7ff", "#ff5f87", "#afff5f", "#ffd75f", "#af87ff", "#5fffd7", "#ff875f", "#d0d0d0"}

const (
	background = "#0a0a0a"
	axisColor  = "#555555"
	margin     = 40.0
)

// CanvasToSVG converts a Braille canvas to SVG, one dot per set sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)

	bits := [4][2]rune{{0x01, 0x08}, {0x02, 0x10}, {0x04, 0x20}, {0x40, 0x80}}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := r - 0x2800
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := range 4 {
				for dx := range 2 {
					if pattern&bits[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesSVG draws concentration time courses on shared axes with a legend.
// Non-finite samples break the line.
func SeriesSVG(times []float64, names []string, series [][]float64, width, height int) string {
	if len(times) < 2 || len(series) == 0 {
		return ""
	}

	var all []float64
	for _, s := range series {
		all = append(all, s...)
	}
	xr := newRange(times)
	yr := newRange(all)

	w, h := float64(width), float64(height)
	var sb strings.Builder
	header(&sb, w, h)
	axes(&sb, w, h, xr, yr)

	for i, s := range series {
		color := Palette[i%len(Palette)]
		path := pathData(times, s, xr, yr, w, h)
		if path != "" {
			fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"%s\"/>\n", color, path)
		}
		if i < len(names) {
			y := margin/2 + float64(i)*14
			fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"11\">%s</text>\n",
				w-margin-100, y, color, html.EscapeString(names[i]))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// PhaseSVG draws one compound against another.
func PhaseSVG(xs, ys []float64, xName, yName string, width, height int) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}
	xr := newRange(xs[:n])
	yr := newRange(ys[:n])

	w, h := float64(width), float64(height)
	var sb strings.Builder
	header(&sb, w, h)
	axes(&sb, w, h, xr, yr)
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"%s\"/>\n",
		Palette[0], pathData(xs[:n], ys[:n], xr, yr, w, h))
	fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"11\">%s vs %s</text>\n",
		margin, margin/2, Palette[0], html.EscapeString(yName), html.EscapeString(xName))
	sb.WriteString("</svg>\n")
	return sb.String()
}

type span struct{ lo, hi float64 }

// newRange spans the finite values with 5% padding.
func newRange(vs []float64) span {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo > hi {
		return span{0, 1}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = max(math.Abs(lo)*0.05, 0.5)
	}
	return span{lo - pad, hi + pad}
}

func (s span) scale(v, size float64) float64 {
	return (v - s.lo) / (s.hi - s.lo) * size
}

func pathData(xs, ys []float64, xr, yr span, w, h float64) string {
	var sb strings.Builder
	pen := false
	for i := range min(len(xs), len(ys)) {
		x, y := xs[i], ys[i]
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			pen = false
			continue
		}
		px := margin + xr.scale(x, w-2*margin)
		py := h - margin - yr.scale(y, h-2*margin)
		cmd := "L"
		if !pen {
			cmd = "M"
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, px, py)
		pen = true
	}
	return sb.String()
}

func header(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}

func axes(sb *strings.Builder, w, h float64, xr, yr span) {
	fmt.Fprintf(sb, "<g stroke=\"%s\" stroke-width=\"1\"><line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/><line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/></g>\n",
		axisColor, margin, h-margin, w-margin, h-margin, margin, margin, margin, h-margin)
	label := func(x, y float64, anchor string, v float64) {
		fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"10\" text-anchor=\"%s\">%.3g</text>\n",
			x, y, axisColor, anchor, v)
	}
	label(margin, h-margin+14, "start", xr.lo)
	label(w-margin, h-margin+14, "end", xr.hi)
	label(margin-4, h-margin, "end", yr.lo)
	label(margin-4, margin+4, "end", yr.hi)
}
