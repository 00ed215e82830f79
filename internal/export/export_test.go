package export

import (
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/rxnet/internal/viz"
)

// wellFormed parses the document token by token.
func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			t.Fatalf("invalid svg: %v", err)
		}
	}
}

func TestSeriesSVG(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	doc := SeriesSVG(times, []string{"X", "<Y>"}, [][]float64{{3, 2, 1, 0.5}, {0, 1, math.NaN(), 2.5}}, 400, 300)

	wellFormed(t, doc)
	if n := strings.Count(doc, "<path"); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	if !strings.Contains(doc, "&lt;Y&gt;") {
		t.Error("legend names should be escaped")
	}
	// the NaN sample restarts the second line
	if strings.Count(doc, " M") < 1 {
		t.Error("expected a broken line around the NaN sample")
	}

	if SeriesSVG([]float64{0}, nil, [][]float64{{1}}, 100, 100) != "" {
		t.Error("single sample should produce no document")
	}
}

func TestPhaseSVG(t *testing.T) {
	xs := []float64{0, 1, 0, -1}
	ys := []float64{1, 0, -1, 0}
	doc := PhaseSVG(xs, ys, "A", "B", 200, 200)
	wellFormed(t, doc)
	if !strings.Contains(doc, "B vs A") {
		t.Error("missing axis caption")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	doc := CanvasToSVG(c, 2, "#00ff00")
	wellFormed(t, doc)
	if n := strings.Count(doc, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if CanvasToSVG(nil, 1, "#fff") != "" {
		t.Error("nil canvas should produce no document")
	}
}
