package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/udisondev/opdps/internal/model"
)

const (
	chartWidth  = 900
	chartHeight = 500

	marginLeft   = 80.0
	marginRight  = 30.0
	marginTop    = 50.0
	marginBottom = 70.0
)

// Series colors, cycled when there are more lines than entries.
var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
}

// Point is one (x, y) sample of a line chart.
type Point struct {
	X, Y float64
}

// Series is a named polyline.
type Series struct {
	Name   string
	Points []Point
}

// TimelineSeries turns each ranked entry's cumulative damage into a series.
func TimelineSeries(cmp model.ComparisonResult) []Series {
	out := make([]Series, 0, len(cmp.Entries))
	for _, e := range cmp.Entries {
		s := Series{Name: e.Result.Operator, Points: make([]Point, len(e.Result.Timeline))}
		for i, p := range e.Result.Timeline {
			s.Points[i] = Point{X: p.Time, Y: p.Damage}
		}
		out = append(out, s)
	}
	return out
}

// ComparisonBarChart draws one bar per entry using the comparison's sort metric.
func ComparisonBarChart(cmp model.ComparisonResult) ([]byte, error) {
	if len(cmp.Entries) == 0 {
		return nil, fmt.Errorf("nothing to chart")
	}

	dc := newCanvas(fmt.Sprintf("Ranking by %s", cmp.SortKey))
	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom

	maxV := 0.0
	for _, e := range cmp.Entries {
		maxV = math.Max(maxV, cmp.SortKey.Metric(e.Result))
	}
	top := niceCeil(maxV)
	drawYAxis(dc, 0, top)

	slot := plotW / float64(len(cmp.Entries))
	barW := slot * 0.6
	for i, e := range cmp.Entries {
		v := cmp.SortKey.Metric(e.Result)
		h := 0.0
		if top > 0 {
			h = v / top * plotH
		}
		x := marginLeft + slot*float64(i) + (slot-barW)/2
		y := marginTop + plotH - h

		dc.SetHexColor(palette[i%len(palette)])
		dc.DrawRectangle(x, y, barW, h)
		dc.Fill()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(formatValue(v), x+barW/2, y-6, 0.5, 0)
		dc.DrawStringAnchored(truncate(e.Result.Operator, int(slot/7)), x+barW/2, marginTop+plotH+16, 0.5, 0.5)
	}
	return encode(dc)
}

// LineChart draws each series against shared axes. Used for damage timelines
// and defense or resistance curves.
func LineChart(title, xLabel, yLabel string, series []Series) ([]byte, error) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	maxY := 0.0
	n := 0
	for _, s := range series {
		for _, p := range s.Points {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("nothing to chart")
	}
	if maxX == minX {
		maxX = minX + 1
	}

	dc := newCanvas(title)
	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom
	top := niceCeil(maxY)
	drawYAxis(dc, 0, top)

	px := func(x float64) float64 { return marginLeft + (x-minX)/(maxX-minX)*plotW }
	py := func(y float64) float64 {
		if top == 0 {
			return marginTop + plotH
		}
		return marginTop + plotH - y/top*plotH
	}

	// x ticks
	dc.SetColor(color.Black)
	for i := 0; i <= 5; i++ {
		x := minX + (maxX-minX)*float64(i)/5
		dc.DrawStringAnchored(formatValue(x), px(x), marginTop+plotH+16, 0.5, 0.5)
	}
	dc.DrawStringAnchored(xLabel, marginLeft+plotW/2, chartHeight-20, 0.5, 0.5)
	dc.DrawStringAnchored(yLabel, marginLeft, marginTop-12, 0, 0)

	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		dc.SetHexColor(palette[i%len(palette)])
		dc.SetLineWidth(2)
		dc.MoveTo(px(s.Points[0].X), py(s.Points[0].Y))
		for _, p := range s.Points[1:] {
			dc.LineTo(px(p.X), py(p.Y))
		}
		dc.Stroke()

		// legend
		ly := marginTop + 14*float64(i)
		lx := chartWidth - marginRight - 150
		dc.DrawRectangle(lx, ly-8, 10, 10)
		dc.Fill()
		dc.SetColor(color.Black)
		dc.DrawString(truncate(s.Name, 18), lx+16, ly)
	}
	return encode(dc)
}

func newCanvas(title string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(title, chartWidth/2, 20, 0.5, 0.5)
	return dc
}

func drawYAxis(dc *gg.Context, bottom, top float64) {
	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom

	dc.SetLineWidth(1)
	for i := 0; i <= 5; i++ {
		v := bottom + (top-bottom)*float64(i)/5
		y := marginTop + plotH - plotH*float64(i)/5
		dc.SetHexColor("#dddddd")
		dc.DrawLine(marginLeft, y, marginLeft+plotW, y)
		dc.Stroke()
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(formatValue(v), marginLeft-8, y, 1, 0.5)
	}
	dc.SetColor(color.Black)
	dc.DrawLine(marginLeft, marginTop, marginLeft, marginTop+plotH)
	dc.DrawLine(marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH)
	dc.Stroke()
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

func formatValue(v float64) string {
	switch {
	case math.Abs(v) >= 10000:
		return fmt.Sprintf("%.0fk", v/1000)
	case math.Abs(v) >= 100 || v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
