package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/weather-vis/internal/observation"
)

// ErrEmptyPanel is returned when a panel has nothing to draw.
var ErrEmptyPanel = errors.New("panel has no data to render")

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// RenderOptions controls the size of a rendered panel.
type RenderOptions struct {
	Format Format
	Width  int
	Height int
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 320
	}
	return o
}

var highlightColor = drawing.Color{R: 255, G: 0, B: 0, A: 77}

// RenderPanel draws the figure's panel for metric m to w. Highlights are
// drawn before the city lines so they sit beneath them.
func RenderPanel(w io.Writer, fig Figure, m observation.Metric, opts RenderOptions) error {
	opts = opts.withDefaults()

	p, ok := fig.Panel(m)
	if !ok {
		return fmt.Errorf("render %s: %w", m, ErrEmptyPanel)
	}

	series := make([]gochart.Series, 0, len(p.Highlights)+len(p.Series))
	for _, h := range p.Highlights {
		series = append(series, gochart.TimeSeries{
			XValues: []time.Time{h.X0, h.X1},
			YValues: []float64{p.YMax, p.YMax},
			Style: gochart.Style{
				StrokeColor: highlightColor,
				StrokeWidth: 1,
				FillColor:   highlightColor,
			},
		})
	}

	lines := 0
	for _, s := range p.Series {
		xs, ys := finitePoints(s.X, s.Y)
		if len(xs) == 0 {
			continue
		}
		series = append(series, gochart.TimeSeries{
			Name:    s.City,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: colorFromHex(s.Color),
				StrokeWidth: 2,
			},
		})
		lines++
	}
	if lines == 0 {
		return fmt.Errorf("render %s: %w", m, ErrEmptyPanel)
	}

	xMin, xMax := padRange(timeValue(fig.XMin), timeValue(fig.XMax), float64(time.Hour))
	yMin, yMax := padRange(p.YMin, p.YMax, 1)

	graph := gochart.Chart{
		Title:  p.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: gochart.XAxis{
			Name:           p.XAxisTitle,
			ValueFormatter: timeFormatter,
			Range:          &gochart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: gochart.YAxis{
			Name:  p.YAxisTitle,
			Range: &gochart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}

	provider := gochart.SVG
	if opts.Format == FormatPNG {
		provider = gochart.PNG
	}
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("render %s: %w", m, err)
	}
	return nil
}

func finitePoints(xs []time.Time, ys []float64) ([]time.Time, []float64) {
	n := min(len(xs), len(ys))
	outX := make([]time.Time, 0, n)
	outY := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY
}

// padRange widens a degenerate range so the axis has a non-zero span.
func padRange(lo, hi, pad float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	return lo - pad, lo + pad
}

func timeValue(t time.Time) float64 {
	return float64(t.UnixNano())
}

func timeFormatter(v interface{}) string {
	switch typed := v.(type) {
	case time.Time:
		return typed.UTC().Format("Jan 02 15h")
	case float64:
		return time.Unix(0, int64(typed)).UTC().Format("Jan 02 15h")
	default:
		return ""
	}
}

func colorFromHex(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
