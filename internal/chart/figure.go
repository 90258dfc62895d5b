// Package chart turns an observation table into a three-panel figure with
// highlighted step changes, and renders its panels as images.
package chart

import (
	"math"
	"strconv"
	"time"

	"github.com/i474232898/weather-vis/internal/gradient"
	"github.com/i474232898/weather-vis/internal/observation"
)

// Title is the figure title shown above the panels.
const Title = "Weather Metrics for Cities"

// HighlightFill is the fill colour of highlighted ranges.
const HighlightFill = "rgba(255, 0, 0, 0.3)"

// Palette is the fixed line colour cycle (Plotly qualitative).
var Palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Thresholds holds the minimum absolute step change to highlight, per metric.
type Thresholds struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"wind"`
	CloudCover  float64 `json:"cloud"`
}

// For returns the threshold that applies to metric m.
func (t Thresholds) For(m observation.Metric) float64 {
	switch m {
	case observation.Temperature:
		return t.Temperature
	case observation.WindSpeed:
		return t.WindSpeed
	default:
		return t.CloudCover
	}
}

// Figure describes a complete chart: one panel per metric sharing an x-axis.
type Figure struct {
	Title  string        `json:"title"`
	XMin   time.Time     `json:"x_min"`
	XMax   time.Time     `json:"x_max"`
	Legend []LegendEntry `json:"legend"`
	Panels []Panel       `json:"panels"`
}

// LegendEntry maps a city to its line colour.
type LegendEntry struct {
	City  string `json:"city"`
	Color string `json:"color"`
}

// Panel is one metric plotted for every selected city.
type Panel struct {
	Metric     string      `json:"metric"`
	Title      string      `json:"title"`
	XAxisTitle string      `json:"x_axis_title,omitempty"`
	YAxisTitle string      `json:"y_axis_title"`
	YMin       float64     `json:"y_min"`
	YMax       float64     `json:"y_max"`
	Threshold  float64     `json:"threshold"`
	Series     []Series    `json:"series"`
	Highlights []Highlight `json:"highlights"`
}

// Series is one city's line in a panel.
type Series struct {
	City  string      `json:"city"`
	Color string      `json:"color"`
	X     []time.Time `json:"x"`
	Y     Values      `json:"y"`
}

// Values is a sample column. Missing samples (NaN) encode as JSON null.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*6)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'f', -1, 64)
	}
	return append(buf, ']'), nil
}

// Highlight is a shaded rectangle spanning the panel's full y-range over
// the time range of a detected interval.
type Highlight struct {
	City     string            `json:"city"`
	Interval gradient.Interval `json:"interval"`
	X0       time.Time         `json:"x0"`
	X1       time.Time         `json:"x1"`
	Y0       float64           `json:"y0"`
	Y1       float64           `json:"y1"`
	Fill     string            `json:"fill"`
}

// PanelTitle returns the heading used for metric m, e.g. "Wind Speed (km/h)".
func PanelTitle(m observation.Metric) string {
	switch m {
	case observation.Temperature:
		return "Temperature (" + m.Unit() + ")"
	case observation.WindSpeed:
		return "Wind Speed (" + m.Unit() + ")"
	default:
		return "Cloud Cover (" + m.Unit() + ")"
	}
}

// Panel returns the panel for metric m, if present.
func (f Figure) Panel(m observation.Metric) (Panel, bool) {
	for _, p := range f.Panels {
		if p.Metric == m.String() {
			return p, true
		}
	}
	return Panel{}, false
}
