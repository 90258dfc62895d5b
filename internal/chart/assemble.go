package chart

import (
	"github.com/i474232898/weather-vis/internal/gradient"
	"github.com/i474232898/weather-vis/internal/observation"
)

// Assemble builds the figure for the selected cities. Colours follow the
// order in which cities first appear in the selection; names that are
// repeated or absent from the table are skipped. Highlight rectangles span
// the metric's min/max across the whole table, not only the selection.
func Assemble(table *observation.Table, cities []string, th Thresholds) Figure {
	fig := Figure{
		Title:  Title,
		Legend: Legend(table, cities),
		Panels: make([]Panel, 0, len(observation.Metrics)),
	}

	for i, m := range observation.Metrics {
		lo, hi, _ := table.Range(m)
		p := Panel{
			Metric:     m.String(),
			Title:      PanelTitle(m),
			YAxisTitle: PanelTitle(m),
			YMin:       lo,
			YMax:       hi,
			Threshold:  th.For(m),
			Series:     make([]Series, 0, len(fig.Legend)),
			Highlights: make([]Highlight, 0),
		}
		if i == len(observation.Metrics)-1 {
			p.XAxisTitle = "Date"
		}

		for _, le := range fig.Legend {
			dates := table.Dates(le.City)
			values := table.Column(le.City, m)
			p.Series = append(p.Series, Series{City: le.City, Color: le.Color, X: dates, Y: values})

			for _, iv := range gradient.Detect(values, p.Threshold) {
				p.Highlights = append(p.Highlights, Highlight{
					City:     le.City,
					Interval: iv,
					X0:       dates[iv.Start],
					X1:       dates[iv.End],
					Y0:       lo,
					Y1:       hi,
					Fill:     HighlightFill,
				})
			}
		}
		fig.Panels = append(fig.Panels, p)
	}

	for _, le := range fig.Legend {
		dates := table.Dates(le.City)
		if len(dates) == 0 {
			continue
		}
		if fig.XMin.IsZero() || dates[0].Before(fig.XMin) {
			fig.XMin = dates[0]
		}
		if last := dates[len(dates)-1]; last.After(fig.XMax) {
			fig.XMax = last
		}
	}
	return fig
}

// Legend assigns palette colours to the selected cities present in table,
// using the same rules as Assemble.
func Legend(table *observation.Table, cities []string) []LegendEntry {
	selected := selectCities(table, cities)
	legend := make([]LegendEntry, 0, len(selected))
	for i, city := range selected {
		legend = append(legend, LegendEntry{City: city, Color: Palette[i%len(Palette)]})
	}
	return legend
}

func selectCities(table *observation.Table, cities []string) []string {
	seen := make(map[string]struct{}, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		if _, dup := seen[c]; dup || !table.Has(c) {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
