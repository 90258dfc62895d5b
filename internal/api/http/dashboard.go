package httpapi

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-vis/internal/chart"
)

//go:embed templates/dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

type cityOption struct {
	Name    string
	Checked bool
}

type slider struct {
	Name  string
	Label string
	Min   int
	Max   int
	Step  int
	Value int
}

type dashboardData struct {
	Title    string
	Loaded   bool
	Message  string
	LoadedAt string
	Cities   []cityOption
	Sliders  []slider
	Legend   []chart.LegendEntry
}

var sliders = []slider{
	{Name: "temperature", Label: "Temperature threshold (°C)", Min: 1, Max: 10, Step: 1, Value: DefaultTemperatureThreshold},
	{Name: "wind", Label: "Wind speed threshold (km/h)", Min: 5, Max: 50, Step: 5, Value: DefaultWindThreshold},
	{Name: "cloud", Label: "Cloud cover threshold (%)", Min: 10, Max: 100, Step: 10, Value: DefaultCloudThreshold},
}

// dashboard renders the page shell. Panels are loaded by the page script
// from the chart endpoints and reloaded on every filter change.
func (h *handlers) dashboard(c *fiber.Ctx) error {
	data := dashboardData{Title: chart.Title, Sliders: sliders}
	status := fiber.StatusOK

	if snap := h.src.Current(); snap == nil {
		data.Message = msgNoData
		status = fiber.StatusServiceUnavailable
	} else {
		data.Loaded = true
		data.LoadedAt = snap.LoadedAt.UTC().Format(time.RFC1123)
		for _, city := range snap.Table.Cities() {
			data.Cities = append(data.Cities, cityOption{Name: city, Checked: city == h.opts.DefaultCity})
		}
		data.Legend = chart.Legend(snap.Table, []string{h.opts.DefaultCity})
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
