package httpapi

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-vis/internal/chart"
	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/observation"
	"github.com/i474232898/weather-vis/internal/refresh"
	"github.com/i474232898/weather-vis/internal/storage"
)

const msgNoData = "no data loaded yet"

// SnapshotSource serves the current observation table.
type SnapshotSource interface {
	Current() *refresh.Snapshot
	CheckReadiness(ctx context.Context) error
}

// TableHistory lists retained revisions of the stored table.
type TableHistory interface {
	History(ctx context.Context, from, to time.Time) ([]storage.Revision, error)
}

// Options configures the routes.
type Options struct {
	ServiceName string
	DefaultCity string
	Metrics     *observability.Metrics
	// History is optional; without it /api/v1/table/history answers 404.
	History TableHistory
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, src SnapshotSource, opts Options) {
	h := &handlers{src: src, opts: opts}

	app.Get("/", h.dashboard)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": opts.ServiceName,
		})
	})
	app.Get("/readyz", func(c *fiber.Ctx) error {
		if err := src.CheckReadiness(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	v1.Get("/cities", h.cities)
	v1.Get("/table", h.table)
	v1.Get("/table/history", h.history)
	v1.Get("/chart", h.figure)
	v1.Get("/chart/:metric", h.panel)
}

type handlers struct {
	src  SnapshotSource
	opts Options
}

func (h *handlers) snapshot() (*refresh.Snapshot, error) {
	snap := h.src.Current()
	if snap == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, msgNoData)
	}
	return snap, nil
}

func (h *handlers) cities(c *fiber.Ctx) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"cities":  snap.Table.Cities(),
		"default": h.opts.DefaultCity,
	})
}

func (h *handlers) table(c *fiber.Ctx) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"version":   snap.Version,
		"rows":      snap.Table.Len(),
		"cities":    snap.Table.Cities(),
		"loaded_at": snap.LoadedAt.UTC().Format(time.RFC3339),
	})
}

// history lists stored table revisions in [from, to]. Both bounds are
// optional RFC 3339 timestamps.
func (h *handlers) history(c *fiber.Ctx) error {
	if h.opts.History == nil {
		return fiber.NewError(fiber.StatusNotFound, storage.ErrNoHistory.Error())
	}
	from, err := queryTime(c, "from", time.Time{})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := queryTime(c, "to", time.Now())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if to.Before(from) {
		return fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}

	revs, err := h.opts.History.History(c.UserContext(), from, to)
	if errors.Is(err, storage.ErrNoHistory) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"revisions": revs})
}

func (h *handlers) figure(c *fiber.Ctx) error {
	q, err := parseChartQuery(c, h.opts.DefaultCity)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(chart.Assemble(snap.Table, q.Cities, q.thresholds()))
}

func (h *handlers) panel(c *fiber.Ctx) error {
	m, ok := observation.ParseMetric(c.Params("metric"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown metric "+c.Params("metric"))
	}
	q, err := parseChartQuery(c, h.opts.DefaultCity)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	snap, err := h.snapshot()
	if err != nil {
		return err
	}

	format := chart.Format(q.Format)
	fig := chart.Assemble(snap.Table, q.Cities, q.thresholds())

	var buf bytes.Buffer
	if err := chart.RenderPanel(&buf, fig, m, chart.RenderOptions{Format: format}); err != nil {
		if errors.Is(err, chart.ErrEmptyPanel) {
			return fiber.NewError(fiber.StatusNotFound, "no data for the selected cities")
		}
		return err
	}
	if h.opts.Metrics != nil {
		h.opts.Metrics.ChartRenders.WithLabelValues(m.String(), q.Format).Inc()
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}
