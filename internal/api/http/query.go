package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-vis/internal/chart"
)

var validate = validator.New()

// Slider defaults shown on first page load.
const (
	DefaultTemperatureThreshold = 2
	DefaultWindThreshold        = 10
	DefaultCloudThreshold       = 50
)

// chartQuery holds the filter state sent by the dashboard.
type chartQuery struct {
	Cities      []string `validate:"max=100,dive,required"`
	Temperature float64  `validate:"gte=1,lte=10"`
	Wind        float64  `validate:"gte=5,lte=50"`
	Cloud       float64  `validate:"gte=10,lte=100"`
	Format      string   `validate:"oneof=svg png"`
}

func (q chartQuery) thresholds() chart.Thresholds {
	return chart.Thresholds{Temperature: q.Temperature, WindSpeed: q.Wind, CloudCover: q.Cloud}
}

// parseChartQuery reads the filter query parameters. Each cities parameter
// names one city, so names may contain commas. An absent cities parameter
// selects defaultCity; an empty one selects nothing.
func parseChartQuery(c *fiber.Ctx, defaultCity string) (chartQuery, error) {
	q := chartQuery{
		Temperature: DefaultTemperatureThreshold,
		Wind:        DefaultWindThreshold,
		Cloud:       DefaultCloudThreshold,
		Format:      strings.ToLower(c.Query("format", "svg")),
	}

	if args := c.Context().QueryArgs(); args.Has("cities") {
		q.Cities = make([]string, 0, len(args.PeekMulti("cities")))
		for _, v := range args.PeekMulti("cities") {
			if name := strings.TrimSpace(string(v)); name != "" {
				q.Cities = append(q.Cities, name)
			}
		}
	} else if defaultCity != "" {
		q.Cities = []string{defaultCity}
	}

	var err error
	if q.Temperature, err = queryFloat(c, "temperature", q.Temperature); err != nil {
		return q, err
	}
	if q.Wind, err = queryFloat(c, "wind", q.Wind); err != nil {
		return q, err
	}
	if q.Cloud, err = queryFloat(c, "cloud", q.Cloud); err != nil {
		return q, err
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not a number", key, s)
	}
	return v, nil
}

func queryTime(c *fiber.Ctx, key string, def time.Time) (time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %q is not an RFC 3339 time", key, s)
	}
	return t, nil
}
