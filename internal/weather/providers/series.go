package providers

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-vis/internal/weather"
)

// sample is one timestamped reading of every supported variable.
type sample struct {
	at     time.Time
	values map[string]float64
}

// gridSeries lays samples onto a regular grid starting at the first
// sample. Grid slots with no sample are NaN; samples off the grid are
// dropped.
func gridSeries(samples []sample, interval time.Duration, variables []string) (weather.HourlySeries, error) {
	if len(samples) == 0 {
		return weather.HourlySeries{}, fmt.Errorf("empty forecast")
	}
	start := samples[0].at.UTC()
	last := samples[len(samples)-1].at.UTC()
	n := int(last.Sub(start)/interval) + 1

	vars := make(map[string][]float64, len(variables))
	for _, name := range variables {
		col := make([]float64, n)
		for i := range col {
			col[i] = math.NaN()
		}
		vars[name] = col
	}

	for _, s := range samples {
		off := s.at.UTC().Sub(start)
		if off < 0 || off%interval != 0 {
			continue
		}
		i := int(off / interval)
		if i >= n {
			continue
		}
		for _, name := range variables {
			v, ok := s.values[name]
			if !ok {
				return weather.HourlySeries{}, fmt.Errorf("variable %s not supported", name)
			}
			vars[name][i] = v
		}
	}

	return weather.HourlySeries{
		Start:     start,
		End:       start.Add(time.Duration(n) * interval),
		Interval:  interval,
		Variables: vars,
	}, nil
}

// kmh converts metres per second to kilometres per hour.
func kmh(ms float64) float64 {
	return ms * 3.6
}
