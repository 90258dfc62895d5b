package observation

import (
	"math"
	"sort"
	"time"
)

// Metric identifies one of the hourly weather variables tracked per city.
type Metric int

const (
	Temperature Metric = iota
	WindSpeed
	CloudCover
)

// Metrics lists all metrics in panel order.
var Metrics = []Metric{Temperature, WindSpeed, CloudCover}

// Column returns the storage column name of the metric.
func (m Metric) Column() string {
	switch m {
	case Temperature:
		return "temperature_2m"
	case WindSpeed:
		return "wind_speed_80m"
	case CloudCover:
		return "cloud_cover"
	default:
		return ""
	}
}

// Unit returns the display unit of the metric.
func (m Metric) Unit() string {
	switch m {
	case Temperature:
		return "°C"
	case WindSpeed:
		return "km/h"
	case CloudCover:
		return "%"
	default:
		return ""
	}
}

func (m Metric) String() string {
	switch m {
	case Temperature:
		return "temperature"
	case WindSpeed:
		return "wind"
	case CloudCover:
		return "cloud"
	default:
		return "unknown"
	}
}

// ParseMetric maps a short metric name ("temperature", "wind", "cloud") or a
// column name back to a Metric.
func ParseMetric(s string) (Metric, bool) {
	for _, m := range Metrics {
		if s == m.String() || s == m.Column() {
			return m, true
		}
	}
	return 0, false
}

// Row is one hourly sample for a single city. Missing values are NaN.
type Row struct {
	Date        time.Time `json:"date"` // always UTC
	City        string    `json:"city"`
	Temperature float64   `json:"temperature_2m"`
	WindSpeed   float64   `json:"wind_speed_80m"`
	CloudCover  float64   `json:"cloud_cover"`
}

// Value returns the row's value for metric m.
func (r Row) Value(m Metric) float64 {
	switch m {
	case Temperature:
		return r.Temperature
	case WindSpeed:
		return r.WindSpeed
	case CloudCover:
		return r.CloudCover
	default:
		return math.NaN()
	}
}

// Table is an immutable set of observation rows. Rows of each city are kept
// sorted by date ascending. A Table must not be modified after NewTable
// returns; replace it wholesale instead.
type Table struct {
	rows   []Row
	cities []string         // first-seen order
	byCity map[string][]int // row indices, date ascending
}

// NewTable copies rows into a new Table.
func NewTable(rows []Row) *Table {
	t := &Table{
		rows:   make([]Row, len(rows)),
		byCity: make(map[string][]int),
	}
	copy(t.rows, rows)

	for i, r := range t.rows {
		if _, ok := t.byCity[r.City]; !ok {
			t.cities = append(t.cities, r.City)
		}
		t.byCity[r.City] = append(t.byCity[r.City], i)
	}
	for _, idx := range t.byCity {
		sort.SliceStable(idx, func(a, b int) bool {
			return t.rows[idx[a]].Date.Before(t.rows[idx[b]].Date)
		})
	}
	return t
}

// Len returns the number of rows. A nil Table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of all rows in city-grouped, date-ascending order.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, 0, len(t.rows))
	for _, city := range t.cities {
		for _, i := range t.byCity[city] {
			out = append(out, t.rows[i])
		}
	}
	return out
}

// Cities returns the distinct city names sorted alphabetically.
func (t *Table) Cities() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.cities))
	copy(out, t.cities)
	sort.Strings(out)
	return out
}

// Has reports whether the table holds rows for city.
func (t *Table) Has(city string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byCity[city]
	return ok
}

// Dates returns the timestamps of city's rows, ascending.
func (t *Table) Dates(city string) []time.Time {
	if t == nil {
		return nil
	}
	idx := t.byCity[city]
	out := make([]time.Time, len(idx))
	for i, j := range idx {
		out[i] = t.rows[j].Date
	}
	return out
}

// Column returns city's values for metric m, in date order.
func (t *Table) Column(city string, m Metric) []float64 {
	if t == nil {
		return nil
	}
	idx := t.byCity[city]
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = t.rows[j].Value(m)
	}
	return out
}

// Range returns the minimum and maximum of metric m across every city in
// the table, ignoring NaN. ok is false when no finite value exists.
func (t *Table) Range(m Metric) (lo, hi float64, ok bool) {
	if t == nil {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range t.rows {
		v := r.Value(m)
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}
