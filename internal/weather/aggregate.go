package weather

import "github.com/i474232898/weather-vis/internal/observation"

// citySeries is one city's fetched forecast.
type citySeries struct {
	loc    Location
	series HourlySeries
}

// aggregateTable combines per-city series into one observation table.
// Cities appear in the order given.
func aggregateTable(results []citySeries) (*observation.Table, error) {
	var rows []observation.Row
	for _, r := range results {
		cityRows, err := r.series.Rows(r.loc.City)
		if err != nil {
			return nil, err
		}
		rows = append(rows, cityRows...)
	}
	return observation.NewTable(rows), nil
}
