package observation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTable_SortsEachCityByDate(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := NewTable([]Row{
		{Date: base.Add(2 * time.Hour), City: "Oslo", Temperature: 3},
		{Date: base, City: "Rome", Temperature: 15},
		{Date: base, City: "Oslo", Temperature: 1},
		{Date: base.Add(time.Hour), City: "Oslo", Temperature: 2},
	})

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"Oslo", "Rome"}, tbl.Cities())
	assert.Equal(t, []float64{1, 2, 3}, tbl.Column("Oslo", Temperature))
	assert.Equal(t, []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}, tbl.Dates("Oslo"))
	assert.True(t, tbl.Has("Rome"))
	assert.False(t, tbl.Has("Madrid"))
	assert.Empty(t, tbl.Column("Madrid", Temperature))
}

func TestNewTable_CopiesInput(t *testing.T) {
	rows := []Row{{City: "Oslo", Temperature: 1}}
	tbl := NewTable(rows)
	rows[0].Temperature = 99

	assert.Equal(t, []float64{1}, tbl.Column("Oslo", Temperature))
}

func TestTable_RangeIgnoresNaNAndSpansAllCities(t *testing.T) {
	tbl := NewTable([]Row{
		{City: "A", Temperature: -4, WindSpeed: math.NaN()},
		{City: "B", Temperature: 12.5, WindSpeed: math.NaN()},
		{City: "C", Temperature: math.NaN(), WindSpeed: math.NaN()},
	})

	lo, hi, ok := tbl.Range(Temperature)
	assert.True(t, ok)
	assert.Equal(t, -4.0, lo)
	assert.Equal(t, 12.5, hi)

	_, _, ok = tbl.Range(WindSpeed)
	assert.False(t, ok)
}

func TestTable_NilIsEmpty(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Cities())
	assert.Nil(t, tbl.Rows())
	assert.False(t, tbl.Has("x"))
}

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics {
		got, ok := ParseMetric(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)

		got, ok = ParseMetric(m.Column())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseMetric("humidity")
	assert.False(t, ok)
}
