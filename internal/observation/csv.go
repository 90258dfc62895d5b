package observation

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the timestamp layout written to the date column.
const DateLayout = "2006-01-02 15:04:05"

const dateColumn, cityColumn = "date", "city"

// Header is the column order written by EncodeCSV.
var Header = []string{dateColumn, cityColumn, Temperature.Column(), CloudCover.Column(), WindSpeed.Column()}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ErrMissingColumn is returned by DecodeCSV when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// EncodeCSV writes the table as comma-separated rows with a header line.
// NaN values are written as empty cells.
func EncodeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range t.Rows() {
		rec := []string{
			r.Date.UTC().Format(DateLayout),
			r.City,
			formatValue(r.Temperature),
			formatValue(r.CloudCover),
			formatValue(r.WindSpeed),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCSV is EncodeCSV into a byte slice.
func MarshalCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses a table written by EncodeCSV or by an equivalent
// dataframe export. Columns are located by header name and unknown columns
// are ignored. Values are rounded to one decimal place.
func DecodeCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode csv: empty input")
		}
		return nil, fmt.Errorf("decode csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("decode csv: %w %q", ErrMissingColumn, name)
		}
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("decode csv line %d: %w", line, err)
		}
		row, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("decode csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return NewTable(rows), nil
}

// UnmarshalCSV is DecodeCSV over a byte slice.
func UnmarshalCSV(data []byte) (*Table, error) {
	return DecodeCSV(bytes.NewReader(data))
}

func parseRecord(rec []string, cols map[string]int) (Row, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := parseDate(field(dateColumn))
	if err != nil {
		return Row{}, err
	}
	city := field(cityColumn)
	if city == "" {
		return Row{}, errors.New("empty city")
	}

	row := Row{Date: date, City: city}
	for _, m := range Metrics {
		v, err := parseValue(field(m.Column()))
		if err != nil {
			return Row{}, fmt.Errorf("%s: %w", m.Column(), err)
		}
		switch m {
		case Temperature:
			row.Temperature = v
		case WindSpeed:
			row.WindSpeed = v
		case CloudCover:
			row.CloudCover = v
		}
	}
	return row, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseValue(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return Round1(v), nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
