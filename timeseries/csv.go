package timeseries

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// LoadOptions holds options for loading a two-column table.
type LoadOptions struct {
	DateColumn  string // Column name for month labels (default: first date-like header)
	ValueColumn string // Column name for values (default: "value")
	DateFormat  string // Preferred date layout (default: "2006-01")
	HasHeader   bool   // Whether the table has a header row (default: true)
	Delimiter   rune   // CSV field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip at start
	Sheet       string // XLSX sheet name (default: first sheet)
}

// DefaultLoadOptions returns default options for table loading.
func DefaultLoadOptions() *LoadOptions {
	return &LoadOptions{
		ValueColumn: "value",
		DateFormat:  MonthLayout,
		HasHeader:   true,
		Delimiter:   ',',
	}
}

// dateLayouts are tried after the preferred layout.
var dateLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01",
	"01/2006",
	"01/02/2006",
	"Jan 2006",
	"Jan-2006",
	"2006M01",
}

// LoadCSV loads a monthly series from a CSV file.
func LoadCSV(filename string, opts *LoadOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultLoadOptions()
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindData, "load", err, "open %s", filename)
	}
	defer file.Close()

	s, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, err
	}
	s.Name = seriesName(filename, opts)
	return s, nil
}

// LoadCSVFromReader loads a monthly series from an io.Reader.
func LoadCSVFromReader(r io.Reader, opts *LoadOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultLoadOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, tserr.Wrap(tserr.KindData, "load", err, "read csv")
	}
	return fromRows(rows, opts)
}

// fromRows turns raw table rows into a series. CSV and XLSX share it.
func fromRows(rows [][]string, opts *LoadOptions) (*Series, error) {
	if opts.SkipRows > len(rows) {
		return nil, tserr.New(tserr.KindData, "load", "cannot skip %d of %d rows", opts.SkipRows, len(rows))
	}
	rows = rows[opts.SkipRows:]

	valueIdx, dateIdx := 1, 0
	if opts.HasHeader {
		if len(rows) == 0 {
			return nil, tserr.New(tserr.KindData, "load", "missing header row")
		}
		valueIdx, dateIdx = findColumns(rows[0], opts)
		rows = rows[1:]
	}

	var values []float64
	var timestamps []time.Time

	for line, record := range rows {
		if valueIdx >= len(record) {
			continue
		}
		valStr := cleanCell(record[valueIdx])
		if valStr == "" {
			continue
		}
		if isMissing(valStr) {
			return nil, tserr.New(tserr.KindData, "load", "missing value on data row %d", line+1)
		}
		val, err := strconv.ParseFloat(strings.ReplaceAll(valStr, ",", ""), 64)
		if err != nil {
			return nil, tserr.Wrap(tserr.KindData, "load", err, "data row %d", line+1)
		}
		values = append(values, val)

		if dateIdx >= 0 && dateIdx < len(record) {
			ts, err := parseDate(cleanCell(record[dateIdx]), opts.DateFormat)
			if err != nil {
				return nil, tserr.Wrap(tserr.KindData, "load", err, "data row %d", line+1)
			}
			timestamps = append(timestamps, ts)
		}
	}

	if len(values) == 0 {
		return nil, tserr.New(tserr.KindData, "load", "no valid data found")
	}

	if len(timestamps) == len(values) {
		return &Series{
			Timestamps: timestamps,
			Values:     values,
		}, nil
	}

	return New(values), nil
}

func findColumns(header []string, opts *LoadOptions) (valueIdx, dateIdx int) {
	valueIdx, dateIdx = -1, -1
	for i, h := range header {
		h = cleanCell(h)
		switch {
		case opts.ValueColumn != "" && strings.EqualFold(h, opts.ValueColumn):
			valueIdx = i
		case opts.DateColumn != "" && strings.EqualFold(h, opts.DateColumn):
			dateIdx = i
		case opts.DateColumn == "" && dateIdx == -1 && isDateHeader(h):
			dateIdx = i
		}
	}
	if valueIdx == -1 {
		// Default to last column if not specified
		valueIdx = len(header) - 1
	}
	if dateIdx == valueIdx {
		dateIdx = -1
	}
	return valueIdx, dateIdx
}

func isDateHeader(h string) bool {
	switch strings.ToLower(h) {
	case "ds", "date", "month", "time", "period", "observation_date":
		return true
	}
	return false
}

func parseDate(s, preferred string) (time.Time, error) {
	var err error
	var ts time.Time
	for _, layout := range append([]string{preferred}, dateLayouts...) {
		if layout == "" {
			continue
		}
		ts, err = time.Parse(layout, s)
		if err == nil {
			return MonthStart(ts), nil
		}
	}
	return time.Time{}, err
}

func cleanCell(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}

func isMissing(s string) bool {
	switch s {
	case "NA", "NaN", "null", ".", "#N/A":
		return true
	}
	return false
}

func seriesName(filename string, opts *LoadOptions) string {
	if opts.ValueColumn != "" {
		return opts.ValueColumn
	}
	return filename
}
