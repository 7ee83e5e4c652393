package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for loading wide CSV tables.
type CSVOptions struct {
	DateColumn string   // Column holding the observation date (default: "dt_pk")
	DateFormat string   // Preferred date layout (default: "2006-01-02")
	Delimiter  rune     // Field delimiter (default: ',')
	SkipRows   int      // Number of rows to skip before the header
	Columns    []string // Value columns to keep; empty keeps all
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn: "dt_pk",
		DateFormat: time.DateOnly,
		Delimiter:  ',',
	}
}

var fallbackDateFormats = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006/01/02",
	"01/02/2006",
	"2006-01",
	"Jan 2006",
	"2006",
}

// LoadFrameCSV loads a wide CSV file: one date column and one numeric
// column per series or covariate.
func LoadFrameCSV(filename string, opts *CSVOptions) (*Frame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFrameFromReader(file, opts)
}

// LoadFrameFromReader loads a wide CSV table from an io.Reader. Empty and
// NA cells become NaN; any other non-numeric cell is an error.
func LoadFrameFromReader(r io.Reader, opts *CSVOptions) (*Frame, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateColumn := opts.DateColumn
	if dateColumn == "" {
		dateColumn = "dt_pk"
	}
	keep := make(map[string]bool, len(opts.Columns))
	for _, c := range opts.Columns {
		keep[c] = true
	}

	dateIdx := -1
	var valueIdx []int
	var names []string
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		switch {
		case h == dateColumn:
			dateIdx = i
		case len(keep) == 0 || keep[h]:
			valueIdx = append(valueIdx, i)
			names = append(names, h)
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("date column %q not found", dateColumn)
	}

	var timestamps []time.Time
	columns := make([][]float64, len(names))

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateIdx >= len(record) {
			continue
		}

		ts, err := parseDate(strings.TrimSpace(strings.Trim(record[dateIdx], "\"")), opts.DateFormat)
		if err != nil {
			return nil, err
		}
		timestamps = append(timestamps, ts)

		for j, idx := range valueIdx {
			v := math.NaN()
			if idx < len(record) {
				if v, err = parseCell(record[idx]); err != nil {
					line, _ := reader.FieldPos(idx)
					return nil, fmt.Errorf("line %d column %q: %w", line, names[j], err)
				}
			}
			columns[j] = append(columns[j], v)
		}
	}

	if len(timestamps) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	frame := NewFrame(timestamps)
	for j, name := range names {
		if err := frame.AddColumn(name, columns[j]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func parseCell(raw string) (float64, error) {
	s := strings.TrimSpace(strings.Trim(raw, "\""))
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable value %q", s)
	}
	return v, nil
}

func parseDate(s, preferred string) (time.Time, error) {
	if preferred != "" {
		if ts, err := time.Parse(preferred, s); err == nil {
			return ts, nil
		}
	}
	for _, layout := range fallbackDateFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}
