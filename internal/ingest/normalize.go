package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	RowPolicyDrop  = "drop"
	RowPolicyAbort = "abort"
)

// nullTokens are cell values treated as missing, matching the default spreadsheet readers of
// common dataframe libraries
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {},
	"-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {},
	"NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// maxExcelSerial is the serial of 9999-12-31, the last date a spreadsheet can hold
const maxExcelSerial = 2958465

// digitLayouts parse all digit cells that are years or compact dates rather than serials
var digitLayouts = map[int]string{
	4: "2006",
	8: "20060102",
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-2006",
	"02-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// Point is a single normalized observation
type Point struct {
	Timestamp time.Time `json:"ds"`
	Value     float64   `json:"y"`
}

// Options controls the required column names and the handling of rows that fail to parse
type Options struct {
	DateColumn  string
	ValueColumn string
	// RowPolicy is either drop, which skips unparseable rows, or abort, which fails on the first one
	RowPolicy   string
	PreviewRows int
}

func NewDefaultOptions() Options {
	return Options{
		DateColumn:  "Date",
		ValueColumn: "Revenue",
		RowPolicy:   RowPolicyDrop,
		PreviewRows: 50,
	}
}

// NormalizeStats counts what happened to every data row
type NormalizeStats struct {
	Rows         int   `json:"rows"`
	NullRows     int   `json:"null_rows"`
	InvalidRows  int   `json:"invalid_rows"`
	ValidRows    int   `json:"valid_rows"`
	FirstInvalid error `json:"-"`
}

// ColumnIndexes returns the positions of the date and value columns in the header
func ColumnIndexes(header []string, opt Options) (int, int, error) {
	dateIdx, valueIdx := -1, -1
	for i, name := range header {
		switch name {
		case opt.DateColumn:
			if dateIdx < 0 {
				dateIdx = i
			}
		case opt.ValueColumn:
			if valueIdx < 0 {
				valueIdx = i
			}
		}
	}

	var missing []string
	if dateIdx < 0 {
		missing = append(missing, opt.DateColumn)
	}
	if valueIdx < 0 {
		missing = append(missing, opt.ValueColumn)
	}
	if len(missing) > 0 {
		return -1, -1, &MissingColumnError{Missing: missing, Available: append([]string(nil), header...)}
	}
	return dateIdx, valueIdx, nil
}

// Normalize reshapes raw data rows into points. Rows missing either cell are dropped. Rows with a
// cell that cannot be parsed are dropped or abort the normalization depending on the row policy.
// firstRow is the spreadsheet row number of rows[0].
func Normalize(header []string, rows [][]string, firstRow int, opt Options) ([]Point, NormalizeStats, error) {
	var stats NormalizeStats
	switch opt.RowPolicy {
	case "", RowPolicyDrop, RowPolicyAbort:
	default:
		return nil, stats, fmt.Errorf("%q, %w", opt.RowPolicy, ErrUnknownRowPolicy)
	}

	dateIdx, valueIdx, err := ColumnIndexes(header, opt)
	if err != nil {
		return nil, stats, err
	}

	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		dateCell := cell(row, dateIdx)
		valueCell := cell(row, valueIdx)
		if isNull(dateCell) || isNull(valueCell) {
			stats.NullRows++
			continue
		}

		rowNum := firstRow + i
		ts, err := ParseDate(dateCell)
		if err != nil {
			if err := stats.invalid(opt, &DateParseError{Row: rowNum, Value: dateCell}); err != nil {
				return nil, stats, err
			}
			continue
		}
		val, err := ParseValue(valueCell)
		if err != nil {
			if err := stats.invalid(opt, &ValueParseError{Row: rowNum, Value: valueCell, Err: err}); err != nil {
				return nil, stats, err
			}
			continue
		}

		points = append(points, Point{Timestamp: ts, Value: val})
		stats.ValidRows++
	}
	return points, stats, nil
}

func (s *NormalizeStats) invalid(opt Options, err error) error {
	if opt.RowPolicy == RowPolicyAbort {
		return err
	}
	s.InvalidRows++
	if s.FirstInvalid == nil {
		s.FirstInvalid = err
	}
	return nil
}

// ParseDate coerces a cell into a UTC timestamp. Four digit cells are years, eight digit cells
// are compact dates and other numeric cells are spreadsheet serial dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout, ok := digitLayouts[len(s)]; ok && isDigits(s) {
		ts, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
		}
		return ts.UTC(), nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial > maxExcelSerial || math.IsNaN(serial) {
			return time.Time{}, fmt.Errorf("serial date %q out of range", s)
		}
		return excelize.ExcelDateToTime(serial, false)
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// ParseValue parses a numeric cell, accepting thousands separators and a leading currency sign
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isNull(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
