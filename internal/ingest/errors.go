package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnreadableWorkbook = errors.New("unable to read workbook")
	ErrNoSheets           = errors.New("workbook has no sheets")
	ErrNoHeader           = errors.New("sheet has no header row")
	ErrUnknownRowPolicy   = errors.New("unknown row policy")
)

// MissingColumnError reports required columns absent from the header row. Column names are case
// sensitive.
type MissingColumnError struct {
	Missing   []string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s) %s, found [%s]",
		quoteAll(e.Missing), strings.Join(e.Available, ", "))
}

// DateParseError reports a date cell that could not be coerced to a timestamp. Row is the 1-based
// spreadsheet row.
type DateParseError struct {
	Row   int
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("row %d: unable to parse date %q", e.Row, e.Value)
}

// ValueParseError reports a revenue cell that is not numeric. Row is the 1-based spreadsheet row.
type ValueParseError struct {
	Row   int
	Value string
	Err   error
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("row %d: unable to parse value %q", e.Row, e.Value)
}

func (e *ValueParseError) Unwrap() error {
	return e.Err
}

func quoteAll(s []string) string {
	q := make([]string, 0, len(s))
	for _, v := range s {
		q = append(q, fmt.Sprintf("%q", v))
	}
	return strings.Join(q, ", ")
}
