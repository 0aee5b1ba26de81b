// Package ingest reads revenue workbooks and normalizes them into a (timestamp, value) series
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// Table is a header plus rows of cell text
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Dataset is the result of reading a workbook: a preview of the raw first sheet and the
// normalized series
type Dataset struct {
	Sheet   string         `json:"sheet"`
	Raw     Table          `json:"raw"`
	RawRows int            `json:"raw_rows"`
	Points  []Point        `json:"points"`
	Stats   NormalizeStats `json:"stats"`
}

// Preview returns at most n normalized points
func (d *Dataset) Preview(n int) []Point {
	if n < 0 || n > len(d.Points) {
		n = len(d.Points)
	}
	return d.Points[:n]
}

// Reader reads the first sheet of a workbook
type Reader struct {
	opt    Options
	logger *slog.Logger
}

func NewReader(opt Options, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{opt: opt, logger: logger}
}

// Read parses the workbook in r. The raw preview uses the displayed cell text while
// normalization uses raw cell values so date cells arrive as serial numbers.
func (rd *Reader) Read(ctx context.Context, r io.Reader) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrUnreadableWorkbook, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			rd.logger.Warn("unable to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	sheet := sheets[0]

	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w, unable to read sheet %s, %w", ErrUnreadableWorkbook, sheet, err)
	}
	if len(display) == 0 {
		return nil, ErrNoHeader
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w, unable to read sheet %s, %w", ErrUnreadableWorkbook, sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header := display[0]
	ds := &Dataset{
		Sheet: sheet,
		Raw: Table{
			Header: header,
			Rows:   previewRows(display[1:], rd.opt.PreviewRows),
		},
	}
	for _, row := range display[1:] {
		if !isBlank(row) {
			ds.RawRows++
		}
	}

	// spreadsheet rows are 1-based and the header occupies the first
	points, stats, err := Normalize(header, raw[1:], 2, rd.opt)
	if err != nil {
		return nil, err
	}
	ds.Points = points
	ds.Stats = stats

	rd.logger.Info("normalized workbook",
		"sheet", sheet,
		"rows", stats.Rows,
		"valid", stats.ValidRows,
		"null", stats.NullRows,
		"invalid", stats.InvalidRows,
	)
	if stats.FirstInvalid != nil {
		rd.logger.Warn("dropped unparseable rows", "count", stats.InvalidRows, "first", stats.FirstInvalid.Error())
	}
	return ds, nil
}

func previewRows(rows [][]string, n int) [][]string {
	out := make([][]string, 0, min(n, len(rows)))
	for _, row := range rows {
		if len(out) >= n {
			break
		}
		if isBlank(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}
