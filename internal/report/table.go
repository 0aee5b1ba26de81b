// Package report renders forecast runs as terminal tables
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignRight},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
				Alignment:  tw.CellAlignment{Global: tw.AlignCenter},
			},
		}),
	)
}

func render(w io.Writer, header []string, rows [][]string) error {
	table := newTable(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("unable to add table rows, %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("unable to render table, %w", err)
	}
	return nil
}

// RawTable writes the uploaded sheet as read. Short rows are padded to the header width.
func RawTable(w io.Writer, raw ingest.Table) error {
	rows := make([][]string, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		padded := make([]string, len(raw.Header))
		copy(padded, row)
		rows = append(rows, padded)
	}
	return render(w, raw.Header, rows)
}

// PointsTable writes the normalized series
func PointsTable(w io.Writer, points []ingest.Point) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{p.Timestamp.Format(dateLayout), formatFloat(p.Value)})
	}
	return render(w, []string{"ds", "y"}, rows)
}

// ForecastTable writes each forecast point with its interval
func ForecastTable(w io.Writer, points []pipeline.ForecastPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Timestamp.Format(dateLayout),
			formatFloat(p.Estimate),
			formatFloat(p.Lower),
			formatFloat(p.Upper),
		})
	}
	return render(w, []string{"ds", "yhat", "yhat_lower", "yhat_upper"}, rows)
}

// ScoresTable writes the in-sample fit scores
func ScoresTable(w io.Writer, scores pipeline.FitScores) error {
	return render(w, []string{"MSE", "MAPE", "R2"}, [][]string{{
		formatFloat(scores.MSE),
		strconv.FormatFloat(scores.MAPE, 'f', 4, 64),
		strconv.FormatFloat(scores.R2, 'f', 4, 64),
	}})
}

// StatsTable writes how many rows survived normalization
func StatsTable(w io.Writer, stats ingest.NormalizeStats) error {
	return render(w, []string{"Rows", "Valid", "Null", "Invalid"}, [][]string{{
		strconv.Itoa(stats.Rows),
		strconv.Itoa(stats.ValidRows),
		strconv.Itoa(stats.NullRows),
		strconv.Itoa(stats.InvalidRows),
	}})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
