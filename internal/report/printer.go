package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/fatih/color"
)

// Printer writes run reports to a terminal
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool

	// previewRows bounds the raw and normalized previews. 0 prints every row.
	previewRows int
}

func NewPrinter(out, errOut io.Writer, useColors bool, previewRows int) *Printer {
	return &Printer{
		out:         out,
		err:         errOut,
		useColors:   useColors,
		previewRows: previewRows,
	}
}

// Header prints a section header
func (p *Printer) Header(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		color.New(color.FgWhite).Fprintf(p.out, "%s\n", strings.Repeat("─", len(title)))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func (p *Printer) Info(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Report prints every section of a run: raw preview, normalized preview, fit scores, the forecast
// tail and the commentary
func (p *Printer) Report(rep *pipeline.Report) error {
	ds := rep.Dataset

	p.Header(fmt.Sprintf("Uploaded Data (%s)", ds.Sheet))
	if err := RawTable(p.out, ds.Raw); err != nil {
		return err
	}

	p.Header("Normalized Data")
	if err := StatsTable(p.out, ds.Stats); err != nil {
		return err
	}
	if err := PointsTable(p.out, ds.Preview(p.previewLimit(len(ds.Points)))); err != nil {
		return err
	}
	if ds.Stats.InvalidRows > 0 {
		p.Warning("dropped %d unparseable row(s)", ds.Stats.InvalidRows)
	}

	p.Header("Fit")
	if err := ScoresTable(p.out, rep.Forecast.Scores); err != nil {
		return err
	}

	p.Header(fmt.Sprintf("Forecast (%d days)", rep.Days))
	if err := ForecastTable(p.out, rep.Tail); err != nil {
		return err
	}

	p.Header("Commentary")
	if rep.CommentarySkipped {
		p.Info("skipped")
		return nil
	}
	_, err := fmt.Fprintln(p.out, rep.Commentary)
	return err
}

func (p *Printer) previewLimit(n int) int {
	if p.previewRows <= 0 {
		return n
	}
	return min(n, p.previewRows)
}
