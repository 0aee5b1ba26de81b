// Command revforecast forecasts revenue from an uploaded workbook and asks a hosted language model
// to comment on the forecast
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/go-revenue-forecaster/internal/report"
	"github.com/fatih/color"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err, !color.NoColor)
		stop()
		os.Exit(1)
	}
}

// reportError is the single place a failed command is printed. Commands only return errors.
func reportError(w io.Writer, err error, useColors bool) {
	report.NewPrinter(io.Discard, w, useColors, 0).Error("%s", err.Error())
}
