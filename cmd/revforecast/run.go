package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aouyang1/go-revenue-forecaster/internal/chart"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/aouyang1/go-revenue-forecaster/internal/report"
	"github.com/aouyang1/go-revenue-forecaster/internal/server"
	"github.com/fatih/color"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

const (
	profileCPU = "cpu"
	profileMem = "mem"

	forecastPNG   = "forecast.png"
	componentsPNG = "components.png"
)

var ErrUnknownProfile = errors.New("unknown profile mode")

type runFlags struct {
	days         int
	months       int
	plotDir      string
	htmlFile     string
	noCommentary bool
	noColor      bool
	profile      string
	profileDir   string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Forecast a workbook and print the results",
		Long: `Forecast a workbook and print the uploaded data, the normalized series, the fit scores,
the forecast horizon and the commentary.

The horizon is set with --days or --months (30 days each) and defaults to
forecast.default_days.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(!f.noCommentary); err != nil {
				return err
			}
			days, err := f.horizon(cmd, a.cfg.Forecast.DefaultDays)
			if err != nil {
				return err
			}

			if f.profile != "" {
				stop, err := startProfile(f.profile, f.profileDir)
				if err != nil {
					return err
				}
				defer stop()
			}

			p, err := a.buildPipeline(nil, !f.noCommentary)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("unable to open workbook, %w", err)
			}
			defer file.Close()

			rep, err := p.Run(cmd.Context(), file, days)
			if err != nil {
				return err
			}
			printer := report.NewPrinter(a.stdout, a.stderr, !f.noColor && !color.NoColor, a.cfg.Ingest.PreviewRows)
			if err := printer.Report(rep); err != nil {
				return fmt.Errorf("unable to print report, %w", err)
			}
			return writeCharts(rep, f.plotDir, f.htmlFile)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.days, "days", 0, "days to forecast past the last observation")
	flags.IntVar(&f.months, "months", 0, "months to forecast, converted to 30 days each")
	flags.StringVar(&f.plotDir, "plot-dir", "", "directory to write forecast and component PNGs to")
	flags.StringVar(&f.htmlFile, "html", "", "file to write the interactive chart page to")
	flags.BoolVar(&f.noCommentary, "no-commentary", false, "skip the commentary request")
	flags.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&f.profile, "profile", "", "profile the run (cpu or mem)")
	flags.StringVar(&f.profileDir, "profile-dir", ".", "directory to write profiles to")
	cmd.MarkFlagsMutuallyExclusive("days", "months")
	return cmd
}

// horizon returns the requested days, months converted to days or the default
func (f runFlags) horizon(cmd *cobra.Command, defaultDays int) (int, error) {
	switch {
	case cmd.Flags().Changed("months"):
		if f.months < 0 || f.months > server.MaxMonths {
			return 0, fmt.Errorf("got %d months, must be between 0 and %d, %w", f.months, server.MaxMonths, pipeline.ErrInvalidHorizon)
		}
		return f.months * server.DaysPerMonth, nil
	case cmd.Flags().Changed("days"):
		return f.days, nil
	}
	return defaultDays, nil
}

func startProfile(mode, dir string) (func(), error) {
	var p func(*profile.Profile)
	switch mode {
	case profileCPU:
		p = profile.CPUProfile
	case profileMem:
		p = profile.MemProfile
	default:
		return nil, fmt.Errorf("%q, %w", mode, ErrUnknownProfile)
	}
	stopper := profile.Start(p, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
	return stopper.Stop, nil
}

func writeCharts(rep *pipeline.Report, plotDir, htmlFile string) error {
	history := rep.Dataset.Points
	if plotDir != "" {
		if err := os.MkdirAll(plotDir, 0o755); err != nil {
			return fmt.Errorf("unable to create plot directory, %w", err)
		}
		if err := writeFile(filepath.Join(plotDir, forecastPNG), func(f *os.File) error {
			return chart.WriteForecastPNG(f, history, rep.Forecast)
		}); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(plotDir, componentsPNG), func(f *os.File) error {
			return chart.WriteComponentsPNG(f, rep.Forecast)
		}); err != nil {
			return err
		}
	}
	if htmlFile != "" {
		if err := writeFile(htmlFile, func(f *os.File) error {
			return chart.RenderHTML(f, history, rep.Forecast)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to write %s, %w", path, err)
	}
	return f.Close()
}
