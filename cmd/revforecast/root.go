package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aouyang1/go-revenue-forecaster/internal/config"
	"github.com/aouyang1/go-revenue-forecaster/internal/logger"
	"github.com/spf13/cobra"
)

// app holds the flags shared by every command and the configuration loaded from them
type app struct {
	configFile  string
	envFile     string
	secretsFile string
	logLevel    string
	logFormat   string

	cfg    *config.Config
	logger *slog.Logger

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "revforecast",
		Short: "Revenue forecasting with AI commentary",
		Long: `revforecast reads an Excel workbook with Date and Revenue columns, fits a trend and
seasonality model, forecasts future revenue with an uncertainty interval and asks a
chat-completion API for commentary on the forecast.

Example usage:
  revforecast serve                          # Start the upload dashboard
  revforecast run revenue.xlsx --months 6    # Forecast from the terminal
  revforecast run revenue.xlsx --days 90 --no-commentary --plot-dir plots`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	defaults := config.NewDefaultLoadOptions()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&a.envFile, "env-file", defaults.EnvFile, "dotenv file loaded into the environment")
	flags.StringVar(&a.secretsFile, "secrets-file", defaults.SecretsFile, "toml secrets file holding "+config.CredentialEnv)
	flags.StringVar(&a.logLevel, "log-level", "", "log level overriding the config (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format overriding the config (text, json)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newRunCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// load reads the configuration and installs the logger. With requireCredential a missing API key
// fails before anything else happens.
func (a *app) load(requireCredential bool) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile:        a.configFile,
		SecretsFile:       a.secretsFile,
		EnvFile:           a.envFile,
		RequireCredential: requireCredential,
	})
	if err != nil {
		return fmt.Errorf("unable to load configuration, %w", err)
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	if err != nil {
		return fmt.Errorf("unable to create logger, %w", err)
	}
	slog.SetDefault(lg)

	a.cfg = cfg
	a.logger = lg
	lg.Debug("configuration loaded",
		"addr", cfg.Server.Addr,
		"commentary", cfg.Commentary,
		"default_days", cfg.Forecast.DefaultDays,
		"max_days", cfg.Forecast.MaxDays,
	)
	return nil
}
