package main

import (
	"github.com/aouyang1/go-revenue-forecaster/internal/logger"
	"github.com/aouyang1/go-revenue-forecaster/internal/metrics"
	"github.com/aouyang1/go-revenue-forecaster/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form and forecast dashboard",
		Long: `Serve the upload form and forecast dashboard over HTTP.

The commentary API key must be set through GROQ_API_KEY, REVFORECAST_COMMENTARY_API_KEY
or the secrets file, otherwise the server does not start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(true); err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			p, err := a.buildPipeline(m, true)
			if err != nil {
				return err
			}

			srv := server.New(p, reg, server.Options{
				Addr:           a.cfg.Server.Addr,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				ReadTimeout:    a.cfg.Server.ReadTimeout,
				WriteTimeout:   a.cfg.Server.WriteTimeout,
				RateLimit:      a.cfg.Server.RateLimit,
				DefaultDays:    a.cfg.Forecast.DefaultDays,
				PreviewRows:    a.cfg.Ingest.PreviewRows,
			}, logger.WithComponent(a.logger, "server"))
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address overriding server.addr")
	return cmd
}
