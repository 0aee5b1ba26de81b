package main

import (
	"fmt"

	"github.com/aouyang1/go-revenue-forecaster/internal/commentary"
	"github.com/aouyang1/go-revenue-forecaster/internal/config"
	"github.com/aouyang1/go-revenue-forecaster/internal/engine"
	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/logger"
	"github.com/aouyang1/go-revenue-forecaster/internal/metrics"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
)

// buildPipeline wires the pipeline collaborators from the configuration. Commentary is left out
// when withCommentary is false.
func (a *app) buildPipeline(m *metrics.Metrics, withCommentary bool) (*pipeline.Pipeline, error) {
	cfg := a.cfg

	reader := ingest.NewReader(ingestOptions(cfg.Ingest), logger.WithComponent(a.logger, "ingest"))

	eng, err := engine.New(engine.Options{
		IntervalWidth: cfg.Forecast.IntervalWidth,
		Holidays:      cfg.Forecast.Holidays,
		Outliers:      cfg.Forecast.Outliers,
	}, logger.WithComponent(a.logger, "engine"))
	if err != nil {
		return nil, fmt.Errorf("unable to create forecast engine, %w", err)
	}

	var com pipeline.Commentator
	if withCommentary {
		client, err := commentary.New(commentary.Options{
			APIKey:            cfg.Commentary.APIKey,
			BaseURL:           cfg.Commentary.BaseURL,
			Model:             cfg.Commentary.Model,
			Timeout:           cfg.Commentary.Timeout,
			RequestsPerMinute: cfg.Commentary.RequestsPerMinute,
		}, logger.WithComponent(a.logger, "commentary"), m)
		if err != nil {
			return nil, fmt.Errorf("unable to create commentary client, %w", err)
		}
		com = client
	}

	return pipeline.New(reader, eng, com, pipeline.Options{
		MaxDays: cfg.Forecast.MaxDays,
		Logger:  logger.WithComponent(a.logger, "pipeline"),
		Metrics: m,
	}), nil
}

func ingestOptions(cfg config.IngestConfig) ingest.Options {
	return ingest.Options{
		DateColumn:  cfg.DateColumn,
		ValueColumn: cfg.ValueColumn,
		RowPolicy:   cfg.RowPolicy,
		PreviewRows: cfg.PreviewRows,
	}
}
