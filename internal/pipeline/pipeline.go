// Package pipeline runs a single upload through ingestion, forecasting and commentary
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/metrics"
	"github.com/google/uuid"
)

// Options configures a Pipeline
type Options struct {
	// MaxDays bounds the horizon. 0 leaves it unbounded.
	MaxDays int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Pipeline holds the collaborators of a run. It keeps no state between runs and is safe for
// concurrent use when its collaborators are.
type Pipeline struct {
	ingester    Ingester
	engine      Engine
	commentator Commentator

	maxDays int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a pipeline. A nil commentator disables commentary.
func New(ingester Ingester, engine Engine, commentator Commentator, opt Options) *Pipeline {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ingester:    ingester,
		engine:      engine,
		commentator: commentator,
		maxDays:     opt.MaxDays,
		logger:      logger,
		metrics:     opt.Metrics,
	}
}

// Run reads the workbook in input, forecasts days past the last observation and requests
// commentary on the forecast horizon. Any failure returns no report.
func (p *Pipeline) Run(ctx context.Context, input io.Reader, days int) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	report, outcome, err := p.run(ctx, logger, input, days)
	p.metrics.RecordRun(outcome)
	p.metrics.RecordStage("run", start)
	if err != nil {
		logger.Error("run failed", "outcome", outcome, "error", err.Error())
		return nil, err
	}

	report.RunID = runID
	report.Elapsed = time.Since(start)
	logger.Info("run complete",
		"days", days,
		"points", len(report.Forecast.Points),
		"commentary_skipped", report.CommentarySkipped,
		"elapsed", report.Elapsed,
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, input io.Reader, days int) (*Report, string, error) {
	if days < 0 || (p.maxDays > 0 && days > p.maxDays) {
		return nil, metrics.OutcomeInvalidInput, fmt.Errorf("got %d days, must be between 0 and %d, %w", days, p.maxDays, ErrInvalidHorizon)
	}

	stageStart := time.Now()
	ds, err := p.ingester.Read(ctx, input)
	p.metrics.RecordStage("ingest", stageStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, metrics.OutcomeCanceled, ctxErr
		}
		return nil, metrics.OutcomeInvalidInput, fmt.Errorf("unable to read input, %w", err)
	}
	p.metrics.RecordInput(len(ds.Points), days)
	logger.Debug("ingested workbook", "points", len(ds.Points), "dropped", ds.Stats.NullRows+ds.Stats.InvalidRows)

	stageStart = time.Now()
	fc, err := p.engine.Forecast(ctx, ds.Points, days)
	p.metrics.RecordStage("forecast", stageStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, metrics.OutcomeCanceled, ctxErr
		}
		return nil, metrics.OutcomeEngineError, &ForecastEngineError{Err: err}
	}
	if fc == nil {
		return nil, metrics.OutcomeEngineError, &ForecastEngineError{Err: errors.New("no forecast returned")}
	}

	report := &Report{
		Days:     days,
		Dataset:  ds,
		Forecast: fc,
		Tail:     fc.Future(),
	}

	if days == 0 || p.commentator == nil {
		report.CommentarySkipped = true
		return report, metrics.OutcomeOK, nil
	}

	stageStart = time.Now()
	commentary, err := p.commentator.Comment(ctx, report.Tail)
	p.metrics.RecordStage("commentary", stageStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, metrics.OutcomeCanceled, ctxErr
		}
		return nil, metrics.OutcomeCommentaryError, &CommentaryAPIError{Err: err}
	}
	report.Commentary = commentary
	return report, metrics.OutcomeOK, nil
}
