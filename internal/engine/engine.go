// Package engine adapts the forecaster to the pipeline's Engine interface
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	forecaster "github.com/aouyang1/go-revenue-forecaster"
	"github.com/aouyang1/go-revenue-forecaster/forecast/options"
	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
)

var ErrNonFiniteForecast = errors.New("forecast produced a non-finite value")

// Options configures every fit made by the engine
type Options struct {
	// IntervalWidth is the coverage of the uncertainty interval, e.g. 0.8
	IntervalWidth float64
	// Holidays is an optional holiday country, e.g. US
	Holidays string
	// Outliers enables residual outlier passes before the final fit
	Outliers bool
}

func NewDefaultOptions() Options {
	return Options{IntervalWidth: forecaster.DefaultIntervalWidth}
}

// Engine fits a new forecaster on every call. It holds no state between calls.
type Engine struct {
	opt    *forecaster.Options
	logger *slog.Logger
}

// New validates the options and creates an engine
func New(opt Options, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	z, err := forecaster.ZscoreForIntervalWidth(opt.IntervalWidth)
	if err != nil {
		return nil, fmt.Errorf("unable to compute interval z-score, %w", err)
	}

	fOpt := forecaster.NewDefaultOptions()
	fOpt.ResidualZscore = z
	fOpt.SeriesOptions.HolidayOptions.Country = opt.Holidays
	if opt.Outliers {
		fOpt.OutlierOptions = forecaster.NewOutlierOptions()
	}
	if err := fOpt.SeriesOptions.HolidayOptions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid holidays, %w", err)
	}

	return &Engine{opt: fOpt, logger: logger}, nil
}

// Forecast fits the series and predicts over the unique history timestamps followed by days daily
// steps
func (e *Engine) Forecast(ctx context.Context, series []ingest.Point, days int) (*pipeline.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := make([]time.Time, 0, len(series))
	y := make([]float64, 0, len(series))
	for _, p := range series {
		t = append(t, p.Timestamp)
		y = append(y, p.Value)
	}

	f, err := forecaster.New(e.opt)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecaster, %w", err)
	}
	if err := f.Fit(t, y); err != nil {
		return nil, fmt.Errorf("unable to fit forecaster, %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	future, err := f.MakeFuture(days)
	if err != nil {
		return nil, fmt.Errorf("unable to build future timeline, %w", err)
	}
	res, err := f.Predict(future)
	if err != nil {
		return nil, fmt.Errorf("unable to predict future timeline, %w", err)
	}

	points := make([]pipeline.ForecastPoint, 0, res.Len())
	for i, ts := range res.T {
		if !finite(res.Forecast[i], res.Lower[i], res.Upper[i]) {
			return nil, fmt.Errorf("point at %s, %w", ts.Format(time.DateOnly), ErrNonFiniteForecast)
		}
		points = append(points, pipeline.ForecastPoint{
			Timestamp: ts,
			Estimate:  res.Forecast[i],
			Lower:     res.Lower[i],
			Upper:     res.Upper[i],
		})
	}

	profiles, err := seasonalityProfiles(f)
	if err != nil {
		return nil, err
	}

	scores := f.Scores()
	if !finite(scores.MSE, scores.MAPE, scores.R2) {
		return nil, fmt.Errorf("fit scores, %w", ErrNonFiniteForecast)
	}
	fc := &pipeline.Forecast{
		Points: points,
		Components: pipeline.Components{
			Trend:    res.SeriesComponents.Trend,
			Seasonal: res.SeriesComponents.Seasonal,
			Holidays: res.SeriesComponents.Event,
			Profiles: profiles,
		},
		Scores: pipeline.FitScores{
			MSE:  scores.MSE,
			MAPE: scores.MAPE,
			R2:   scores.R2,
		},
		HistoryEnd: f.TrainingData().UniqueT().EndTime(),
		Summary:    summary(f, e.logger),
	}

	e.logger.Debug("forecast complete",
		"observations", len(series),
		"days", days,
		"points", len(points),
		"r2", scores.R2,
	)
	return fc, nil
}

// profileStart is a Sunday at the start of a non leap year
var profileStart = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

func seasonalityProfiles(f *forecaster.Forecaster) (map[string]pipeline.Profile, error) {
	profiles := make(map[string]pipeline.Profile)
	for _, name := range f.SeasonalityNames() {
		var (
			t      []time.Time
			labels []string
		)
		switch name {
		case options.LabelSeasDaily:
			for i := range 24 {
				ts := profileStart.Add(time.Duration(i) * time.Hour)
				t = append(t, ts)
				labels = append(labels, ts.Format("15:04"))
			}
		case options.LabelSeasWeekly:
			for i := range 7 {
				ts := profileStart.AddDate(0, 0, i)
				t = append(t, ts)
				labels = append(labels, ts.Weekday().String())
			}
		case options.LabelSeasYearly:
			for i := range 365 {
				ts := profileStart.AddDate(0, 0, i)
				t = append(t, ts)
				labels = append(labels, ts.Format("Jan 02"))
			}
		default:
			continue
		}

		values, err := f.SeasonalityProfile(name, t)
		if err != nil {
			return nil, fmt.Errorf("unable to evaluate %s seasonality, %w", name, err)
		}
		profiles[name] = pipeline.Profile{Labels: labels, Values: values}
	}
	return profiles, nil
}

func summary(f *forecaster.Forecaster, logger *slog.Logger) string {
	m, err := f.Model()
	if err != nil {
		logger.Warn("unable to build model summary", "error", err.Error())
		return ""
	}
	var buf bytes.Buffer
	if err := m.TablePrint(&buf); err != nil {
		logger.Warn("unable to print model summary", "error", err.Error())
		return ""
	}
	return buf.String()
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
