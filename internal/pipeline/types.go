package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
)

// ForecastPoint is a point estimate with its uncertainty interval. The json names match the
// columns of the commentary payload.
type ForecastPoint struct {
	Timestamp time.Time `json:"ds"`
	Estimate  float64   `json:"yhat"`
	Lower     float64   `json:"yhat_lower"`
	Upper     float64   `json:"yhat_upper"`
}

// Profile is a seasonal component evaluated over one full period, e.g. each day of the week
type Profile struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Components is the additive decomposition of the forecast aligned with Forecast.Points
type Components struct {
	Trend    []float64            `json:"trend"`
	Seasonal map[string][]float64 `json:"seasonal"`
	Holidays []float64            `json:"holidays"`
	Profiles map[string]Profile   `json:"profiles"`
}

// FitScores measure how well the model fit the history
type FitScores struct {
	MSE  float64 `json:"mse"`
	MAPE float64 `json:"mape"`
	R2   float64 `json:"r2"`
}

// Forecast is the engine output over the history followed by the horizon
type Forecast struct {
	Points     []ForecastPoint `json:"points"`
	Components Components      `json:"components"`
	Scores     FitScores       `json:"scores"`
	HistoryEnd time.Time       `json:"history_end"`
	Summary    string          `json:"-"`
}

// Future returns the points after the last history timestamp
func (f *Forecast) Future() []ForecastPoint {
	if f == nil {
		return nil
	}
	for i, p := range f.Points {
		if p.Timestamp.After(f.HistoryEnd) {
			return f.Points[i:]
		}
	}
	return nil
}

// Ingester reads and normalizes an uploaded workbook
type Ingester interface {
	Read(ctx context.Context, r io.Reader) (*ingest.Dataset, error)
}

// Engine fits a model to the series and forecasts days past the last observation
type Engine interface {
	Forecast(ctx context.Context, series []ingest.Point, days int) (*Forecast, error)
}

// Commentator turns the forecast horizon into natural language commentary
type Commentator interface {
	Comment(ctx context.Context, horizon []ForecastPoint) (string, error)
}

// Report is everything a single run produced
type Report struct {
	RunID      string          `json:"run_id"`
	Days       int             `json:"days"`
	Dataset    *ingest.Dataset `json:"dataset"`
	Forecast   *Forecast       `json:"forecast"`
	Tail       []ForecastPoint `json:"tail"`
	Commentary string          `json:"commentary"`
	// CommentarySkipped is set when there is no horizon to comment on or no commentator
	CommentarySkipped bool          `json:"commentary_skipped"`
	Elapsed           time.Duration `json:"elapsed"`
}
