package forecaster

import (
	"time"

	"github.com/aouyang1/go-revenue-forecaster/forecast"
)

// Results holds the forecast with its uncertainty bounds for each requested time along with the
// additive components of the series and uncertainty models
type Results struct {
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Upper    []float64   `json:"upper"`
	Lower    []float64   `json:"lower"`

	SeriesComponents   forecast.Components `json:"series_components"`
	ResidualComponents forecast.Components `json:"residual_components"`
}

// Len returns the number of predicted points
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.T)
}
