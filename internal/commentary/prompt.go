package commentary

import (
	"fmt"

	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/goccy/go-json"
)

const SystemMessage = "You are a strategic financial advisor and forecaster."

const promptTemplate = `
You are an expert financial forecaster. Given the following revenue model forecast data in JSON:
%s

Please provide:
- Key trends observed in the forecast.
- Risks or uncertainties.
- Summary insights a CFO would care about.
- Strategic recommendations based on the forecast.
`

// Record is a single forecast point of the prompt payload
type Record struct {
	Date  string  `json:"ds"`
	Yhat  float64 `json:"yhat"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

// Records converts the horizon into payload records with ISO dates
func Records(horizon []pipeline.ForecastPoint) []Record {
	out := make([]Record, 0, len(horizon))
	for _, p := range horizon {
		out = append(out, Record{
			Date:  p.Timestamp.Format("2006-01-02"),
			Yhat:  p.Estimate,
			Lower: p.Lower,
			Upper: p.Upper,
		})
	}
	return out
}

// BuildPrompt embeds the horizon records as a JSON array in the fixed prompt
func BuildPrompt(horizon []pipeline.ForecastPoint) (string, error) {
	payload, err := json.Marshal(Records(horizon))
	if err != nil {
		return "", fmt.Errorf("unable to marshal forecast records, %w", err)
	}
	return fmt.Sprintf(promptTemplate, payload), nil
}
