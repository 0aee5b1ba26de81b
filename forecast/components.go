package forecast

// Components is the additive decomposition of a prediction. Trend includes the intercept and
// Seasonal holds each named seasonality whose sum is Seasonality.
type Components struct {
	Trend       []float64            `json:"trend"`
	Seasonality []float64            `json:"seasonality"`
	Seasonal    map[string][]float64 `json:"seasonal"`
	Event       []float64            `json:"event"`
}
