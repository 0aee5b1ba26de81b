// Package chart renders forecasts as interactive echarts pages and static PNG images
package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/forecast/options"
	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	dateLayout = "2006-01-02"

	// bandStack stacks the interval width on top of the lower bound to shade the band
	bandStack = "band"
	bandColor = "rgba(0, 114, 178, 0.2)"

	bandLineColor = "rgba(0, 114, 178, 0.6)"
)

// profileOrder is the order seasonality profiles are charted in
var profileOrder = []string{options.LabelSeasDaily, options.LabelSeasWeekly, options.LabelSeasYearly}

func baseOptions(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
	}
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. Each
// series of y must have the same length as t. NaNs are left as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOptions(title)...)

	line.SetXAxis(formatDates(t))
	for i, series := range seriesName {
		line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineProfile charts a single seasonality evaluated over one period
func LineProfile(title string, profile pipeline.Profile) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetXAxis(profile.Labels).AddSeries(title, lineData(profile.Values))
	return line
}

// LineForecaster generates an echart line chart of the history along with the point estimate and
// the shaded uncertainty interval over the full timeline
func LineForecaster(history []ingest.Point, fc *pipeline.Forecast) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOptions("Revenue Forecast")...)

	t := make([]time.Time, 0, len(fc.Points))
	estimate := make([]float64, 0, len(fc.Points))
	lower := make([]float64, 0, len(fc.Points))
	upper := make([]float64, 0, len(fc.Points))
	width := make([]float64, 0, len(fc.Points))
	minLower := math.Inf(1)
	for _, p := range fc.Points {
		t = append(t, p.Timestamp)
		estimate = append(estimate, p.Estimate)
		lower = append(lower, p.Lower)
		upper = append(upper, p.Upper)
		width = append(width, p.Upper-p.Lower)
		minLower = math.Min(minLower, p.Lower)
	}

	line.SetXAxis(formatDates(t))
	if minLower >= 0 {
		// stacking only shades correctly when the lower bound never crosses zero
		line.AddSeries("Lower", lineData(lower),
			charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
		).
			AddSeries("Interval", lineData(width),
				charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
				charts.WithAreaStyleOpts(opts.AreaStyle{Color: bandColor}),
			)
	} else {
		boundStyle := charts.WithLineStyleOpts(opts.LineStyle{Color: bandLineColor, Type: "dashed"})
		line.AddSeries("Lower", lineData(lower),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}), boundStyle,
		).
			AddSeries("Upper", lineData(upper),
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}), boundStyle,
			)
	}
	line.AddSeries("Forecast", lineData(estimate),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	).
		AddSeries("Actual", lineData(AlignActuals(history, t)))
	return line
}

// ComponentCharts charts the trend over the full timeline, one chart per seasonality profile and
// the holiday effects when there are any
func ComponentCharts(fc *pipeline.Forecast) []*charts.Line {
	t := make([]time.Time, 0, len(fc.Points))
	for _, p := range fc.Points {
		t = append(t, p.Timestamp)
	}

	lines := []*charts.Line{
		LineTSeries("Trend", []string{"Trend"}, t, [][]float64{fc.Components.Trend}),
	}
	for _, name := range ProfileNames(fc) {
		lines = append(lines, LineProfile(name, fc.Components.Profiles[name]))
	}
	if hasEffect(fc.Components.Holidays) {
		lines = append(lines, LineTSeries("Holidays", []string{"Holidays"}, t, [][]float64{fc.Components.Holidays}))
	}
	return lines
}

// Page assembles the forecast chart followed by the component charts
func Page(history []ingest.Point, fc *pipeline.Forecast) *components.Page {
	page := components.NewPage()
	page.AddCharts(LineForecaster(history, fc))
	for _, line := range ComponentCharts(fc) {
		page.AddCharts(line)
	}
	return page
}

// RenderHTML writes a self contained echarts page of the forecast and its components
func RenderHTML(w io.Writer, history []ingest.Point, fc *pipeline.Forecast) error {
	if fc == nil {
		return ErrNoForecast
	}
	if err := Page(history, fc).Render(w); err != nil {
		return fmt.Errorf("unable to render chart page, %w", err)
	}
	return nil
}

// ProfileNames returns the seasonality profiles of the forecast in charting order
func ProfileNames(fc *pipeline.Forecast) []string {
	var names []string
	for _, name := range profileOrder {
		if _, exists := fc.Components.Profiles[name]; exists {
			names = append(names, name)
		}
	}
	return names
}

// AlignActuals averages the history observed at each timestamp of t. Timestamps without an
// observation are NaN.
func AlignActuals(history []ingest.Point, t []time.Time) []float64 {
	sums := make(map[int64]float64, len(history))
	counts := make(map[int64]int, len(history))
	for _, p := range history {
		key := p.Timestamp.UnixNano()
		sums[key] += p.Value
		counts[key]++
	}

	out := make([]float64, len(t))
	for i, ts := range t {
		key := ts.UnixNano()
		if counts[key] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sums[key] / float64(counts[key])
	}
	return out
}

func formatDates(t []time.Time) []string {
	out := make([]string, len(t))
	for i, ts := range t {
		out[i] = ts.Format(dateLayout)
	}
	return out
}

// lineData converts values to echarts points. NaNs become "-" which echarts draws as a gap.
func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			data = append(data, opts.LineData{Value: "-"})
			continue
		}
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

func hasEffect(y []float64) bool {
	for _, v := range y {
		if v != 0 && !math.IsNaN(v) {
			return true
		}
	}
	return false
}
