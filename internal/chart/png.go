package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	imageWidth  = 12 * vg.Inch
	imageHeight = 6 * vg.Inch
	panelHeight = 3 * vg.Inch

	// maxNominalLabels is the most profile labels shown before ticks are thinned
	maxNominalLabels = 24
)

var ErrNoForecast = errors.New("no forecast to chart")

var (
	forecastColor = color.RGBA{R: 0, G: 114, B: 178, A: 255}
	bandFillColor = color.RGBA{R: 0, G: 114, B: 178, A: 60}
	actualColor   = color.RGBA{A: 255}
)

// ForecastPlot plots the history as points over the point estimate and the shaded interval
func ForecastPlot(history []ingest.Point, fc *pipeline.Forecast) (*plot.Plot, error) {
	if fc == nil || len(fc.Points) == 0 {
		return nil, ErrNoForecast
	}

	p := plot.New()
	p.Title.Text = "Revenue Forecast"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Revenue"
	p.X.Tick.Marker = plot.TimeTicks{Format: dateLayout}
	p.Add(plotter.NewGrid())

	n := len(fc.Points)
	estimate := make(plotter.XYs, n)
	band := make(plotter.XYs, 0, 2*n)
	for i, pnt := range fc.Points {
		x := float64(pnt.Timestamp.Unix())
		estimate[i] = plotter.XY{X: x, Y: pnt.Estimate}
		band = append(band, plotter.XY{X: x, Y: pnt.Upper})
	}
	for i := n - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: float64(fc.Points[i].Timestamp.Unix()), Y: fc.Points[i].Lower})
	}

	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return nil, fmt.Errorf("unable to plot interval, %w", err)
	}
	poly.Color = bandFillColor
	poly.LineStyle.Width = 0

	line, err := plotter.NewLine(estimate)
	if err != nil {
		return nil, fmt.Errorf("unable to plot forecast, %w", err)
	}
	line.LineStyle.Color = forecastColor
	line.LineStyle.Width = vg.Points(1.5)

	p.Add(poly, line)
	p.Legend.Add("Interval", poly)
	p.Legend.Add("Forecast", line)

	actual := make(plotter.XYs, 0, len(history))
	for _, pnt := range history {
		if math.IsNaN(pnt.Value) {
			continue
		}
		actual = append(actual, plotter.XY{X: float64(pnt.Timestamp.Unix()), Y: pnt.Value})
	}
	if len(actual) > 0 {
		scatter, err := plotter.NewScatter(actual)
		if err != nil {
			return nil, fmt.Errorf("unable to plot history, %w", err)
		}
		scatter.GlyphStyle.Color = actualColor
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(scatter)
		p.Legend.Add("Actual", scatter)
	}
	p.Legend.Top = true
	return p, nil
}

// ComponentPlots plots the trend, each seasonality profile and the holiday effects when present
func ComponentPlots(fc *pipeline.Forecast) ([]*plot.Plot, error) {
	if fc == nil || len(fc.Points) == 0 {
		return nil, ErrNoForecast
	}

	xs := make([]float64, len(fc.Points))
	for i, pnt := range fc.Points {
		xs[i] = float64(pnt.Timestamp.Unix())
	}

	trend, err := timePlot("Trend", xs, fc.Components.Trend)
	if err != nil {
		return nil, err
	}
	plots := []*plot.Plot{trend}

	for _, name := range ProfileNames(fc) {
		prof, err := profilePlot(name, fc.Components.Profiles[name])
		if err != nil {
			return nil, err
		}
		plots = append(plots, prof)
	}

	if hasEffect(fc.Components.Holidays) {
		hol, err := timePlot("Holidays", xs, fc.Components.Holidays)
		if err != nil {
			return nil, err
		}
		plots = append(plots, hol)
	}
	return plots, nil
}

// WriteForecastPNG renders the forecast plot as a PNG
func WriteForecastPNG(w io.Writer, history []ingest.Point, fc *pipeline.Forecast) error {
	p, err := ForecastPlot(history, fc)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(imageWidth, imageHeight, "png")
	if err != nil {
		return fmt.Errorf("unable to create png writer, %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write forecast png, %w", err)
	}
	return nil
}

// WriteComponentsPNG renders every component plot stacked vertically in a single PNG
func WriteComponentsPNG(w io.Writer, fc *pipeline.Forecast) error {
	plots, err := ComponentPlots(fc)
	if err != nil {
		return err
	}

	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(imageWidth, panelHeight*vg.Length(len(plots)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write components png, %w", err)
	}
	return nil
}

func timePlot(title string, xs, ys []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: dateLayout}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if i >= len(ys) || math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("unable to plot %s, %w", title, err)
	}
	line.LineStyle.Color = forecastColor
	p.Add(line)
	return p, nil
}

func profilePlot(name string, profile pipeline.Profile) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = name
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(profile.Values))
	for i, v := range profile.Values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("unable to plot %s seasonality, %w", name, err)
	}
	line.LineStyle.Color = forecastColor
	p.Add(line)

	step := 1
	if len(profile.Labels) > maxNominalLabels {
		step = len(profile.Labels) / 12
	}
	ticks := make(plot.ConstantTicks, 0, len(profile.Labels)/step+1)
	for i := 0; i < len(profile.Labels); i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: profile.Labels[i]})
	}
	p.X.Tick.Marker = ticks
	return p, nil
}
