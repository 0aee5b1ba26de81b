// Package options contains all forecast options for a linear fit of a univariate time series
package options

import (
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/feature"
	"github.com/aouyang1/go-revenue-forecaster/forecast/util"
	"github.com/aouyang1/go-revenue-forecaster/models"
)

const (
	LabelTimeEpoch = "epoch"

	DefaultRegularization = 0.0
)

// Options configures a forecast by specifying growth, changepoints, seasonality orders, events
// and an optional regularization parameter where higher values removes more features
// that contribute the least to the fit.
type Options struct {
	GrowthType string `json:"growth_type"`

	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	EventOptions       EventOptions       `json:"event_options"`
	HolidayOptions     HolidayOptions     `json:"holiday_options"`

	// Lasso related options
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Tolerance      float64 `json:"tolerance"`
}

// NewDefaultOptions returns a set of default forecast options with linear growth, automatic
// changepoints and automatic seasonality
func NewDefaultOptions() *Options {
	return &Options{
		GrowthType:         feature.GrowthLinear,
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		Regularization:     DefaultRegularization,
		Iterations:         models.DefaultIterations,
		Tolerance:          models.DefaultTolerance,
	}
}

// Clone returns a deep copy of the options
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}
	out := *o
	out.ChangepointOptions.Changepoints = append([]Changepoint(nil), o.ChangepointOptions.Changepoints...)
	out.SeasonalityOptions.SeasonalityConfigs = append([]SeasonalityConfig(nil), o.SeasonalityOptions.SeasonalityConfigs...)
	out.EventOptions.Events = append([]Event(nil), o.EventOptions.Events...)
	return &out
}

// NewLassoOptions converts the forecast options into lasso options. The intercept is fit by
// the regression and is never regularized.
func (o *Options) NewLassoOptions() *models.LassoOptions {
	lassoOpt := models.NewDefaultLassoOptions()
	lassoOpt.Lambda = o.Regularization
	lassoOpt.FitIntercept = true

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = models.DefaultIterations
	}

	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = models.DefaultTolerance
	}
	return lassoOpt
}

// GenerateFeatures builds the full feature set for the provided times given the training window.
// Time features are generated first and every other feature is derived from them.
func (o *Options) GenerateFeatures(t []time.Time, trainStart, trainEnd time.Time, interval time.Duration) (*feature.Set, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	epochFeat := feature.NewTime(LabelTimeEpoch)
	epoch := epochFeat.Generate(t)

	x := feature.NewSet()
	x.Update(o.generateGrowthFeatures(epoch, trainStart, trainEnd))
	x.Update(o.ChangepointOptions.GenerateFeatures(t, trainStart, trainEnd))

	seasFeat, err := o.SeasonalityOptions.GenerateFourierFeatures(epoch, interval)
	if err != nil {
		return nil, fmt.Errorf("unable to generate seasonality features, %w", err)
	}
	x.Update(seasFeat)

	events, err := o.HolidayOptions.Events(t)
	if err != nil {
		return nil, fmt.Errorf("unable to generate holiday events, %w", err)
	}
	events = append(events, o.EventOptions.Events...)
	x.Update(GenerateEventFeatures(t, events))
	return x, nil
}

func (o *Options) generateGrowthFeatures(epoch []float64, trainStart, trainEnd time.Time) *feature.Set {
	growth := feature.NewSet()
	switch o.GrowthType {
	case feature.GrowthLinear:
		linearFeat := feature.Linear()
		growth.Set(linearFeat, linearFeat.Generate(epoch, trainStart, trainEnd))
	}
	return growth
}

// TablePrint writes a human readable summary of the options
func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	growth := o.GrowthType
	if growth == "" {
		growth = "none"
	}
	if _, err := fmt.Fprintf(w, "%s%sGrowth: %s\n", prefix, util.IndentExpand(indent, indentGrowth), growth); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sRegularization: %g\n", prefix, util.IndentExpand(indent, indentGrowth), o.Regularization); err != nil {
		return err
	}
	if err := o.ChangepointOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if err := o.SeasonalityOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if err := o.HolidayOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	return o.EventOptions.TablePrint(w, prefix, indent, indentGrowth)
}
