package forecaster

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-revenue-forecaster/forecast/options"
	"github.com/aouyang1/go-revenue-forecaster/forecast/util"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultResidualWindow = 30
	DefaultIntervalWidth  = 0.8
)

var ErrInvalidIntervalWidth = errors.New("interval width must be between 0 and 1 exclusive")

// OutlierOptions configures the passes that mask residual outliers before refitting the series.
// Points outside of the percentile range expanded by TukeyFactor times the range are masked.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// Options configures the series model, the uncertainty model fit on the rolling residual
// standard deviation and the optional outlier passes.
type Options struct {
	SeriesOptions   *options.Options `json:"series_options"`
	ResidualOptions *options.Options `json:"residual_options"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
	ResidualWindow int             `json:"residual_window"`
	ResidualZscore float64         `json:"residual_zscore"`
}

// NewDefaultOptions returns options producing an 80% uncertainty interval with a series model
// of linear growth, automatic changepoints and automatic seasonality
func NewDefaultOptions() *Options {
	z, _ := ZscoreForIntervalWidth(DefaultIntervalWidth)
	return &Options{
		SeriesOptions:   options.NewDefaultOptions(),
		ResidualOptions: NewDefaultResidualOptions(),
		ResidualWindow:  DefaultResidualWindow,
		ResidualZscore:  z,
	}
}

// NewDefaultResidualOptions models the uncertainty band with an intercept and seasonality only
func NewDefaultResidualOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.GrowthType = ""
	opt.ChangepointOptions = options.ChangepointOptions{}
	return opt
}

// ZscoreForIntervalWidth returns the two sided standard normal quantile covering the interval
// width, e.g. 0.8 returns ~1.2816
func ZscoreForIntervalWidth(width float64) (float64, error) {
	if width <= 0 || width >= 1 {
		return 0, fmt.Errorf("got %.3f, %w", width, ErrInvalidIntervalWidth)
	}
	return distuv.UnitNormal.Quantile(0.5 + width/2), nil
}

// Clone returns a deep copy of the options
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}
	out := *o
	out.SeriesOptions = o.SeriesOptions.Clone()
	out.ResidualOptions = o.ResidualOptions.Clone()
	if o.OutlierOptions != nil {
		outlier := *o.OutlierOptions
		out.OutlierOptions = &outlier
	}
	return &out
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sUncertainty: window %d, zscore %.4f\n",
		prefix, util.IndentExpand(indent, 0), o.ResidualWindow, o.ResidualZscore); err != nil {
		return err
	}
	if o.OutlierOptions == nil {
		_, err := fmt.Fprintf(w, "%s%sOutliers: None\n", prefix, util.IndentExpand(indent, 0))
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sOutliers: passes %d, percentiles [%.2f, %.2f], tukey %.2f\n",
		prefix, util.IndentExpand(indent, 0),
		o.OutlierOptions.NumPasses,
		o.OutlierOptions.LowerPercentile,
		o.OutlierOptions.UpperPercentile,
		o.OutlierOptions.TukeyFactor,
	)
	return err
}
