// Package forecaster fits a series model and an uncertainty model to a univariate time series
// and produces point forecasts with upper and lower bounds
package forecaster

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/forecast"
	"github.com/aouyang1/go-revenue-forecaster/stats"
	"github.com/aouyang1/go-revenue-forecaster/timedataset"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrInsufficientResidual = errors.New("insufficient samples from residual after outlier removal")
	ErrNoOptionsInModel     = errors.New("no options set in model")
	ErrUntrainedForecaster  = errors.New("forecaster has not been trained yet")
	ErrNegativeHorizon      = errors.New("horizon must be non-negative")
)

const (
	MinResidualWindow       = 2
	MinResidualSize         = 2
	MinResidualWindowFactor = 4
)

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast   *forecast.Forecast
	residualForecast *forecast.Forecast

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	trained         bool
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	opt = opt.Clone()
	if opt.ResidualOptions == nil {
		opt.ResidualOptions = NewDefaultResidualOptions()
	}

	f := &Forecaster{
		opt: opt,
	}

	seriesForecast, err := forecast.New(f.opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	f.seriesForecast = seriesForecast

	residualForecast, err := forecast.New(f.opt.ResidualOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast residual, %w", err)
	}
	f.residualForecast = residualForecast
	return f, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be generated
// from a previous forecaster call to Model().
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt := model.Options.Clone()
	opt.SeriesOptions = model.Series.Options.Clone()
	opt.ResidualOptions = model.Residual.Options.Clone()

	seriesForecast, err := forecast.NewFromModel(model.Series)
	if err != nil {
		return nil, fmt.Errorf("unable to load from series model, %w", err)
	}
	residualForecast, err := forecast.NewFromModel(model.Residual)
	if err != nil {
		return nil, fmt.Errorf("unable to load from residual model, %w", err)
	}
	f := &Forecaster{
		opt:              opt,
		seriesForecast:   seriesForecast,
		residualForecast: residualForecast,
		trained:          true,
	}
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model. Observations may be unordered and
// NaNs are ignored.
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.fitTrainingData = td.Copy()

	residual, err := f.fitSeriesWithOutliers(td.T, td.Y)
	if err != nil {
		return err
	}
	f.residual = residual

	if err := f.fitResidual(td.T, residual); err != nil {
		return err
	}
	f.trained = true

	f.fitResults, err = f.Predict(td.T)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}

	scores := f.seriesForecast.Scores()
	slog.Debug("fit forecaster",
		"observations", td.Len(),
		"mse", scores.MSE,
		"mape", scores.MAPE,
		"r2", scores.R2,
	)
	return nil
}

// fitSeriesWithOutliers fits the series and masks residual outliers with NaN before refitting. y
// is modified in place.
func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		if err := f.seriesForecast.Fit(t, y); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}

		residual = f.seriesForecast.Residuals()

		// break out if no outlier options provided or on the final fit
		if f.opt.OutlierOptions == nil || i == numPasses {
			break
		}

		outlierIdxs := stats.DetectOutliers(
			residual,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}

		// keep enough observations to refit
		remaining := 0
		for _, v := range y {
			if !math.IsNaN(v) {
				remaining++
			}
		}
		if remaining-len(outlierIdxs) < forecast.MinTrainingObservations {
			slog.Warn("skipping outlier removal, too few observations would remain",
				"remaining", remaining, "outliers", len(outlierIdxs))
			break
		}

		for _, idx := range outlierIdxs {
			y[idx] = math.NaN()
		}
		slog.Debug("masked residual outliers", "pass", i+1, "outliers", len(outlierIdxs))
	}
	return residual, nil
}

// fitResidual fits the uncertainty model on the centered rolling standard deviation of the
// residual scaled by the z-score.
func (f *Forecaster) fitResidual(t []time.Time, residual []float64) error {
	valid := 0
	for _, r := range residual {
		if !math.IsNaN(r) {
			valid++
		}
	}
	if valid < MinResidualSize {
		return ErrInsufficientResidual
	}

	// limit residual window to a quarter of the valid residual points
	window := f.opt.ResidualWindow
	if valid/MinResidualWindowFactor < window {
		window = valid / MinResidualWindowFactor
	}
	if window < MinResidualWindow {
		window = MinResidualWindow
	}

	band := stats.CenteredRollingStdDev(residual, window)
	floats.Scale(f.opt.ResidualZscore, band)

	if err := f.residualForecast.Fit(t, band); err != nil {
		return fmt.Errorf("unable to forecast residual, %w", err)
	}
	return nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}
	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}
	residualRes, residualComp, err := f.residualForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict residual forecasts, %w", err)
	}

	// cap residual predictions to be greater than or equal to 0
	for i := 0; i < len(residualRes); i++ {
		if residualRes[i] < 0.0 || math.IsNaN(residualRes[i]) {
			residualRes[i] = 0.0
		}
	}

	r := &Results{
		T:                  t,
		Forecast:           seriesRes,
		SeriesComponents:   seriesComp,
		ResidualComponents: residualComp,
	}
	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))

	copy(upper, seriesRes)
	copy(lower, seriesRes)

	floats.Add(upper, residualRes)
	floats.Sub(lower, residualRes)
	r.Upper = upper
	r.Lower = lower
	return r, nil
}

// MakeFuture returns the unique sorted training times followed by days daily steps after the
// last training time
func (f *Forecaster) MakeFuture(days int) ([]time.Time, error) {
	if days < 0 {
		return nil, fmt.Errorf("got %d days, %w", days, ErrNegativeHorizon)
	}
	if !f.trained || f.fitTrainingData == nil {
		return nil, ErrUntrainedForecaster
	}
	history := f.fitTrainingData.UniqueT()
	out := make([]time.Time, 0, len(history)+days)
	out = append(out, history...)
	out = append(out, history.Extend(days, 24*time.Hour)...)
	return out, nil
}

// SeasonalityProfile evaluates a single named seasonality of the series model at the provided
// times
func (f *Forecaster) SeasonalityProfile(name string, t []time.Time) ([]float64, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}
	return f.seriesForecast.SeasonalityComponent(name, t)
}

// SeasonalityNames returns the seasonality configs the series model was fit with
func (f *Forecaster) SeasonalityNames() []string {
	opt := f.seriesForecast.Options()
	if opt == nil {
		return nil
	}
	return opt.SeasonalityOptions.Names()
}

// Residuals returns the difference between the final series fit and the training data in
// training time order. Masked outliers and NaN inputs are NaN.
func (f *Forecaster) Residuals() []float64 {
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent returns the trend component created by growth and changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityComponent returns the seasonality component after fitting the fourier series
func (f *Forecaster) SeasonalityComponent() []float64 {
	return f.seriesForecast.SeasonalityTotal()
}

// Scores returns the fit scores of the series model on the training data
func (f *Forecaster) Scores() forecast.Scores {
	return f.seriesForecast.Scores()
}

// SeriesIntercept returns the intercept of the series fit
func (f *Forecaster) SeriesIntercept() float64 {
	return f.seriesForecast.Intercept()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// ResidualIntercept returns the intercept of the uncertainty fit
func (f *Forecaster) ResidualIntercept() float64 {
	return f.residualForecast.Intercept()
}

// ResidualCoefficients returns all uncertainty coefficient weights associated with the component label string
func (f *Forecaster) ResidualCoefficients() (map[string]float64, error) {
	return f.residualForecast.Coefficients()
}

// Model generates a serializeable representation of the fit options, series model, and uncertainty model. This
// can be used to initialize a new Forecaster for immediate predictions skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	residualModel, err := f.residualForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch residual model, %w", err)
	}
	m := Model{
		Options:  f.opt.Clone(),
		Series:   seriesModel,
		Residual: residualModel,
	}
	return m, nil
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// ResidualModelEq returns a string representation of the fit uncertainty model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) ResidualModelEq() (string, error) {
	return f.residualForecast.ModelEq()
}

// TrainingData returns the sorted training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}
