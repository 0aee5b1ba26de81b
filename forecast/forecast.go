// Package forecast fits a single linear model of trend, seasonality and events to a univariate
// time series
package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/feature"
	"github.com/aouyang1/go-revenue-forecaster/forecast/options"
	"github.com/aouyang1/go-revenue-forecaster/models"
	"github.com/aouyang1/go-revenue-forecaster/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinTrainingObservations is the smallest number of non-NaN observations a forecast can be fit on
const MinTrainingObservations = 3

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing NaNs")
	ErrDegenerateSeries         = errors.New("training data spans a single point in time")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
)

// Forecast represents a single forecast model of a time series. This is a linear model fit with
// least squares or lasso coordinate descent. This will decompose the series into an intercept,
// trend components (growth and changepoints), seasonal components and events.
type Forecast struct {
	opt    *options.Options
	scores *Scores // score calculations after training

	// model coefficients
	fLabels *feature.Labels

	trainStart time.Time
	trainEnd   time.Time
	interval   time.Duration
	yScale     float64

	residual        []float64
	trainComponents Components

	coef      []float64
	intercept float64
	trained   bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	if err := opt.HolidayOptions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid holiday options, %w", err)
	}

	return &Forecast{opt: opt.Clone()}, nil
}

// NewFromModel creates a new forecast instance given a forecast Model to initialize. This
// instance can be used for inference immediately and does not need to be trained again.
func NewFromModel(model Model) (*Forecast, error) {
	labels, err := model.Weights.FeatureLabels()
	if err != nil {
		return nil, fmt.Errorf("unable to restore feature labels, %w", err)
	}
	opt := model.Options
	if opt == nil {
		opt = options.NewDefaultOptions()
	}

	f := &Forecast{
		opt:        opt.Clone(),
		fLabels:    feature.NewLabels(labels),
		trainStart: model.TrainStartTime,
		trainEnd:   model.TrainEndTime,
		interval:   model.Interval,
		yScale:     model.YScale,
		intercept:  model.Weights.Intercept,
		coef:       model.Weights.Coefficients(),
		scores:     model.Scores,
		trained:    true,
	}
	return f, nil
}

func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	return f.opt.GenerateFeatures(t, f.trainStart, f.trainEnd, f.interval)
}

// Fit takes the input training data and fits a forecast model for growth, changepoints,
// seasonal components, events and intercept. Observations may be unordered and NaNs are
// ignored.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	cleaned := trainingData.DropNaN()
	if cleaned.Len() < MinTrainingObservations {
		return fmt.Errorf("got %d observations, need at least %d, %w",
			cleaned.Len(), MinTrainingObservations, ErrInsufficientTrainingData)
	}

	ts := timedataset.TimeSlice(cleaned.T)
	span := ts.Span()
	if span <= 0 {
		return ErrDegenerateSeries
	}
	interval, err := ts.EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to estimate sampling interval, %w", err)
	}

	f.trainStart = ts.StartTime()
	f.trainEnd = ts.EndTime()
	f.interval = interval

	opt := f.opt.Clone()
	opt.SeasonalityOptions = opt.SeasonalityOptions.Resolve(span, interval)
	opt.ChangepointOptions = opt.ChangepointOptions.Resolve(cleaned.T)
	f.opt = opt

	x, err := f.generateFeatures(cleaned.T)
	if err != nil {
		return err
	}
	x.RemoveZeroOnlyFeatures()
	f.fLabels = x.Labels()

	// fit on y scaled by its absolute max so regularization and tolerances are independent of
	// the series magnitude
	f.yScale = absMax(cleaned.Y)
	yScaled := make([]float64, len(cleaned.Y))
	floats.ScaleTo(yScaled, 1.0/f.yScale, cleaned.Y)

	intercept, coef, err := f.fitModel(x, yScaled)
	if err != nil {
		return err
	}
	f.intercept = intercept * f.yScale
	floats.Scale(f.yScale, coef)
	f.coef = coef
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(trainingData.T))
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

func (f *Forecast) fitModel(x *feature.Set, y []float64) (float64, []float64, error) {
	if x.Len() == 0 {
		return stat.Mean(y, nil), nil, nil
	}
	xMx := x.Matrix(false)
	m, n := xMx.Dims()
	yMx := mat.NewDense(len(y), 1, y)

	if f.opt.Regularization == 0 && m > n+1 {
		ols, err := models.NewOLSRegression(&models.OLSOptions{FitIntercept: true})
		if err != nil {
			return 0, nil, err
		}
		intercept, coef, err := models.FitWeights(ols, xMx, yMx)
		if err == nil {
			return intercept, coef, nil
		}
		slog.Debug("falling back to coordinate descent", "error", err.Error())
	}

	lasso, err := models.NewLassoRegression(f.opt.NewLassoOptions())
	if err != nil {
		return 0, nil, fmt.Errorf("unable to initialize lasso regression, %w", err)
	}
	intercept, coef, err := models.FitWeights(lasso, xMx, yMx)
	if err != nil {
		return 0, nil, fmt.Errorf("unable to fit lasso regression, %w", err)
	}
	return intercept, coef, nil
}

func absMax(y []float64) float64 {
	var res float64
	for _, v := range y {
		res = math.Max(res, math.Abs(v))
	}
	if res == 0 {
		return 1.0
	}
	return res
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}

	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, err
	}

	comp := Components{
		Trend:    f.runInference(len(t), x.FilterType(feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint), true),
		Seasonal: make(map[string][]float64),
		Event:    f.runInference(len(t), x.FilterType(feature.FeatureTypeEvent), false),
	}
	seasFeat := x.FilterType(feature.FeatureTypeSeasonality)
	comp.Seasonality = f.runInference(len(t), seasFeat, false)
	for _, name := range f.opt.SeasonalityOptions.Names() {
		comp.Seasonal[name] = f.runInference(len(t), filterSeasonality(seasFeat, name), false)
	}

	res := make([]float64, len(t))
	floats.Add(res, comp.Trend)
	floats.Add(res, comp.Seasonality)
	floats.Add(res, comp.Event)
	return res, comp, nil
}

// SeasonalityComponent evaluates a single named seasonality at the provided times
func (f *Forecast) SeasonalityComponent(name string, t []time.Time) ([]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}
	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, err
	}
	return f.runInference(len(t), filterSeasonality(x, name), false), nil
}

func filterSeasonality(x *feature.Set, name string) *feature.Set {
	return x.Filter(func(feat feature.Feature) bool {
		if feat.Type() != feature.FeatureTypeSeasonality {
			return false
		}
		val, _ := feat.Get("name")
		return val == name
	})
}

// runInference multiplies every trained feature present in x by its weight. Features the model
// was not trained on are ignored.
func (f *Forecast) runInference(n int, x *feature.Set, withIntercept bool) []float64 {
	res := make([]float64, n)
	if withIntercept {
		floats.AddConst(f.intercept, res)
	}
	for i, feat := range f.fLabels.Features() {
		data, exists := x.Get(feat)
		if !exists || len(data) != n {
			continue
		}
		floats.AddScaled(res, f.coef[i], data)
	}
	return res
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}

	return f.fLabels.Features()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.fLabels.Features()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	return f.intercept
}

// Options returns the resolved options of a trained forecast
func (f *Forecast) Options() *options.Options {
	if f == nil {
		return nil
	}
	return f.opt.Clone()
}

// TrainWindow returns the first and last training times
func (f *Forecast) TrainWindow() (time.Time, time.Time) {
	if f == nil {
		return time.Time{}, time.Time{}
	}
	return f.trainStart, f.trainEnd
}

// Interval returns the estimated sampling interval of the training data
func (f *Forecast) Interval() time.Duration {
	if f == nil {
		return 0
	}
	return f.interval
}

// Model returns the serializeable format of the forecast model composing of the
// forecast options, intercept, coefficients with their feature labels, and the
// model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	labels := f.fLabels.Features()
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	w := Weights{
		Intercept: f.intercept,
		Coef:      fws,
	}
	m := Model{
		TrainStartTime: f.trainStart,
		TrainEndTime:   f.trainEnd,
		Interval:       f.interval,
		YScale:         f.yScale,
		Options:        f.opt.Clone(),
		Weights:        w,
		Scores:         f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	eq := "y ~ "

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	eq += fmt.Sprintf("%.2f", f.Intercept())
	labels := f.fLabels.Features()
	for i := 0; i < len(f.coef); i++ {
		w := coef[labels[i].String()]
		if w == 0 {
			continue
		}
		eq += fmt.Sprintf("+%.2f*%s", w, labels[i])
	}
	return eq, nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil {
		return Scores{}
	}
	if f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the model on the training data
// which is determined by the intercept, growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// SeasonalityTotal represents the overall seasonal component of the model on the training data
func (f *Forecast) SeasonalityTotal() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Seasonality))
	copy(res, f.trainComponents.Seasonality)
	return res
}
