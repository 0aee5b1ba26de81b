// Package models holds the regressions the forecast fits its feature matrix with
package models

import (
	"gonum.org/v1/gonum/mat"
)

// Model is a fitted linear regression. The intercept is reported separately from the feature
// coefficients so callers can attribute it to the trend.
type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// FitWeights fits the model and returns its intercept and coefficients
func FitWeights(m Model, x, y mat.Matrix) (float64, []float64, error) {
	if err := m.Fit(x, y); err != nil {
		return 0, nil, err
	}
	return m.Intercept(), m.Coef(), nil
}
