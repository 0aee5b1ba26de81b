package models

import (
	"testing"

	mat_ "github.com/aouyang1/go-revenue-forecaster/mat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLassoOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *LassoOptions
		err      error
		expected *LassoOptions
	}{
		"nil": {nil, nil, NewDefaultLassoOptions()},
		"valid": {
			&LassoOptions{
				Lambda:     1.0,
				Iterations: 100,
				Tolerance:  1e-5,
			}, nil,
			&LassoOptions{
				Lambda:     1.0,
				Iterations: 100,
				Tolerance:  1e-5,
			},
		},
		"invalid lambda": {
			&LassoOptions{Lambda: -1.0},
			ErrNegativeLambda, nil,
		},
		"invalid iterations": {
			&LassoOptions{Iterations: -1},
			ErrNegativeIterations, nil,
		},
		"invalid tolerance": {
			&LassoOptions{Tolerance: -1.0},
			ErrNegativeTolerance, nil,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestLassoRegression(t *testing.T) {
	// y = 2 + 3*x0 + 4*x1
	tol := 1e-4
	desTol := 1e-9
	lambda := 0.0
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *LassoOptions
		intercept float64
		coef      []float64
	}{
		"model intercept": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y: []float64{2, 31, 109, 62, 87},
			opt: &LassoOptions{
				Lambda:       lambda,
				Iterations:   100000,
				Tolerance:    desTol,
				FitIntercept: true,
			},
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"model no intercept": {
			x: [][]float64{
				{1, 0, 0},
				{1, 3, 5},
				{1, 9, 20},
				{1, 12, 6},
				{1, 15, 10},
			},
			y: []float64{2, 31, 109, 62, 87},
			opt: &LassoOptions{
				Lambda:     lambda,
				Iterations: 100000,
				Tolerance:  desTol,
			},
			intercept: 0.0,
			coef:      []float64{2.0, 3.0, 4.0},
		},
		"model constant": {
			x: [][]float64{
				{1},
				{1},
				{1},
				{1},
				{1},
			},
			y: []float64{3, 3, 3, 3, 3},
			opt: &LassoOptions{
				Lambda:     lambda,
				Iterations: 100,
				Tolerance:  desTol,
			},
			intercept: 0.0,
			coef:      []float64{3.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := mat_.NewDenseFromArray(td.x)
			require.Nil(t, err)

			y := mat.NewDense(len(td.y), 1, td.y)

			model, err := NewLassoRegression(td.opt)
			require.Nil(t, err)

			testModel(t, model, x, y, td.intercept, td.coef, tol)
		})
	}
}

func TestLassoRegressionShrinksIrrelevantFeature(t *testing.T) {
	// second column is noise unrelated to y
	x, err := mat_.NewDenseFromArray([][]float64{
		{0, 0.1},
		{1, -0.1},
		{2, 0.1},
		{3, -0.1},
		{4, 0.1},
		{5, -0.1},
	})
	require.Nil(t, err)
	y := mat.NewDense(6, 1, []float64{10, 12, 14, 16, 18, 20})

	model, err := NewLassoRegression(&LassoOptions{
		Lambda:       1.0,
		Iterations:   10000,
		Tolerance:    1e-9,
		FitIntercept: true,
	})
	require.Nil(t, err)
	require.Nil(t, model.Fit(x, y))

	coef := model.Coef()
	assert.Equal(t, 0.0, coef[1])
	assert.Greater(t, coef[0], 1.5)
}

func TestLassoRegressionZeroColumn(t *testing.T) {
	x, err := mat_.NewDenseFromArray([][]float64{
		{1, 0},
		{2, 0},
		{3, 0},
	})
	require.Nil(t, err)
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	model, err := NewLassoRegression(&LassoOptions{
		Iterations: 1000,
		Tolerance:  1e-9,
	})
	require.Nil(t, err)
	require.Nil(t, model.Fit(x, y))
	assert.InDeltaSlice(t, []float64{2, 0}, model.Coef(), 1e-9)
}

func TestLassoRegressionWarmStartSize(t *testing.T) {
	model, err := NewLassoRegression(&LassoOptions{
		WarmStartBeta: []float64{1},
		Iterations:    10,
		FitIntercept:  true,
	})
	require.Nil(t, err)

	x := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{1, 2})
	assert.ErrorIs(t, model.Fit(x, y), ErrWarmStartBetaSize)
}

func BenchmarkLassoRegression(b *testing.B) {
	x, y, err := generateBenchData(1000, 20)
	require.Nil(b, err)

	model, err := NewLassoRegression(&LassoOptions{
		Lambda:       0.0,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		FitIntercept: true,
	})
	require.Nil(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = model.Fit(x, y)
	}
}
