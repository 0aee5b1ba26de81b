package models

import (
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-revenue-forecaster/mat"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SoftThreshold returns 0.0 if the value is less than or equal to the gamma input
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}

func validateXY(x, y mat.Matrix) (int, int, error) {
	if x == nil {
		return 0, 0, ErrNoTrainingMatrix
	}
	if y == nil {
		return 0, 0, ErrNoTargetMatrix
	}
	m, n := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return 0, 0, fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}
	return m, n, nil
}

func predict(x mat.Matrix, intercept float64, coef []float64) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != len(coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(coef), ErrFeatureLenMismatch)
	}
	res := make([]float64, m)
	if n == 0 {
		for i := range res {
			res[i] = intercept
		}
		return res, nil
	}
	var resVec mat.VecDense
	resVec.MulVec(x, mat.NewVecDense(n, coef))
	for i := 0; i < m; i++ {
		res[i] = resVec.AtVec(i) + intercept
	}
	return res, nil
}

// score computes the coefficient of determination. A perfect fit of a constant target
// returns 1.
func score(model Model, x, y mat.Matrix) (float64, error) {
	if _, _, err := validateXY(x, y); err != nil {
		return 0.0, err
	}
	res, err := model.Predict(x)
	if err != nil {
		return 0.0, err
	}
	ySlice := mat.Col(nil, 0, y)
	r2 := stat.RSquaredFrom(res, ySlice, nil)
	if math.IsNaN(r2) {
		r2 = 1.0
	}
	return r2, nil
}

func withIntercept(x mat.Matrix, fitIntercept bool) mat.Matrix {
	if !fitIntercept {
		return x
	}
	return mat_.WithIntercept(x)
}
