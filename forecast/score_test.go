package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScores(t *testing.T) {
	testData := map[string]struct {
		predicted []float64
		actual    []float64
		expected  *Scores
		err       error
	}{
		"length mismatch": {
			predicted: []float64{1},
			actual:    []float64{1, 2},
			err:       ErrResLenMismatch,
		},
		"perfect": {
			predicted: []float64{1, 2, 3},
			actual:    []float64{1, 2, 3},
			expected:  &Scores{MSE: 0, MAPE: 0, R2: 1},
		},
		"skips nan and zero": {
			predicted: []float64{2, 2, 0, 5},
			actual:    []float64{1, math.NaN(), 0, 5},
			expected:  &Scores{MSE: 1.0 / 3.0, MAPE: 0.5, R2: 1.0 - 1.0/14.0},
		},
		"constant actual exact fit": {
			predicted: []float64{500, 500, 500},
			actual:    []float64{500, 500, 500},
			expected:  &Scores{MSE: 0, MAPE: 0, R2: 1},
		},
		"constant actual with error": {
			predicted: []float64{499, 500, 501},
			actual:    []float64{500, 500, 500},
			expected:  &Scores{MSE: 2.0 / 3.0, MAPE: 2.0 / 1500.0, R2: 0},
		},
		"single point": {
			predicted: []float64{3},
			actual:    []float64{3},
			expected:  &Scores{MSE: 0, MAPE: 0, R2: 1},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := NewScores(td.predicted, td.actual)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected.MSE, res.MSE, 1e-9)
			assert.InDelta(t, td.expected.MAPE, res.MAPE, 1e-9)
			assert.InDelta(t, td.expected.R2, res.R2, 1e-9)
		})
	}
}
