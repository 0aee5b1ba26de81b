package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectOutliers(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		lower    float64
		upper    float64
		tukey    float64
		expected []int
	}{
		"empty": {
			lower: 0.25, upper: 0.75, tukey: 1.5,
		},
		"all nan": {
			y:     []float64{math.NaN(), math.NaN()},
			lower: 0.25, upper: 0.75, tukey: 1.5,
		},
		"constant": {
			y:     []float64{1, 1, 1, 1},
			lower: 0.25, upper: 0.75, tukey: 1.5,
		},
		"single spike": {
			y:        []float64{1, 2, 1, 2, 1, 2, 1, 2, 50, 1},
			lower:    0.25, upper: 0.75, tukey: 1.5,
			expected: []int{8},
		},
		"spikes both sides with nan": {
			y:        []float64{-50, 1, 2, math.NaN(), 1, 2, 1, 2, 50, 1},
			lower:    0.25, upper: 0.75, tukey: 1.5,
			expected: []int{0, 8},
		},
		"full range never flags": {
			y:     []float64{1, 2, 3, 100},
			lower: 0.0, upper: 1.0, tukey: 0.0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := DetectOutliers(td.y, td.lower, td.upper, td.tukey)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestRollingStdDev(t *testing.T) {
	y := []float64{1, 3, math.NaN(), 5, 7}
	res := RollingStdDev(y, 2)
	assert.True(t, math.IsNaN(res[0]))
	assert.InDelta(t, math.Sqrt2, res[1], 1e-9)
	assert.True(t, math.IsNaN(res[2]))
	assert.True(t, math.IsNaN(res[3]))
	assert.InDelta(t, math.Sqrt2, res[4], 1e-9)
}

func TestCenteredRollingStdDev(t *testing.T) {
	y := []float64{1, 3, 5, 7, 9}
	res := CenteredRollingStdDev(y, 3)
	assert.Len(t, res, 5)
	for _, v := range res {
		assert.InDelta(t, 2.0, v, 1e-9)
	}
}
