// Package stats contains statistics over residual series
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DetectOutliers returns the indexes of points outside of the percentile range expanded by the
// tukey factor times the range. NaNs are ignored and never reported.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		yCopy = append(yCopy, v)
	}
	if len(yCopy) == 0 || lowerPerc >= upperPerc {
		return nil
	}
	sort.Float64s(yCopy)

	lower := stat.Quantile(lowerPerc, stat.Empirical, yCopy, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, yCopy, nil)
	innerRange := upper - lower
	if innerRange == 0 {
		return nil
	}
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// RollingStdDev computes the sample standard deviation of a trailing window ending at each point.
// NaNs are skipped and windows with fewer than two valid points produce NaN.
func RollingStdDev(y []float64, window int) []float64 {
	res := make([]float64, len(y))
	if window < 2 {
		window = 2
	}
	buf := make([]float64, 0, window)
	for i := range y {
		buf = buf[:0]
		for j := max(0, i-window+1); j <= i; j++ {
			if math.IsNaN(y[j]) {
				continue
			}
			buf = append(buf, y[j])
		}
		if len(buf) < 2 {
			res[i] = math.NaN()
			continue
		}
		res[i] = stat.StdDev(buf, nil)
	}
	return res
}

// CenteredRollingStdDev computes the sample standard deviation of a window centered on each
// point, shrinking the window at the edges of the series.
func CenteredRollingStdDev(y []float64, window int) []float64 {
	res := make([]float64, len(y))
	if window < 2 {
		window = 2
	}
	half := window / 2
	buf := make([]float64, 0, window+1)
	for i := range y {
		buf = buf[:0]
		start := max(0, i-half)
		end := min(len(y), start+window)
		start = max(0, end-window)
		for j := start; j < end; j++ {
			if math.IsNaN(y[j]) {
				continue
			}
			buf = append(buf, y[j])
		}
		if len(buf) < 2 {
			res[i] = math.NaN()
			continue
		}
		res[i] = stat.StdDev(buf, nil)
	}
	return res
}
