// Package timedataset holds univariate time series used to train and evaluate forecasts.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
)

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length. Points are always sorted by time.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice. The
// inputs are copied and sorted by time so callers may pass unordered observations. Points sharing
// the same timestamp keep their input order.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	idx := make([]int, len(t))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return t[idx[i]].Before(t[idx[j]])
	})

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	for i, j := range idx {
		tSeries[i] = t[j]
		ySeries[i] = y[j]
	}
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.T))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Len returns the number of points in the dataset including NaNs
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// DropNaN returns a new dataset without any NaN or infinite observations
func (td *TimeDataset) DropNaN() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, 0, len(td.T))
	ySeries := make([]float64, 0, len(td.Y))
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(td.Y[i]) || math.IsInf(td.Y[i], 0) {
			continue
		}
		tSeries = append(tSeries, td.T[i])
		ySeries = append(ySeries, td.Y[i])
	}
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// UniqueT returns the distinct timestamps of the dataset in increasing order
func (td *TimeDataset) UniqueT() TimeSlice {
	out := make([]time.Time, 0, len(td.T))
	for i, tPnt := range td.T {
		if i > 0 && tPnt.Equal(td.T[i-1]) {
			continue
		}
		out = append(out, tPnt)
	}
	return TimeSlice(out)
}
