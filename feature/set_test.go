package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSetSet(t *testing.T) {
	testData := map[string]struct {
		init     *Set
		f        Feature
		data     []float64
		expected []float64
		rows     int
	}{
		"initial set": {
			init:     NewSet(),
			f:        NewEvent("blargh"),
			data:     []float64{1, 2, 3, 4},
			expected: []float64{1, 2, 3, 4},
			rows:     4,
		},
		"set with less data": {
			init:     NewSet().Set(NewEvent("blargh"), []float64{1, 2, 3, 4}),
			f:        NewEvent("less"),
			data:     []float64{1, 2},
			expected: []float64{1, 2, 0, 0},
			rows:     4,
		},
		"set with more data": {
			init:     NewSet().Set(NewEvent("blargh"), []float64{1, 2}),
			f:        NewEvent("more"),
			data:     []float64{1, 2, 3},
			expected: []float64{1, 2},
			rows:     2,
		},
		"overwrite": {
			init:     NewSet().Set(NewEvent("blargh"), []float64{1, 2}),
			f:        NewEvent("blargh"),
			data:     []float64{3, 4},
			expected: []float64{3, 4},
			rows:     2,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := td.init.Set(td.f, td.data)
			res, exists := s.Get(td.f)
			require.True(t, exists)
			assert.Equal(t, td.expected, res)
			assert.Equal(t, td.rows, s.Rows())
		})
	}
}

func TestSetDelUpdate(t *testing.T) {
	s := NewSet().Set(NewEvent("a"), []float64{1, 2})
	s.Del(NewEvent("a"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Rows())

	other := NewSet().
		Set(NewEvent("b"), []float64{1, 2}).
		Set(Intercept(), []float64{1, 1})
	s.Update(other)
	assert.Equal(t, 2, s.Len())
	vals, exists := s.Get(NewEvent("b"))
	require.True(t, exists)
	assert.Equal(t, []float64{1, 2}, vals)
}

func TestSetFilterType(t *testing.T) {
	s := NewSet().
		Set(NewEvent("b"), []float64{1, 2}).
		Set(Linear(), []float64{0, 1}).
		Set(NewSeasonality("epoch_weekly", FourierCompSin, 1), []float64{0, 1})

	res := s.FilterType(FeatureTypeGrowth, FeatureTypeEvent)
	assert.Equal(t, 2, res.Len())
	_, exists := res.Get(NewSeasonality("epoch_weekly", FourierCompSin, 1))
	assert.False(t, exists)
}

func TestLabelsOrder(t *testing.T) {
	s := NewSet().
		Set(NewSeasonality("epoch_weekly", FourierCompSin, 1), []float64{0}).
		Set(NewEvent("b"), []float64{0}).
		Set(Linear(), []float64{0})

	labels := s.Labels()
	expected := []Feature{
		NewEvent("b"),
		Linear(),
		NewSeasonality("epoch_weekly", FourierCompSin, 1),
	}
	assert.Equal(t, expected, labels.Features())

	idx, exists := labels.Index(Linear())
	assert.True(t, exists)
	assert.Equal(t, 1, idx)

	_, exists = labels.Index(Intercept())
	assert.False(t, exists)
}

func TestMatrix(t *testing.T) {
	testData := map[string]struct {
		init      *Set
		intercept bool
		expected  *mat.Dense
	}{
		"empty": {
			init:     NewSet(),
			expected: nil,
		},
		"no intercept": {
			init: NewSet().
				Set(NewEvent("a"), []float64{1, 2, 3}).
				Set(NewEvent("b"), []float64{4, 5, 6}),
			expected: mat.NewDense(3, 2, []float64{
				1, 4,
				2, 5,
				3, 6,
			}),
		},
		"with intercept": {
			init: NewSet().
				Set(NewEvent("a"), []float64{1, 2, 3}).
				Set(NewEvent("b"), []float64{4, 5, 6}),
			intercept: true,
			expected: mat.NewDense(3, 3, []float64{
				1, 1, 4,
				1, 2, 5,
				1, 3, 6,
			}),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.init.Matrix(td.intercept)
			if td.expected == nil {
				assert.Nil(t, res)
				return
			}
			assert.True(t, mat.Equal(td.expected, res))
		})
	}
}

func TestMatrixSlice(t *testing.T) {
	s := NewSet().
		Set(NewEvent("b"), []float64{4, 5}).
		Set(NewEvent("a"), []float64{1, 2})
	assert.Equal(t, [][]float64{{1, 2}, {4, 5}}, s.MatrixSlice())
}

func TestRemoveZeroOnlyFeatures(t *testing.T) {
	s := NewSet().Set(
		NewTime("valid"), []float64{0, 1, 0},
	).Set(
		NewTime("only_zeros_1"), []float64{0, 0, 0},
	).Set(
		NewTime("only_zeros_2"), []float64{0, 0, 0},
	)
	s.RemoveZeroOnlyFeatures()

	vals, exists := s.Get(NewTime("valid"))
	assert.True(t, exists)
	assert.Equal(t, []float64{0, 1, 0}, vals)

	_, exists = s.Get(NewTime("only_zeros_1"))
	assert.False(t, exists)
	_, exists = s.Get(NewTime("only_zeros_2"))
	assert.False(t, exists)
}
