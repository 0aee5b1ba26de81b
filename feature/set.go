package feature

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Set maps each feature to its column of data. All columns share the same number of rows
// which is set by the first column inserted.
type Set struct {
	m   int
	set map[string][]float64
	fs  map[string]Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
		fs:  make(map[string]Feature),
	}
}

// Len returns the number of features in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.set)
}

// Rows returns the number of observations of each feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set stores the data for a feature, overwriting any previous data. Columns longer than the
// row count are truncated and shorter ones are padded with zeros.
func (s *Set) Set(f Feature, data []float64) *Set {
	if s.Len() == 0 {
		s.m = len(data)
	}
	col := make([]float64, s.m)
	copy(col, data)

	label := f.String()
	s.set[label] = col
	s.fs[label] = f
	return s
}

// Get returns the data of a feature and whether it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Del removes a feature from the set
func (s *Set) Del(f Feature) *Set {
	label := f.String()
	delete(s.set, label)
	delete(s.fs, label)
	if len(s.set) == 0 {
		s.m = 0
	}
	return s
}

// Update copies every feature of other into the set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, f := range other.Labels().Features() {
		data, _ := other.Get(f)
		s.Set(f, data)
	}
	return s
}

// Filter returns a new set containing the features matching the predicate
func (s *Set) Filter(keep func(Feature) bool) *Set {
	out := NewSet()
	if s == nil {
		return out
	}
	for _, f := range s.Labels().Features() {
		if !keep(f) {
			continue
		}
		data, _ := s.Get(f)
		out.Set(f, data)
	}
	return out
}

// FilterType returns a new set containing only features of the given types
func (s *Set) FilterType(ftypes ...FeatureType) *Set {
	return s.Filter(func(f Feature) bool {
		for _, ft := range ftypes {
			if f.Type() == ft {
				return true
			}
		}
		return false
	})
}

// RemoveZeroOnlyFeatures drops every feature whose column only contains zeros
func (s *Set) RemoveZeroOnlyFeatures() *Set {
	for label, data := range s.set {
		allZero := true
		for _, v := range data {
			if v != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			delete(s.set, label)
			delete(s.fs, label)
		}
	}
	return s
}

// Labels returns the features sorted by their string representation
func (s *Set) Labels() *Labels {
	if s == nil {
		return NewLabels(nil)
	}
	features := make([]Feature, 0, len(s.fs))
	for _, f := range s.fs {
		features = append(features, f)
	}
	sort.Slice(features, func(i, j int) bool {
		return features[i].String() < features[j].String()
	})
	return NewLabels(features)
}

// Matrix returns the design matrix with m rows of observations and n columns of features
// ordered by Labels. An optional leading column of ones is added for the intercept.
func (s *Set) Matrix(intercept bool) *mat.Dense {
	labels := s.Labels().Features()
	n := len(labels)
	if intercept {
		n += 1
	}
	if n == 0 || s.Rows() == 0 {
		return nil
	}
	m := s.m

	obs := make([]float64, m*n)
	featNum := 0
	if intercept {
		for i := 0; i < m; i++ {
			obs[n*i] = 1.0
		}
		featNum += 1
	}
	for _, f := range labels {
		data := s.set[f.String()]
		for i := 0; i < m; i++ {
			obs[n*i+featNum] = data[i]
		}
		featNum += 1
	}
	return mat.NewDense(m, n, obs)
}

// MatrixSlice returns the columns of the set ordered by Labels where each slice is a
// single feature
func (s *Set) MatrixSlice() [][]float64 {
	labels := s.Labels().Features()
	out := make([][]float64, 0, len(labels))
	for _, f := range labels {
		out = append(out, s.set[f.String()])
	}
	return out
}

// Labels tracks an ordered slice of features and their index locations that match up
// with the ordering of the coefficients assigned to each of these features.
type Labels struct {
	idx      map[string]int
	features []Feature
}

func NewLabels(features []Feature) *Labels {
	idx := make(map[string]int, len(features))
	for i, f := range features {
		idx[f.String()] = i
	}
	return &Labels{
		idx:      idx,
		features: features,
	}
}

func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.features)
}

// Features returns a copy of the ordered features
func (l *Labels) Features() []Feature {
	if l == nil {
		return nil
	}
	out := make([]Feature, len(l.features))
	copy(out, l.features)
	return out
}

func (l *Labels) Index(f Feature) (int, bool) {
	if l == nil {
		return -1, false
	}
	if i, exists := l.idx[f.String()]; exists {
		return i, true
	}
	return -1, false
}
