package feature

import (
	"fmt"
	"strings"
	"time"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

// Growth represents the base level and overall trend of a series
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

// String returns the string representation of the growth feature
func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (g Growth) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return g.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

// Decode converts the feature into a map of label values
func (g Growth) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = g.Name
	return res
}

// Generate computes the growth values for each epoch second. Linear growth is measured in
// units of the training window so a value of 1 is reached at the training end time.
func (g Growth) Generate(epoch []float64, trainStart, trainEnd time.Time) []float64 {
	res := make([]float64, len(epoch))
	switch g.Name {
	case GrowthIntercept:
		for i := range res {
			res[i] = 1.0
		}
	case GrowthLinear:
		start := float64(trainStart.UnixNano()) / 1e9
		window := trainEnd.Sub(trainStart).Seconds()
		if window <= 0 {
			return res
		}
		for i, e := range epoch {
			res[i] = (e - start) / window
		}
	}
	return res
}
