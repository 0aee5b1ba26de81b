package feature

import (
	"fmt"
	"strings"
	"time"
)

// Event feature representing a span of time where we expect a level shift in the series
// such as a holiday.
type Event struct {
	Name string `json:"name"`
}

// NewEvent creates a new event instance given a name
func NewEvent(name string) *Event {
	return &Event{name}
}

// String returns the string representation of the event feature
func (e Event) String() string {
	return fmt.Sprintf("event_%s", e.Name)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (e Event) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return e.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (e Event) Type() FeatureType {
	return FeatureTypeEvent
}

// Decode converts the feature into a map of label values
func (e Event) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = e.Name
	return res
}

// Span is a half open time range [Start, End)
type Span struct {
	Start time.Time
	End   time.Time
}

// Generate returns a mask of 1 for each time within any of the spans and 0 otherwise
func (e Event) Generate(t []time.Time, spans []Span) []float64 {
	res := make([]float64, len(t))
	for i, tPnt := range t {
		for _, s := range spans {
			if (tPnt.Equal(s.Start) || tPnt.After(s.Start)) && tPnt.Before(s.End) {
				res[i] = 1.0
				break
			}
		}
	}
	return res
}
