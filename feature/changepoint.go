package feature

import (
	"fmt"
	"strings"
	"time"
)

type ChangepointComp string

const (
	ChangepointCompBias  ChangepointComp = "bias"
	ChangepointCompSlope ChangepointComp = "slope"
)

// Changepoint represents a point in time where the trend may jump (bias) or bend (slope)
type Changepoint struct {
	Name            string          `json:"name"`
	ChangepointComp ChangepointComp `json:"changepoint_component"`
}

func NewChangepoint(name string, comp ChangepointComp) *Changepoint {
	return &Changepoint{name, comp}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s_%s", c.Name, c.ChangepointComp)
}

func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	case "changepoint_component":
		return string(c.ChangepointComp), true
	}
	return "", false
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = c.Name
	res["changepoint_component"] = string(c.ChangepointComp)
	return res
}

// Generate computes the changepoint feature at chpt. The bias is a unit step at the
// changepoint and the slope is the time since the changepoint in units of the training window.
func (c Changepoint) Generate(t []time.Time, chpt, trainStart, trainEnd time.Time) []float64 {
	res := make([]float64, len(t))
	window := trainEnd.Sub(trainStart).Seconds()
	for i, tPnt := range t {
		if tPnt.Before(chpt) {
			continue
		}
		switch c.ChangepointComp {
		case ChangepointCompBias:
			res[i] = 1.0
		case ChangepointCompSlope:
			if window > 0 {
				res[i] = tPnt.Sub(chpt).Seconds() / window
			}
		}
	}
	return res
}
