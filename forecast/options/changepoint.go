package options

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/feature"
	"github.com/aouyang1/go-revenue-forecaster/forecast/util"
	"github.com/aouyang1/go-revenue-forecaster/timedataset"
)

var (
	DefaultAutoNumChangepoints         = 25
	DefaultAutoRange           float64 = 0.8
)

// Changepoint describes a point in time that will change the ongoing trend
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection
// by evenly placing N changepoints in the first AutoRange fraction of the training window or a
// list of known changepoints. Every changepoint adds a slope feature and, with EnableBias, a
// step feature.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	EnableBias          bool          `json:"enable_bias"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	AutoRange           float64       `json:"auto_range"`
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		AutoRange:           DefaultAutoRange,
	}
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(c.Changepoints) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tDatetime\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	} else if c.Auto {
		noCfg = fmt.Sprintf(" auto(%d)", c.AutoNumChangepoints)
	}
	fmt.Fprintf(w, "%s%sChangepoints:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg)
	for _, chpt := range c.Changepoints {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			chpt.Name, chpt.T.Format(time.RFC3339))
	}
	return tbl.Flush()
}

// Resolve returns the changepoint options with automatic changepoints materialized from the
// training times. Manual options are returned unchanged.
func (c ChangepointOptions) Resolve(t []time.Time) ChangepointOptions {
	if !c.Auto {
		return c
	}
	out := c
	out.Auto = false
	out.Changepoints = c.GenerateAutoChangepoints(t)
	return out
}

// GenerateAutoChangepoints places changepoints evenly by index over the first AutoRange fraction
// of the distinct training times, never on the first time. The number of changepoints is capped
// by the number of available times.
func (c ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	n := c.AutoNumChangepoints
	if n <= 0 {
		n = DefaultAutoNumChangepoints
	}
	autoRange := c.AutoRange
	if autoRange <= 0 || autoRange > 1 {
		autoRange = DefaultAutoRange
	}

	ds, err := timedataset.NewUnivariateDataset(t, make([]float64, len(t)))
	if err != nil {
		return nil
	}
	uniq := ds.UniqueT()

	histSize := int(math.Floor(float64(len(uniq)) * autoRange))
	if histSize < 2 {
		return nil
	}
	if n > histSize-1 {
		n = histSize - 1
	}

	chpts := make([]Changepoint, 0, n)
	step := float64(histSize-1) / float64(n)
	lastIdx := 0
	for i := 1; i <= n; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx <= lastIdx {
			continue
		}
		lastIdx = idx
		chpts = append(chpts, NewChangepoint(fmt.Sprintf("auto_%02d", len(chpts)), uniq[idx]))
	}
	return chpts
}

// GenerateFeatures creates the slope and optional bias features of every changepoint within the
// training window. Changepoints at or before the training start duplicate the growth features
// and changepoints after the training end cannot be fit, so both are skipped.
func (c ChangepointOptions) GenerateFeatures(t []time.Time, trainStart, trainEnd time.Time) *feature.Set {
	feat := feature.NewSet()
	for i, chpt := range c.Changepoints {
		if !chpt.T.After(trainStart) || chpt.T.After(trainEnd) {
			continue
		}
		name := chpt.Name
		if name == "" {
			name = fmt.Sprintf("%02d", i)
		}
		slopeFeat := feature.NewChangepoint(name, feature.ChangepointCompSlope)
		feat.Set(slopeFeat, slopeFeat.Generate(t, chpt.T, trainStart, trainEnd))

		if c.EnableBias {
			biasFeat := feature.NewChangepoint(name, feature.ChangepointCompBias)
			feat.Set(biasFeat, biasFeat.Generate(t, chpt.T, trainStart, trainEnd))
		}
	}
	return feat
}
