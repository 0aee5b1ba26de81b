package options

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/feature"
	"github.com/aouyang1/go-revenue-forecaster/forecast/util"
)

const (
	LabelSeasDaily  = "daily"
	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"

	DefaultDailyOrders  = 4
	DefaultWeeklyOrders = 3
	DefaultYearlyOrders = 10

	Day  = 24 * time.Hour
	Week = 7 * Day
	Year = time.Duration(365.25 * float64(Day))
)

var ErrNoSeasonalityName = errors.New("seasonality config has no name")

// SeasonalityOptions configures the number of seasonality components to fit for. With Auto set,
// the default daily, weekly and yearly configs are only used when the training data can support
// them.
type SeasonalityOptions struct {
	Auto               bool                `json:"auto"`
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

// NewDefaultSeasonalityOptions generates a default seasonality config with daily, weekly and
// yearly components chosen automatically from the history
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		Auto: true,
		SeasonalityConfigs: []SeasonalityConfig{
			NewDailySeasonalityConfig(DefaultDailyOrders),
			NewWeeklySeasonalityConfig(DefaultWeeklyOrders),
			NewYearlySeasonalityConfig(DefaultYearlyOrders),
		},
	}
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(s.SeasonalityConfigs) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tPeriod\tOrders\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	}
	fmt.Fprintf(w, "%s%sSeasonality:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg)
	for _, seasCfg := range s.SeasonalityConfigs {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t%d\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			seasCfg.Name, seasCfg.Period, seasCfg.Orders)
	}
	return tbl.Flush()
}

// Resolve returns the seasonality options applicable to a history with the given span and
// sampling interval. Duplicate periods are removed and auto mode drops the daily, weekly and
// yearly configs the history cannot support. The result has Auto disabled so it can be reused
// for inference without being resolved again.
func (s SeasonalityOptions) Resolve(span, interval time.Duration) SeasonalityOptions {
	cfgs := removeDuplicates(s.SeasonalityConfigs)
	if !s.Auto {
		return SeasonalityOptions{SeasonalityConfigs: cfgs}
	}

	resolved := make([]SeasonalityConfig, 0, len(cfgs))
	for _, cfg := range cfgs {
		switch cfg.Name {
		case LabelSeasYearly:
			if span < 2*Year {
				continue
			}
		case LabelSeasWeekly:
			if span < 2*Week {
				continue
			}
		case LabelSeasDaily:
			if interval <= 0 || interval >= Day {
				continue
			}
		}
		resolved = append(resolved, cfg)
	}
	return SeasonalityOptions{SeasonalityConfigs: resolved}
}

// Names returns the names of every configured seasonality
func (s SeasonalityOptions) Names() []string {
	names := make([]string, 0, len(s.SeasonalityConfigs))
	for _, cfg := range s.SeasonalityConfigs {
		names = append(names, cfg.Name)
	}
	return names
}

// GenerateFourierFeatures creates the sine and cosine terms of every configured seasonality.
// Orders that repeat the frequency of a shorter period config or that cannot be sampled at the
// given interval are skipped.
func (s SeasonalityOptions) GenerateFourierFeatures(epoch []float64, interval time.Duration) (*feature.Set, error) {
	x := feature.NewSet()
	cfgs := removeDuplicates(s.SeasonalityConfigs)
	for i, seasCfg := range cfgs {
		if seasCfg.Name == "" {
			return nil, ErrNoSeasonalityName
		}
		orders := seasCfg.validOrders(cfgs[:i], interval)
		period := seasCfg.Period.Seconds()
		for _, order := range orders {
			sinFeat := feature.NewSeasonality(seasCfg.Name, feature.FourierCompSin, order)
			cosFeat := feature.NewSeasonality(seasCfg.Name, feature.FourierCompCos, order)
			x.Set(sinFeat, sinFeat.Generate(epoch, order, period))
			x.Set(cosFeat, cosFeat.Generate(epoch, order, period))
		}
	}
	return x, nil
}

// removeDuplicates sorts configs by period and keeps the config with the most orders for each
// period
func removeDuplicates(cfgs []SeasonalityConfig) []SeasonalityConfig {
	sorted := make([]SeasonalityConfig, len(cfgs))
	copy(sorted, cfgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Period != sorted[j].Period {
			return sorted[i].Period < sorted[j].Period
		}
		if sorted[i].Orders != sorted[j].Orders {
			return sorted[i].Orders > sorted[j].Orders
		}
		return sorted[i].Name < sorted[j].Name
	})

	out := make([]SeasonalityConfig, 0, len(sorted))
	var lastValidPeriod time.Duration
	for _, seasCfg := range sorted {
		if seasCfg.Period > 0 && seasCfg.Period > lastValidPeriod && seasCfg.Orders > 0 {
			out = append(out, seasCfg)
			lastValidPeriod = seasCfg.Period
		}
	}
	return out
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 24*time.Hour
// with 3 orders will create 6 Fourier series of order 1, 2, 3 and for the sine/cosine components
// where order 1 will have a period of 1 day and order 2 will have a period of 12 hours.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewDailySeasonalityConfig creates a daily seasonality config given a specified number of orders
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, Day, orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, Week, orders)
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, Year, orders)
}

// validOrders returns the orders that are neither colinear with an order of a shorter period
// config nor faster than half the sampling interval
func (s SeasonalityConfig) validOrders(shorter []SeasonalityConfig, interval time.Duration) []int {
	orders := make([]int, 0, s.Orders)
	for k := 1; k <= s.Orders; k++ {
		if interval > 0 && s.Period/time.Duration(k) < 2*interval {
			continue
		}
		if s.colinear(k, shorter) {
			continue
		}
		orders = append(orders, k)
	}
	return orders
}

// colinear reports whether order k of this config has the same frequency as some order of a
// shorter period config, i.e. k/P == j/Q for an integer j within Q's orders
func (s SeasonalityConfig) colinear(k int, shorter []SeasonalityConfig) bool {
	for _, other := range shorter {
		num := int64(k) * int64(other.Period)
		if num%int64(s.Period) != 0 {
			continue
		}
		j := num / int64(s.Period)
		if j >= 1 && j <= int64(other.Orders) {
			return true
		}
	}
	return false
}
