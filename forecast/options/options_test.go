package options

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/feature"
	"github.com/aouyang1/go-revenue-forecaster/models"
	"github.com/aouyang1/go-revenue-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLassoOptions(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		expected *models.LassoOptions
	}{
		"defaults": {
			opt: &Options{},
			expected: &models.LassoOptions{
				Lambda:       0.0,
				FitIntercept: true,
				Iterations:   models.DefaultIterations,
				Tolerance:    models.DefaultTolerance,
			},
		},
		"with overrides": {
			opt: &Options{
				Regularization: 2.0,
				Iterations:     3,
				Tolerance:      1e-1,
			},
			expected: &models.LassoOptions{
				Lambda:       2.0,
				FitIntercept: true,
				Iterations:   3,
				Tolerance:    1e-1,
			},
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.opt.NewLassoOptions())
		})
	}
}

func TestClone(t *testing.T) {
	opt := NewDefaultOptions()
	opt.EventOptions.Events = []Event{NewEvent("e", time.Unix(0, 0), time.Unix(1, 0))}

	cloned := opt.Clone()
	require.Equal(t, opt, cloned)

	cloned.SeasonalityOptions.SeasonalityConfigs[0].Orders = 100
	cloned.EventOptions.Events[0].Name = "other"
	assert.NotEqual(t, opt.SeasonalityOptions.SeasonalityConfigs[0].Orders, 100)
	assert.Equal(t, "e", opt.EventOptions.Events[0].Name)

	var nilOpt *Options
	assert.Nil(t, nilOpt.Clone())
}

func TestGenerateFeatures(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	tSeries := timedataset.GenerateDailyT(30, start)

	opt := &Options{
		GrowthType: feature.GrowthLinear,
		ChangepointOptions: ChangepointOptions{
			Changepoints: []Changepoint{NewChangepoint("c", tSeries[10])},
		},
		SeasonalityOptions: SeasonalityOptions{
			SeasonalityConfigs: []SeasonalityConfig{NewWeeklySeasonalityConfig(2)},
		},
		EventOptions: EventOptions{
			Events: []Event{NewEvent("promo", tSeries[5], tSeries[7])},
		},
	}
	x, err := opt.GenerateFeatures(tSeries, tSeries[0], tSeries[29], Day)
	require.Nil(t, err)

	expected := []string{
		"chpnt_c_slope",
		"event_promo",
		"growth_linear",
		"seas_weekly_01_cos",
		"seas_weekly_01_sin",
		"seas_weekly_02_cos",
		"seas_weekly_02_sin",
	}
	labels := x.Labels().Features()
	got := make([]string, 0, len(labels))
	for _, f := range labels {
		got = append(got, f.String())
	}
	assert.Equal(t, expected, got)
	assert.Equal(t, 30, x.Rows())

	growth, _ := x.Get(feature.Linear())
	assert.InDelta(t, 0.0, growth[0], 1e-9)
	assert.InDelta(t, 1.0, growth[29], 1e-9)
}

func TestGenerateFeaturesUnsupportedHolidays(t *testing.T) {
	opt := NewDefaultOptions()
	opt.HolidayOptions.Country = "XX"
	tSeries := timedataset.GenerateDailyT(3, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := opt.GenerateFeatures(tSeries, tSeries[0], tSeries[2], Day)
	assert.ErrorIs(t, err, ErrUnsupportedCountry)
}

func TestOptionsTablePrint(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, NewDefaultOptions().TablePrint(&buf, "", "  ", 0))
	out := buf.String()
	assert.Contains(t, out, "Growth: linear")
	assert.Contains(t, out, "Changepoints: auto(25)")
	assert.Contains(t, out, "Holidays: None")
	assert.Contains(t, out, "weekly")
}
