package forecaster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

var benchPredictRes *Results

func BenchmarkTrainToModel(b *testing.B) {
	t, y := generateRevenue(3*365, 7)
	opt := NewDefaultOptions()
	opt.OutlierOptions = NewOutlierOptions()

	var f *Forecaster
	var err error

	b.ResetTimer()
	for b.Loop() {
		f, err = New(opt)
		if err != nil {
			panic(err)
		}

		if err := f.Fit(t, y); err != nil {
			panic(err)
		}
	}

	m, err := f.Model()
	if err != nil {
		panic(err)
	}

	bytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile(filepath.Join(b.TempDir(), "benchmark_model.json"), bytes, 0o644); err != nil {
		panic(err)
	}
}

func BenchmarkPredictFromModel(b *testing.B) {
	t, y := generateRevenue(3*365, 8)
	f, err := New(nil)
	if err != nil {
		panic(err)
	}
	if err := f.Fit(t, y); err != nil {
		panic(err)
	}
	m, err := f.Model()
	if err != nil {
		panic(err)
	}

	bytes, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	var model Model
	if err := json.Unmarshal(bytes, &model); err != nil {
		panic(err)
	}
	restored, err := NewFromModel(model)
	if err != nil {
		panic(err)
	}

	input := t[len(t)-180:]
	b.ResetTimer()
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(b.TempDir()), profile.Quiet).Stop()
	for b.Loop() {
		benchPredictRes, err = restored.Predict(input)
		if err != nil {
			panic(err)
		}
	}
}
