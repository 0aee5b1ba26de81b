package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRun(OutcomeOK)
	m.RecordRun(OutcomeOK)
	m.RecordRun(OutcomeEngineError)
	m.RecordStage("fit", time.Now())
	m.RecordInput(100, 30)
	m.RecordCommentaryRequest("2xx")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeEngineError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommentaryRequestsTotal.WithLabelValues("2xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Observations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))

	families, err := reg.Gather()
	require.Nil(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "revforecast_runs_total")
	assert.Contains(t, names, "revforecast_stage_duration_seconds")
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRun(OutcomeOK)
		m.RecordStage("fit", time.Now())
		m.RecordInput(1, 1)
		m.RecordCommentaryRequest("error")
	})
}
