package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/engine"
	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/aouyang1/go-revenue-forecaster/internal/logger"
	"github.com/aouyang1/go-revenue-forecaster/internal/metrics"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubCommentator struct {
	calls atomic.Int32
}

func (s *stubCommentator) Comment(ctx context.Context, horizon []pipeline.ForecastPoint) (string, error) {
	s.calls.Add(1)
	return "Revenue grows steadily.", nil
}

type stubRunner struct {
	err  error
	days int
}

func (s *stubRunner) Run(ctx context.Context, input io.Reader, days int) (*pipeline.Report, error) {
	s.days = days
	return nil, s.err
}

func workbook(t *testing.T, header []any, n int) []byte {
	t.Helper()
	return workbookOf(t, header, n, func(i int) float64 { return 500.0 + 3.0*float64(i) })
}

func workbookOf(t *testing.T, header []any, n int, value func(i int) float64) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.Nil(t, f.SetSheetRow("Sheet1", "A1", &header))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		row := []any{day.AddDate(0, 0, i), value(i)}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		require.Nil(t, err)
		require.Nil(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.Nil(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile(formFile, "revenue.xlsx")
		require.Nil(t, err)
		_, err = fw.Write(file)
		require.Nil(t, err)
	}
	for k, v := range fields {
		require.Nil(t, mw.WriteField(k, v))
	}
	require.Nil(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestServer(t *testing.T, opt Options) (*Server, *stubCommentator) {
	t.Helper()
	e, err := engine.New(engine.NewDefaultOptions(), logger.Discard())
	require.Nil(t, err)

	reg := prometheus.NewRegistry()
	com := &stubCommentator{}
	p := pipeline.New(
		ingest.NewReader(ingest.NewDefaultOptions(), logger.Discard()),
		e,
		com,
		pipeline.Options{MaxDays: 720, Logger: logger.Discard(), Metrics: metrics.New(reg)},
	)
	return New(p, reg, opt, logger.Discard()), com
}

func TestHealthAndIndex(t *testing.T) {
	s, _ := newTestServer(t, Options{DefaultDays: 180})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="months"`)
	assert.Contains(t, rec.Body.String(), `value="6"`)
}

func TestForecastAPI(t *testing.T) {
	s, com := newTestServer(t, Options{DefaultDays: 180, MaxUploadBytes: 10 << 20})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/api/forecast", workbook(t, []any{"Date", "Revenue"}, 100), map[string]string{"days": "30"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report pipeline.Report
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 30, report.Days)
	assert.Len(t, report.Forecast.Points, 130)
	assert.Len(t, report.Tail, 30)
	assert.Equal(t, "Revenue grows steadily.", report.Commentary)
	assert.Equal(t, int32(1), com.calls.Load())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `revforecast_runs_total{outcome="ok"} 1`)
}

func TestForecastAPIConstantSeries(t *testing.T) {
	s, com := newTestServer(t, Options{DefaultDays: 180, MaxUploadBytes: 10 << 20})

	flat := workbookOf(t, []any{"Date", "Revenue"}, 100, func(int) float64 { return 500.0 })
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/api/forecast", flat, map[string]string{"days": "30"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report pipeline.Report
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Forecast.Points, 130)
	assert.GreaterOrEqual(t, report.Forecast.Scores.R2, 0.0)
	assert.LessOrEqual(t, report.Forecast.Scores.R2, 1.0)
	for _, p := range report.Tail {
		assert.InDelta(t, 500.0, p.Estimate, 1e-6)
	}
	assert.Equal(t, int32(1), com.calls.Load())
}

func TestForecastPage(t *testing.T) {
	s, _ := newTestServer(t, Options{DefaultDays: 180, PreviewRows: 5})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/forecast", workbook(t, []any{"Date", "Revenue"}, 60), map[string]string{"months": "1"}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{"Uploaded Data", "Normalized Data", "Forecast Results (30 days)", "<iframe srcdoc=", "Revenue grows steadily.", "2024-03-30"} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "Error:")
}

func TestForecastErrors(t *testing.T) {
	testData := map[string]struct {
		file     []byte
		fields   map[string]string
		status   int
		contains string
	}{
		"missing revenue column": {
			file:     []byte("placeholder"),
			fields:   map[string]string{"months": "6"},
			status:   http.StatusUnprocessableEntity,
			contains: "missing required column",
		},
		"no file": {
			fields:   map[string]string{"months": "6"},
			status:   http.StatusBadRequest,
			contains: "a workbook must be uploaded",
		},
		"invalid months": {
			file:     []byte("placeholder"),
			fields:   map[string]string{"months": "25"},
			status:   http.StatusUnprocessableEntity,
			contains: "invalid forecast horizon",
		},
		"days not a number": {
			file:     []byte("placeholder"),
			fields:   map[string]string{"days": "ten"},
			status:   http.StatusUnprocessableEntity,
			contains: "invalid forecast horizon",
		},
		"unreadable workbook": {
			file:     []byte("not a workbook"),
			status:   http.StatusUnprocessableEntity,
			contains: "unable to read input",
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, com := newTestServer(t, Options{DefaultDays: 30})
			file := td.file
			if string(file) == "placeholder" {
				file = workbook(t, []any{"Date", "Sales"}, 10)
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, "/forecast", file, td.fields))
			assert.Equal(t, td.status, rec.Code)
			assert.Contains(t, rec.Body.String(), td.contains)
			assert.NotContains(t, rec.Body.String(), "<iframe")
			assert.Equal(t, int32(0), com.calls.Load())
		})
	}
}

func TestStatusFor(t *testing.T) {
	testData := map[string]struct {
		err    error
		status int
	}{
		"engine":     {err: &pipeline.ForecastEngineError{Err: errors.New("singular")}, status: http.StatusInternalServerError},
		"commentary": {err: &pipeline.CommentaryAPIError{Err: errors.New("status 500")}, status: http.StatusBadGateway},
		"horizon":    {err: pipeline.ErrInvalidHorizon, status: http.StatusUnprocessableEntity},
		"canceled":   {err: context.Canceled, status: http.StatusServiceUnavailable},
		"unknown":    {err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			status, _ := statusFor(td.err)
			assert.Equal(t, td.status, status)
		})
	}
}

func TestForecastAPIErrorStatus(t *testing.T) {
	runner := &stubRunner{err: &pipeline.CommentaryAPIError{Err: errors.New("status 503")}}
	s := New(runner, prometheus.NewRegistry(), Options{DefaultDays: 90}, logger.Discard())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/api/forecast", []byte("x"), nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "commentary request failed")
	assert.Equal(t, 90, runner.days)
}

func TestRateLimit(t *testing.T) {
	testData := map[string]struct {
		rateLimit float64
		admitted  int
	}{
		"fractional rate admits one": {rateLimit: 0.5, admitted: 1},
		"slow rate admits one":       {rateLimit: 0.001, admitted: 1},
		"burst follows rate":         {rateLimit: 2, admitted: 2},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			runner := &stubRunner{err: pipeline.ErrInvalidHorizon}
			s := New(runner, prometheus.NewRegistry(), Options{DefaultDays: 90, RateLimit: td.rateLimit}, logger.Discard())

			codes := make([]int, 0, 3)
			for range 3 {
				rec := httptest.NewRecorder()
				s.Handler().ServeHTTP(rec, uploadRequest(t, "/api/forecast", []byte("x"), nil))
				codes = append(codes, rec.Code)
			}
			for i, code := range codes {
				if i < td.admitted {
					assert.Equal(t, http.StatusUnprocessableEntity, code)
					continue
				}
				assert.Equal(t, http.StatusTooManyRequests, code)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, prometheus.NewRegistry(), Options{DefaultDays: 90, MaxUploadBytes: 64}, logger.Discard())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "/api/forecast", bytes.Repeat([]byte("x"), 1024), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
