package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aouyang1/go-revenue-forecaster/internal/chart"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/labstack/echo/v4"
)

const formFile = "file"

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, templateIndex, indexData{
		Months:    s.defaultMonths(),
		MaxMonths: MaxMonths,
	})
}

// handleForecastPage renders the dashboard. Failures render the dashboard with only the error so
// a failed run never shows partial results.
func (s *Server) handleForecastPage(c echo.Context) error {
	data := dashboardData{
		Months:    s.defaultMonths(),
		MaxMonths: MaxMonths,
	}

	report, err := s.run(c)
	if err != nil {
		status, msg := statusFor(err)
		data.Error = msg
		return c.Render(status, templateDashboard, data)
	}

	var chartHTML bytes.Buffer
	if err := chart.RenderHTML(&chartHTML, report.Dataset.Points, report.Forecast); err != nil {
		s.logger.Error("unable to render chart", "run_id", report.RunID, "error", err.Error())
		data.Error = "unable to render chart"
		return c.Render(http.StatusInternalServerError, templateDashboard, data)
	}

	data.Months = (report.Days + DaysPerMonth - 1) / DaysPerMonth
	data.Report = report
	data.RawPreview = report.Dataset.Raw
	data.Normalized = report.Dataset.Preview(s.previewRows())
	data.ChartHTML = chartHTML.String()
	return c.Render(http.StatusOK, templateDashboard, data)
}

func (s *Server) handleForecastAPI(c echo.Context) error {
	report, err := s.run(c)
	if err != nil {
		status, msg := statusFor(err)
		return echo.NewHTTPError(status, msg).SetInternal(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) run(c echo.Context) (*pipeline.Report, error) {
	days, err := s.parseHorizon(c)
	if err != nil {
		return nil, err
	}

	fh, err := c.FormFile(formFile)
	if err != nil {
		return nil, &uploadError{err: err}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, &uploadError{err: err}
	}
	defer f.Close()

	return s.runner.Run(c.Request().Context(), f, days)
}

// parseHorizon reads days, or months converted to days, from the form
func (s *Server) parseHorizon(c echo.Context) (int, error) {
	if v := c.FormValue("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("days %q is not an integer, %w", v, pipeline.ErrInvalidHorizon)
		}
		return days, nil
	}
	if v := c.FormValue("months"); v != "" {
		months, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("months %q is not an integer, %w", v, pipeline.ErrInvalidHorizon)
		}
		if months < 0 || months > MaxMonths {
			return 0, fmt.Errorf("got %d months, must be between 0 and %d, %w", months, MaxMonths, pipeline.ErrInvalidHorizon)
		}
		return months * DaysPerMonth, nil
	}
	return s.opt.DefaultDays, nil
}

// previewRows returns the preview bound where a negative bound previews every row
func (s *Server) previewRows() int {
	if s.opt.PreviewRows <= 0 {
		return -1
	}
	return s.opt.PreviewRows
}

func (s *Server) defaultMonths() int {
	if s.opt.DefaultDays <= 0 {
		return DefaultMonths
	}
	return (s.opt.DefaultDays + DaysPerMonth - 1) / DaysPerMonth
}

// uploadError is returned when the request carries no readable file
type uploadError struct {
	err error
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("unable to read uploaded file, %v", e.err)
}

func (e *uploadError) Unwrap() error {
	return e.err
}

// statusFor maps a run error to a status code and a message safe to show the user
func statusFor(err error) (int, string) {
	var (
		upErr      *uploadError
		engineErr  *pipeline.ForecastEngineError
		commentErr *pipeline.CommentaryAPIError
		httpErr    *echo.HTTPError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	case errors.As(err, &upErr):
		return http.StatusBadRequest, "a workbook must be uploaded in the file field"
	case pipeline.IsInputError(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &engineErr):
		return http.StatusInternalServerError, engineErr.Error()
	case errors.As(err, &commentErr):
		return http.StatusBadGateway, commentErr.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
