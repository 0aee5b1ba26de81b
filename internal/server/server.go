// Package server exposes the forecast pipeline over HTTP: an upload form, a rendered dashboard,
// a JSON API, health and metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	DefaultMonths   = 6
	MaxMonths       = 24
	DaysPerMonth    = 30
	shutdownTimeout = 10 * time.Second
)

// Runner runs a single upload through the forecast pipeline
type Runner interface {
	Run(ctx context.Context, input io.Reader, days int) (*pipeline.Report, error)
}

// Options configures the HTTP surface
type Options struct {
	Addr           string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// RateLimit is the sustained forecast requests per second allowed per client. 0 disables it.
	RateLimit float64

	// DefaultDays is used when a form carries neither days nor months
	DefaultDays int
	// PreviewRows bounds the raw and normalized tables on the dashboard
	PreviewRows int
}

// Server owns the echo instance and its routes
type Server struct {
	echo   *echo.Echo
	runner Runner
	opt    Options
	logger *slog.Logger
}

// New registers every route. A nil gatherer serves the default prometheus registry.
func New(runner Runner, gatherer prometheus.Gatherer, opt Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Renderer = newTemplateRenderer()

	s := &Server{
		echo:   e,
		runner: runner,
		opt:    opt,
		logger: logger,
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				logger.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	forecastMiddleware := []echo.MiddlewareFunc{}
	if opt.MaxUploadBytes > 0 {
		forecastMiddleware = append(forecastMiddleware, middleware.BodyLimit(strconv.FormatInt(opt.MaxUploadBytes, 10)+"B"))
	}
	if opt.RateLimit > 0 {
		forecastMiddleware = append(forecastMiddleware, middleware.RateLimiter(rateLimiterStore(opt.RateLimit)))
	}
	e.POST("/forecast", s.handleForecastPage, forecastMiddleware...)
	e.POST("/api/forecast", s.handleForecastAPI, forecastMiddleware...)
	return s
}

// rateLimiterStore keeps a per client token bucket. The burst is at least one request so rates
// below one per second still admit requests.
func rateLimiterStore(perSecond float64) *middleware.RateLimiterMemoryStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: max(1, int(math.Ceil(perSecond))),
	})
}

// Handler returns the http handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is canceled and then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opt.Addr,
		ReadTimeout:  s.opt.ReadTimeout,
		WriteTimeout: s.opt.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.opt.Addr)
		errCh <- s.echo.StartServer(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("unable to serve, %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to shutdown server, %w", err)
	}
	return nil
}
