package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"ClmmLens/pkg/http/middleware"
	applogger "ClmmLens/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler registers API routes on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HealthCheck reports the state of one dependency. A failing check marks
// /healthz as degraded without failing it.
type HealthCheck func(ctx context.Context) error

type ServerOption func(*Server)

// Server is the echo API server with recovery, request logging, metrics,
// CORS, /healthz and the prometheus scrape endpoint.
type Server struct {
	echo   *echo.Echo
	log    *applogger.Logger
	addr   string
	ln     net.Listener
	checks map[string]HealthCheck

	host, metricsPath         string
	port                      int
	readTimeout, writeTimeout time.Duration
	shutdownTimeout, slow     time.Duration
	cors, metrics             bool
}

func NewServer(handler Handler, log *applogger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		log:             log,
		checks:          map[string]HealthCheck{},
		host:            "0.0.0.0",
		port:            8080,
		metricsPath:     "/metrics",
		readTimeout:     10 * time.Second,
		writeTimeout:    10 * time.Second,
		shutdownTimeout: 10 * time.Second,
		slow:            time.Second,
		cors:            true,
		metrics:         true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = applogger.Nop()
	}
	s.addr = fmt.Sprintf("%s:%d", s.host, s.port)

	e := echo.New()
	e.HideBanner, e.HidePort = true, true
	e.Server.ReadTimeout = s.readTimeout
	e.Server.WriteTimeout = s.writeTimeout
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error("http.panic",
				applogger.String("route", c.Path()),
				applogger.Error(err),
				applogger.String("stack", string(stack)),
			)
			return err
		},
	}))
	if s.metrics {
		e.Use(middleware.Metrics(s.log, s.slow))
	}
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		HandleError: true,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			s.log.Debug("http.request",
				applogger.String("method", v.Method),
				applogger.String("uri", v.URI),
				applogger.String("remote", v.RemoteIP),
				applogger.Int("status", v.Status),
				applogger.Duration("duration_ms", v.Latency),
			)
			return nil
		},
	}))
	if s.cors {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	e.GET("/healthz", s.health)
	if s.metrics {
		e.GET(s.metricsPath, echo.WrapHandler(promhttp.Handler()))
	}
	if handler != nil {
		handler.RegisterRoutes(e)
	}
	s.echo = e
	return s
}

func (s *Server) health(c echo.Context) error {
	status := "ok"
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(c.Request().Context()); err != nil {
			status = "degraded"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	return SuccessResponse(c, map[string]interface{}{"status": status, "checks": results})
}

// Start binds the listener and serves in the background. Bind errors are
// returned; serve errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.echo.Listener = ln

	go func() {
		s.log.Info("http server listening", applogger.String("addr", ln.Addr().String()))
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", applogger.Error(err))
		}
	}()
	return nil
}

// Addr is the bound address once Start succeeded, else the configured one.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) Stop(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func WithHost(host string) ServerOption {
	return func(s *Server) { s.host = host }
}

func WithPort(port int) ServerOption {
	return func(s *Server) { s.port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout, s.writeTimeout, s.shutdownTimeout = read, write, shutdown
	}
}

func WithCORS(enabled bool) ServerOption {
	return func(s *Server) { s.cors = enabled }
}

// WithMetrics toggles the request metrics middleware and the scrape endpoint.
func WithMetrics(enabled bool, path string) ServerOption {
	return func(s *Server) {
		s.metrics = enabled
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithSlowThreshold sets the latency from which requests are logged as slow.
func WithSlowThreshold(d time.Duration) ServerOption {
	return func(s *Server) { s.slow = d }
}

// WithHealthCheck adds a named dependency check to /healthz.
func WithHealthCheck(name string, check HealthCheck) ServerOption {
	return func(s *Server) { s.checks[name] = check }
}
