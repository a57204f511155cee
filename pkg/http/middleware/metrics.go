// Package middleware holds echo middleware that echo does not ship.
package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "ClmmLens/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clmmlens"

var (
	requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "status"})

	latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template and status class.",
		// Curve and plan requests run simulations, so the tail goes further
		// out than a plain JSON API.
		Buckets: []float64{0.005, 0.02, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route", "method", "class"})

	inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	})

	registerOnce sync.Once
)

// Metrics counts and times requests by route template. Requests at or above
// slow, and every 5xx, are logged.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	registerOnce.Do(func() {
		prometheus.MustRegister(requests, latency, inFlight)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			inFlight.Inc()
			defer inFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route, method := c.Path(), c.Request().Method
			if route == "" {
				route = "unmatched"
			}
			code := c.Response().Status
			took := time.Since(start)
			requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			latency.WithLabelValues(route, method, strconv.Itoa(code/100)+"xx").Observe(took.Seconds())

			if l == nil || (code < 500 && (slow <= 0 || took < slow)) {
				return nil
			}
			fields := []applogger.Field{
				applogger.String("route", route),
				applogger.String("method", method),
				applogger.Int("status", code),
				applogger.Duration("duration_ms", took),
			}
			if code >= 500 {
				l.Error("http request failed", fields...)
			} else {
				l.Warn("http request slow", fields...)
			}
			return nil
		}
	}
}
