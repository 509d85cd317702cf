package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posterforge",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "posterforge",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Generation metrics
	JobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posterforge",
		Subsystem: "jobs",
		Name:      "submitted_total",
		Help:      "Total generation jobs submitted",
	}, []string{"theme"})

	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posterforge",
		Subsystem: "jobs",
		Name:      "finished_total",
		Help:      "Total jobs finished, by terminal status",
	}, []string{"status"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "posterforge",
		Subsystem: "jobs",
		Name:      "generation_duration_seconds",
		Help:      "End-to-end poster generation duration",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posterforge",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests against OSM upstream APIs",
	}, []string{"service", "outcome"})

	GeocodeCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posterforge",
		Subsystem: "cache",
		Name:      "geocode_lookups_total",
		Help:      "Geocoding cache lookups by outcome",
	}, []string{"outcome"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "posterforge",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket progress streams",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
