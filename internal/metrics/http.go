package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMiddleware counts requests and observes their latency by route.
func HTTPMiddleware(reg prometheus.Registerer) fiber.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	total := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	duration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request duration in ms",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"path", "method"},
	)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// route pattern, not the raw path, to bound label cardinality
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		duration.WithLabelValues(path, c.Method()).Observe(float64(time.Since(start).Milliseconds()))
		total.WithLabelValues(path, c.Method(), strconv.Itoa(status)).Inc()
		return err
	}
}
