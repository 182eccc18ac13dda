// Prometheus metrics for the HTTP surface.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vectord",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests received",
	})

	requestsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vectord",
		Subsystem: "http",
		Name:      "requests_failed",
		Help:      "Total number of HTTP requests answered with status >= 400",
	})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vectord",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// requestMetrics counts every request, its duration, and failures.
func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestsTotal.Inc()

			err := next(c)
			requestDuration.Observe(time.Since(start).Seconds())

			status := c.Response().Status
			if err != nil {
				// The error handler has not run yet, so the response
				// status is not committed on this path.
				status = http.StatusInternalServerError
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				}
			}
			if status >= http.StatusBadRequest {
				requestsFailed.Inc()
			}
			return err
		}
	}
}
