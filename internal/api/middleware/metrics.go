// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unmatchedRoute = "unmatched"

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidserve_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds, including streamed bodies",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidserve_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidserve_http_response_size_bytes",
		Help:    "HTTP response body sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "route", "status"})
)

// Metrics records Prometheus request metrics labeled by chi route pattern,
// never by raw path, so video ids do not explode label cardinality.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := RoutePattern(r)
			status := strconv.Itoa(sw.statusCode)
			httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			if sw.bytesWritten > 0 {
				httpResponseSize.WithLabelValues(r.Method, route, status).Observe(float64(sw.bytesWritten))
			}
		})
	}
}

// RoutePattern returns the matched chi route pattern, or "unmatched".
// Only meaningful after routing has happened.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
