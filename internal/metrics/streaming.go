// SPDX-License-Identifier: MIT

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream sources.
const (
	SourceLocal  = "local"
	SourceOrigin = "origin"
	SourceNone   = "none"
)

var (
	streamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_stream_requests_total",
		Help: "Stream and download requests by route, source and response status",
	}, []string{"route", "source", "status"})

	streamBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_stream_bytes_total",
		Help: "Video bytes written to clients by source",
	}, []string{"source"})

	streamAbortsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_stream_aborts_total",
		Help: "Streams that ended early because the client went away or the copy failed",
	}, []string{"source"})

	originFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidserve_origin_fetch_duration_seconds",
		Help:    "Time until origin response headers arrived",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
	}, []string{"result"})

	originFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_origin_failures_total",
		Help: "Origin fetches that failed before a response was received",
	}, []string{"reason"}) // reason=timeout|network|invalid_url|throttled

	rangeRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidserve_range_rejected_total",
		Help: "Range headers answered with 416",
	}, []string{"reason"}) // reason=malformed|unsatisfiable
)

// IncStreamRequest records the outcome of a stream or download request.
func IncStreamRequest(route, source string, status int) {
	streamRequestsTotal.WithLabelValues(route, source, strconv.Itoa(status)).Inc()
}

// AddStreamBytes records bytes copied to a client.
func AddStreamBytes(source string, n int64) {
	if n > 0 {
		streamBytesTotal.WithLabelValues(source).Add(float64(n))
	}
}

// IncStreamAbort records a stream that stopped before its body was complete.
func IncStreamAbort(source string) {
	streamAbortsTotal.WithLabelValues(source).Inc()
}

// ObserveOriginFetch records origin header latency.
func ObserveOriginFetch(success bool, d time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	originFetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

// IncOriginFailure records an origin fetch failure by reason.
func IncOriginFailure(reason string) {
	originFailuresTotal.WithLabelValues(reason).Inc()
}

// IncRangeRejected records a 416 response.
func IncRangeRejected(reason string) {
	rangeRejectedTotal.WithLabelValues(reason).Inc()
}
