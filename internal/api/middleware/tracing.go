// SPDX-License-Identifier: MIT

// Package middleware holds the HTTP ingress middleware of the API server.
package middleware

import (
	"net/http"

	"github.com/ManuGH/vidserve/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. The span is renamed to
// "METHOD /route/{pattern}" once routing is done.
func Tracing(tracerName string) func(http.Handler) http.Handler {
	tracer := telemetry.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !shouldTrace(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("http.method", r.Method)),
			)
			defer span.End()

			sw := newStatusWriter(w)
			r = r.WithContext(ctx)
			next.ServeHTTP(sw, r)

			route := RoutePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String(telemetry.HTTPRouteKey, route),
				attribute.Int(telemetry.HTTPStatusCodeKey, sw.statusCode),
			)
			if sw.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return false
	}
	return r.Method != http.MethodOptions
}

// AddSpanAttributes adds attributes to the request span. Safe with tracing
// disabled.
func AddSpanAttributes(r *http.Request, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(r.Context()).SetAttributes(attrs...)
}
