// SPDX-License-Identifier: MIT

package middleware

import (
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the ingress middleware stack.
type StackConfig struct {
	AllowedOrigins []string

	EnableSecurityHeaders bool
	CSP                   string

	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool
}

// ApplyStack applies the middleware stack to r, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS(cfg.AllowedOrigins))
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(xglog.Middleware())
	}
}
