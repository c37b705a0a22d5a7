// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/vidserve/internal/api/middleware"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
)

const maxRegisterBody = 1 << 20

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	middleware.ApplyStack(r, middleware.StackConfig{
		AllowedOrigins:        s.cfg.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         s.cfg.EnableMetrics,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
	})

	// Unknown paths and known paths with the wrong method look the same.
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleNotFound)

	r.Get("/", s.handlePlayer)
	r.Get("/player", s.handlePlayer)
	r.Get("/healthz", s.handleHealth)
	if s.cfg.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", s.cfg.Readiness)
	}

	r.Get("/api/videos", s.handleListVideos)
	r.With(middleware.RegisterRateLimit(s.cfg.RegisterRateLimit)).Post("/api/register", s.handleRegister)
	r.Get("/reload", s.handleReload)
	r.Post("/reload", s.handleReload)

	r.Get("/stream/{id}", s.handleStream)
	r.Head("/stream/{id}", s.handleStream)
	r.Get("/download/{id}", s.handleDownload)
	r.Head("/download/{id}", s.handleDownload)

	return r
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(w, r, http.StatusNotFound, "Not found")
}
