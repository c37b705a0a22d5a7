// SPDX-License-Identifier: MIT

// Package api is the HTTP surface of vidserve: catalog listing, registration,
// reload, the player page, and stream/download dispatch.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/vidserve/internal/catalog"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/stream"
	"github.com/rs/zerolog"
)

// Catalog is the part of catalog.Store the handlers depend on.
type Catalog interface {
	Lookup(id string) (catalog.VideoMeta, bool)
	List() []catalog.VideoMeta
	Len() int
	Register(ctx context.Context, reg catalog.Registration) (catalog.RegisterResult, error)
	Load(ctx context.Context, trigger catalog.Trigger) (int, error)
	ResolveLocal(meta catalog.VideoMeta) (catalog.LocalFile, bool)
}

// OriginProxy relays a stream from a remote URL.
type OriginProxy interface {
	Serve(w http.ResponseWriter, r *http.Request, originURL string, opts stream.Options) stream.Result
}

// Config carries the settings the HTTP layer needs.
type Config struct {
	// PublicBaseURL prefixes stream and download URLs in listings. Empty
	// means relative URLs.
	PublicBaseURL string

	ChunkSize   int64
	CacheMaxAge time.Duration

	AllowedOrigins    []string
	RegisterRateLimit int

	EnableMetrics  bool
	TracingService string // empty disables request spans

	Version string

	// Readiness serves /readyz; nil leaves the route unregistered.
	Readiness http.Handler
}

// Server holds the handler dependencies.
type Server struct {
	cfg     Config
	catalog Catalog
	origin  OriginProxy
	logger  zerolog.Logger
	handler http.Handler
}

// New builds the server and its router.
func New(cfg Config, cat Catalog, origin OriginProxy) *Server {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	s := &Server{
		cfg:     cfg,
		catalog: cat,
		origin:  origin,
		logger:  xglog.WithComponent("api"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) streamOptions() stream.Options {
	return stream.Options{
		ChunkSize:   s.cfg.ChunkSize,
		CacheMaxAge: s.cfg.CacheMaxAge,
	}
}

// streamURL builds a link for id. Ids come from filenames and registration
// bodies, so they may hold '%', '?', '#' or spaces and must be escaped.
func (s *Server) streamURL(prefix, id string) string {
	return s.cfg.PublicBaseURL + prefix + url.PathEscape(id)
}
