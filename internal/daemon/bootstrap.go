// SPDX-License-Identifier: MIT

// Package daemon wires the catalog, HTTP API and metrics listener into one
// process and owns its lifecycle.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/ManuGH/vidserve/internal/api"
	"github.com/ManuGH/vidserve/internal/catalog"
	"github.com/ManuGH/vidserve/internal/config"
	"github.com/ManuGH/vidserve/internal/health"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
	"github.com/ManuGH/vidserve/internal/stream"
	"github.com/ManuGH/vidserve/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Runtime is a fully wired daemon.
type Runtime struct {
	Config    config.AppConfig
	Store     *catalog.Store
	API       *api.Server
	Telemetry *telemetry.Provider

	app    *App
	logger zerolog.Logger
}

// Bootstrap builds every component from cfg and performs the startup catalog
// load. A failed catalog load or tracing setup is logged and tolerated; the
// daemon then starts with an empty catalog or without spans.
func Bootstrap(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	logger := xglog.WithComponent("daemon")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("telemetry initialization failed, continuing without tracing")
		provider = telemetry.NoopProvider()
	}

	store := catalog.New(catalog.Options{
		IndexPath: cfg.IndexPath,
		VideosDir: cfg.VideosDir,
	})
	if _, err := store.Load(ctx, catalog.TriggerStartup); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "catalog.startup_load_failed").Msg("startup catalog load failed, serving an empty catalog")
	}

	origin := stream.NewOrigin(httpx.NewStreamingClient(cfg.Origin.Timeout, cfg.Origin.DialTimeout))
	origin.Limiter = stream.NewFetchLimiter(cfg.Origin.RateLimit, cfg.Origin.RateBurst)

	readiness := health.NewManager(cfg.Version,
		health.NewDirChecker("videos_dir", cfg.VideosDir, false),
		health.NewDirChecker("index_dir", filepath.Dir(cfg.IndexPath), true),
		health.NewLastLoadChecker(func() (time.Time, string) {
			st := store.LastLoad()
			return st.LastSuccess, st.LastError
		}),
	)

	tracingService := ""
	if provider.Enabled() {
		tracingService = cfg.Log.Service
	}
	apiServer := api.New(api.Config{
		PublicBaseURL:     cfg.PublicBaseURL,
		ChunkSize:         cfg.Stream.ChunkSize,
		CacheMaxAge:       cfg.Stream.CacheMaxAge,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RegisterRateLimit: cfg.Register.RateLimit,
		EnableMetrics:     cfg.Metrics.Enabled,
		TracingService:    tracingService,
		Version:           cfg.Version,
		Readiness:         http.HandlerFunc(readiness.ServeReady),
	}, store, origin)

	deps := Deps{
		Logger:     logger,
		ListenAddr: cfg.ListenAddr,
		APIHandler: apiServer.Handler(),
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = MetricsHandler()
		deps.MetricsAddr = cfg.Metrics.ListenAddr
	}

	mgr, err := NewManager(cfg.Server, deps)
	if err != nil {
		return nil, fmt.Errorf("create manager: %w", err)
	}
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)

	opts := AppOptions{Catalog: store}
	if cfg.Watch.Enabled {
		debounce := cfg.Watch.Debounce
		opts.Watch = func(ctx context.Context) error {
			return catalog.Watch(ctx, store, debounce)
		}
	}

	return &Runtime{
		Config:    cfg,
		Store:     store,
		API:       apiServer,
		Telemetry: provider,
		app:       NewApp(logger, mgr, opts),
		logger:    logger,
	}, nil
}

// Run blocks until ctx is cancelled or a server fails.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info().
		Str("version", r.Config.Version).
		Str("listen", r.Config.ListenAddr).
		Str(xglog.FieldVideosDir, r.Config.VideosDir).
		Str(xglog.FieldIndexPath, r.Config.IndexPath).
		Int("videos", r.Store.Len()).
		Bool("watch", r.Config.Watch.Enabled).
		Msg("starting vidserve")
	return r.app.Run(ctx)
}

// MetricsHandler serves the Prometheus registry at /metrics.
func MetricsHandler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}
