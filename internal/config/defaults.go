// SPDX-License-Identifier: MIT

package config

import "time"

// Defaults.
const (
	DefaultListenAddr        = ":8090"
	DefaultVideosDir         = "./videos"
	DefaultIndexPath         = "./videos.json"
	DefaultChunkSize         = 1 << 20
	DefaultCacheMaxAge       = 24 * time.Hour
	DefaultOriginTimeout     = 15 * time.Second
	DefaultOriginDialTimeout = 5 * time.Second
	DefaultRegisterRateLimit = 60
	DefaultOriginRateBurst   = 20
	DefaultWatchDebounce     = 2 * time.Second
	DefaultMetricsListenAddr = ":9090"
	DefaultTracingExporter   = "http"
	DefaultTracingEndpoint   = "localhost:4318"
	DefaultShutdownTimeout   = 15 * time.Second
)

// Default returns a configuration populated with defaults only.
func Default() AppConfig {
	return AppConfig{
		ListenAddr: DefaultListenAddr,
		VideosDir:  DefaultVideosDir,
		IndexPath:  DefaultIndexPath,
		Stream: StreamConfig{
			ChunkSize:   DefaultChunkSize,
			CacheMaxAge: DefaultCacheMaxAge,
		},
		Origin: OriginConfig{
			Timeout:     DefaultOriginTimeout,
			DialTimeout: DefaultOriginDialTimeout,
			RateBurst:   DefaultOriginRateBurst,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Register: RegisterConfig{
			RateLimit: DefaultRegisterRateLimit,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: DefaultMetricsListenAddr,
		},
		Tracing: TracingConfig{
			Exporter:     DefaultTracingExporter,
			Endpoint:     DefaultTracingEndpoint,
			SamplingRate: 1.0,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "vidserve",
		},
		Server: ServerConfig{
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxHeaderBytes:  1 << 20,
		},
	}
}
