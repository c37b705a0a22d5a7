// SPDX-License-Identifier: MIT

package config

import "time"

// AppConfig is the full daemon configuration.
type AppConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	PublicBaseURL string `yaml:"public_base_url"`
	VideosDir     string `yaml:"videos_dir"`
	IndexPath     string `yaml:"index_path"`

	Stream   StreamConfig   `yaml:"stream"`
	Origin   OriginConfig   `yaml:"origin"`
	CORS     CORSConfig     `yaml:"cors"`
	Register RegisterConfig `yaml:"register"`
	Watch    WatchConfig    `yaml:"watch"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`

	// Version is injected from the binary, never from file or env.
	Version string `yaml:"-"`
}

// StreamConfig controls local range serving.
type StreamConfig struct {
	// ChunkSize bounds the body of an open-ended range request.
	ChunkSize   int64         `yaml:"chunk_size"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`
}

// OriginConfig controls the outbound client used for remote origins.
type OriginConfig struct {
	// Timeout bounds the wait for origin response headers, not the body.
	Timeout     time.Duration `yaml:"timeout"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	// RateLimit caps origin fetches per second across all clients; 0 disables.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// CORSConfig lists origins allowed by the CORS middleware. "*" allows all.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RegisterConfig controls the registration endpoint.
type RegisterConfig struct {
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

// WatchConfig controls the optional videos directory watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Zero disables it, which long video responses need.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes caps request header size
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}
