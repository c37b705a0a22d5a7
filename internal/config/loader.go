// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "VIDSERVE_"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.mergeFile(&cfg, l.configPath); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mergeFile decodes the YAML file on top of cfg so absent keys keep their
// current values.
func (l *Loader) mergeFile(cfg *AppConfig, path string) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.ListenAddr = ParseString(EnvPrefix+"LISTEN", cfg.ListenAddr)
	cfg.PublicBaseURL = ParseString(EnvPrefix+"PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.VideosDir = ParseString(EnvPrefix+"VIDEOS_DIR", cfg.VideosDir)
	cfg.IndexPath = ParseString(EnvPrefix+"INDEX", cfg.IndexPath)

	cfg.Stream.ChunkSize = ParseInt64(EnvPrefix+"CHUNK_SIZE", cfg.Stream.ChunkSize)
	cfg.Stream.CacheMaxAge = ParseDuration(EnvPrefix+"CACHE_MAX_AGE", cfg.Stream.CacheMaxAge)

	cfg.Origin.Timeout = ParseDuration(EnvPrefix+"ORIGIN_TIMEOUT", cfg.Origin.Timeout)
	cfg.Origin.DialTimeout = ParseDuration(EnvPrefix+"ORIGIN_DIAL_TIMEOUT", cfg.Origin.DialTimeout)
	cfg.Origin.RateLimit = ParseFloat(EnvPrefix+"ORIGIN_RATE_LIMIT", cfg.Origin.RateLimit)
	cfg.Origin.RateBurst = ParseInt(EnvPrefix+"ORIGIN_RATE_BURST", cfg.Origin.RateBurst)

	cfg.CORS.AllowedOrigins = ParseStringList(EnvPrefix+"ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.Register.RateLimit = ParseInt(EnvPrefix+"REGISTER_RATE_LIMIT", cfg.Register.RateLimit)

	cfg.Watch.Enabled = ParseBool(EnvPrefix+"WATCH", cfg.Watch.Enabled)
	cfg.Watch.Debounce = ParseDuration(EnvPrefix+"WATCH_DEBOUNCE", cfg.Watch.Debounce)

	cfg.Metrics.Enabled = ParseBool(EnvPrefix+"METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = ParseString(EnvPrefix+"METRICS_LISTEN", cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = ParseBool(EnvPrefix+"TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString(EnvPrefix+"TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString(EnvPrefix+"TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = ParseFloat(EnvPrefix+"TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)

	cfg.Log.Level = ParseString(EnvPrefix+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = ParseString(EnvPrefix+"LOG_SERVICE", cfg.Log.Service)

	cfg.Server.ReadTimeout = ParseDuration(EnvPrefix+"READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = ParseDuration(EnvPrefix+"WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = ParseDuration(EnvPrefix+"IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = ParseDuration(EnvPrefix+"SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
}
