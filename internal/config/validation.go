// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks cross-field constraints. All problems are reported at once.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		add("listen_addr must not be empty")
	}
	if strings.TrimSpace(cfg.VideosDir) == "" {
		add("videos_dir must not be empty")
	}
	if strings.TrimSpace(cfg.IndexPath) == "" {
		add("index_path must not be empty")
	}
	if cfg.Stream.ChunkSize <= 0 {
		add("stream.chunk_size must be positive, got %d", cfg.Stream.ChunkSize)
	}
	if cfg.Stream.CacheMaxAge < 0 {
		add("stream.cache_max_age must not be negative")
	}
	if cfg.Origin.Timeout <= 0 {
		add("origin.timeout must be positive")
	}
	if cfg.Origin.DialTimeout <= 0 {
		add("origin.dial_timeout must be positive")
	}
	if cfg.Origin.RateLimit < 0 {
		add("origin.rate_limit must not be negative")
	}
	if cfg.Origin.RateLimit > 0 && cfg.Origin.RateBurst < 1 {
		add("origin.rate_burst must be at least 1 when origin.rate_limit is set")
	}
	if cfg.Register.RateLimit < 0 {
		add("register.rate_limit must not be negative")
	}
	if cfg.Watch.Enabled && cfg.Watch.Debounce <= 0 {
		add("watch.debounce must be positive when watch is enabled")
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.ListenAddr) == "" {
		add("metrics.listen_addr must be set when metrics are enabled")
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "grpc", "http":
		default:
			add("tracing.exporter must be grpc or http, got %q", cfg.Tracing.Exporter)
		}
		if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
			add("tracing.endpoint must be set when tracing is enabled")
		}
	}
	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		add("tracing.sampling_rate must be within [0,1], got %v", cfg.Tracing.SamplingRate)
	}
	if cfg.PublicBaseURL != "" {
		u, err := url.Parse(cfg.PublicBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("public_base_url must be an absolute http(s) URL, got %q", cfg.PublicBaseURL)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
