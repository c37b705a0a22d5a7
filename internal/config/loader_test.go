// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultVideosDir, cfg.VideosDir)
	assert.Equal(t, DefaultIndexPath, cfg.IndexPath)
	assert.EqualValues(t, 1<<20, cfg.Stream.ChunkSize)
	assert.Equal(t, 24*time.Hour, cfg.Stream.CacheMaxAge)
	assert.Equal(t, 15*time.Second, cfg.Origin.Timeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Watch.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, "v1.2.3", cfg.Version)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
listen_addr: ":9999"
videos_dir: /srv/videos
stream:
  chunk_size: 4096
origin:
  timeout: 3s
watch:
  enabled: true
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "/srv/videos", cfg.VideosDir)
	assert.EqualValues(t, 4096, cfg.Stream.ChunkSize)
	assert.Equal(t, 3*time.Second, cfg.Origin.Timeout)
	assert.True(t, cfg.Watch.Enabled)
	// untouched keys keep defaults
	assert.Equal(t, DefaultIndexPath, cfg.IndexPath)
	assert.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "listen_addr: \":9999\"\n")
	t.Setenv("VIDSERVE_LISTEN", ":7777")
	t.Setenv("VIDSERVE_CHUNK_SIZE", "2048")
	t.Setenv("VIDSERVE_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("VIDSERVE_WATCH", "yes")
	t.Setenv("VIDSERVE_ORIGIN_RATE_LIMIT", "2.5")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.EqualValues(t, 2048, cfg.Stream.ChunkSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Watch.Enabled)
	assert.InDelta(t, 2.5, cfg.Origin.RateLimit, 1e-9)
	assert.Equal(t, DefaultOriginRateBurst, cfg.Origin.RateBurst)
}

func TestLoad_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("VIDSERVE_ORIGIN_TIMEOUT", "soon")
	t.Setenv("VIDSERVE_METRICS_ENABLED", "maybe")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultOriginTimeout, cfg.Origin.Timeout)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfigFile(t, "listen_adr: \":1\"\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		ok     bool
	}{
		{"defaults", func(*AppConfig) {}, true},
		{"zero chunk", func(c *AppConfig) { c.Stream.ChunkSize = 0 }, false},
		{"empty videos dir", func(c *AppConfig) { c.VideosDir = " " }, false},
		{"bad exporter", func(c *AppConfig) { c.Tracing.Enabled = true; c.Tracing.Exporter = "zipkin" }, false},
		{"sampling out of range", func(c *AppConfig) { c.Tracing.SamplingRate = 1.5 }, false},
		{"relative base url", func(c *AppConfig) { c.PublicBaseURL = "/media" }, false},
		{"absolute base url", func(c *AppConfig) { c.PublicBaseURL = "https://cdn.example.com" }, true},
		{"negative rate limit", func(c *AppConfig) { c.Register.RateLimit = -1 }, false},
		{"origin rate limit", func(c *AppConfig) { c.Origin.RateLimit = 2.5 }, true},
		{"origin rate limit without burst", func(c *AppConfig) { c.Origin.RateLimit = 2.5; c.Origin.RateBurst = 0 }, false},
		{"watch without debounce", func(c *AppConfig) { c.Watch.Enabled = true; c.Watch.Debounce = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
