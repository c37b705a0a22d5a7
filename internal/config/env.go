// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/vidserve/internal/log"
	"github.com/rs/zerolog"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, exists := os.LookupEnv(key); exists {
		if value == "" {
			logDefault(logger, key, "environment variable is empty")
			return defaultValue
		}
		logger.Debug().
			Str("key", key).
			Str("value", value).
			Str("source", "environment").
			Msg("using environment variable")
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		warnInvalid(key, v, "integer")
		return defaultValue
	}
	return i
}

// ParseInt64 reads a 64-bit integer from environment variable or returns default value.
func ParseInt64(key string, defaultValue int64) int64 {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		warnInvalid(key, v, "integer")
		return defaultValue
	}
	return i
}

// ParseDuration reads a duration from environment variable in Go duration format (e.g. "5s").
// It falls back to default on parse errors or empty variables.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		warnInvalid(key, v, "duration")
		return defaultValue
	}
	return d
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		warnInvalid(key, v, "boolean")
		return defaultValue
	}
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		warnInvalid(key, v, "float")
		return defaultValue
	}
	return f
}

// ParseStringList reads a comma separated list. Blank items are dropped.
func ParseStringList(key string, defaultValue []string) []string {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func lookupNonEmpty(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		logDefault(log.WithComponent("config"), key, "environment variable is empty")
		return "", false
	}
	l := log.WithComponent("config")
	l.Debug().
		Str("key", key).
		Str("value", v).
		Str("source", "environment").
		Msg("using environment variable")
	return v, true
}

func warnInvalid(key, value, kind string) {
	l := log.WithComponent("config")
	l.Warn().
		Str("key", key).
		Str("value", value).
		Msgf("invalid %s in environment variable, using default", kind)
}

func logDefault(logger zerolog.Logger, key, reason string) {
	logger.Debug().
		Str("key", key).
		Str("source", "default").
		Msgf("using default value (%s)", reason)
}
