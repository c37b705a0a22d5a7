// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// ListenAddr is the API server address, e.g. ":8090"
	ListenAddr string

	// APIHandler is the HTTP handler for the API server
	APIHandler http.Handler

	// MetricsHandler serves /metrics; nil disables the metrics listener
	MetricsHandler http.Handler

	// MetricsAddr is the metrics listen address
	MetricsAddr string
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	if d.ListenAddr == "" {
		return ErrMissingListenAddr
	}
	return nil
}
