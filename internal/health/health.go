// SPDX-License-Identifier: MIT

// Package health provides the readiness check. It reports whether the
// catalog and its backing directories are usable, with per-component status.
package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
)

// Status represents the overall readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for component checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checkers.
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates a new readiness manager
func NewManager(version string, checkers ...Checker) *Manager {
	return &Manager{
		version:  version,
		checkers: checkers,
	}
}

// RegisterChecker adds a checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// Ready runs every checker. Any unhealthy component makes the process not
// ready; degraded components only lower the reported status.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if len(m.checkers) == 0 {
		return resp
	}

	resp.Checks = make(map[string]CheckResult, len(m.checkers))
	hasDegraded := false
	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		resp.Checks[checker.Name()] = result

		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if !resp.Ready {
		resp.Status = StatusUnhealthy
	} else if hasDegraded {
		resp.Status = StatusDegraded
	}
	return resp
}

// ServeReady handles HTTP readiness requests: 200 when ready, 503 otherwise.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "readiness")

	resp := m.Ready(r.Context())
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, r, status, resp)

	logger.Debug().
		Str(log.FieldEvent, "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

// DirChecker checks that a directory exists. With Writable set it also
// checks write access by creating and removing a temp file.
type DirChecker struct {
	name     string
	path     string
	writable bool
}

// NewDirChecker creates a directory checker.
func NewDirChecker(name, path string, writable bool) *DirChecker {
	return &DirChecker{name: name, path: path, writable: writable}
}

func (c *DirChecker) Name() string {
	return c.name
}

func (c *DirChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusUnhealthy,
				Error:   "directory not found",
				Message: c.path,
			}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  "expected directory, got file",
		}
	}

	if c.writable {
		f, err := os.CreateTemp(c.path, ".write_test-*")
		if err != nil {
			return CheckResult{
				Status: StatusUnhealthy,
				Error:  fmt.Sprintf("directory is not writable: %v", err),
			}
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return CheckResult{Status: StatusHealthy, Message: "directory exists and writable"}
	}

	return CheckResult{Status: StatusHealthy, Message: "directory exists"}
}

// LastLoadChecker reports the outcome of the latest catalog load.
type LastLoadChecker struct {
	getLastLoad func() (time.Time, string)
}

// NewLastLoadChecker creates a checker over a last-load accessor returning
// the time of the last success and the latest error, if any.
func NewLastLoadChecker(getLastLoad func() (time.Time, string)) *LastLoadChecker {
	return &LastLoadChecker{getLastLoad: getLastLoad}
}

func (c *LastLoadChecker) Name() string {
	return "catalog"
}

func (c *LastLoadChecker) Check(_ context.Context) CheckResult {
	lastSuccess, lastError := c.getLastLoad()

	if lastSuccess.IsZero() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   lastError,
			Message: "no successful catalog load yet",
		}
	}

	// The previous catalog keeps serving after a failed reload.
	if lastError != "" {
		return CheckResult{
			Status:  StatusDegraded,
			Error:   lastError,
			Message: "last catalog reload failed",
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "catalog loaded " + lastSuccess.UTC().Format(time.RFC3339),
	}
}
