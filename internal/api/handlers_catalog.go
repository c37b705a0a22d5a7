// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ManuGH/vidserve/internal/catalog"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
)

// videoDTO is one element of GET /api/videos.
type videoDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	StreamURL   string  `json:"streamUrl"`
	DownloadURL string  `json:"downloadUrl"`
	Thumbnail   string  `json:"thumbnail"`
	Size        int64   `json:"size"`
	Duration    float64 `json:"duration"`
}

type registerRequest struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	VideoURL     string   `json:"videoUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Duration     *float64 `json:"duration"`
}

type registerResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Videos  int    `json:"videos"`
}

type reloadResponse struct {
	OK     bool `json:"ok"`
	Videos int  `json:"videos"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Videos  int    `json:"videos"`
	Version string `json:"version,omitempty"`
}

func (s *Server) videoList() []videoDTO {
	entries := s.catalog.List()
	out := make([]videoDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, videoDTO{
			ID:          e.ID,
			Title:       e.Title,
			StreamURL:   s.streamURL("/stream/", e.ID),
			DownloadURL: s.streamURL("/download/", e.ID),
			Thumbnail:   e.ThumbnailURL,
			Size:        e.SizeBytes,
			Duration:    e.DurationSeconds,
		})
	}
	return out
}

// handleListVideos serves GET /api/videos.
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, r, http.StatusOK, s.videoList())
}

// handleRegister serves POST /api/register. Registration is idempotent by id.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	logger := xglog.WithContext(r.Context(), s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, maxRegisterBody)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Title) == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "Missing required fields: id, title")
		return
	}

	reg := catalog.Registration{
		ID:           req.ID,
		Title:        req.Title,
		OriginURL:    req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
	}
	if req.Duration != nil {
		reg.DurationSeconds = *req.Duration
	}

	res, err := s.catalog.Register(r.Context(), reg)
	switch {
	case errors.Is(err, catalog.ErrInvalidRegistration):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, catalog.ErrPersist):
		httpx.WriteError(w, r, http.StatusInternalServerError, "Failed to persist catalog")
		return
	case err != nil:
		logger.Error().Err(err).Str(xglog.FieldEvent, "register.failed").Msg("registration failed")
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := registerResponse{OK: true, Videos: res.Count}
	if res.AlreadyRegistered {
		resp.Message = "Already registered"
	}
	httpx.WriteJSON(w, r, http.StatusOK, resp)
}

// handleReload serves GET|POST /reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.Load(r.Context(), catalog.TriggerAPI)
	if err != nil {
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str(xglog.FieldEvent, "reload.failed").Msg("catalog reload failed")
		httpx.WriteError(w, r, http.StatusInternalServerError, "Failed to reload catalog")
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, reloadResponse{OK: true, Videos: n})
}

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Videos:  s.catalog.Len(),
		Version: s.cfg.Version,
	})
}
