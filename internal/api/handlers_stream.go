// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/url"

	"github.com/ManuGH/vidserve/internal/api/middleware"
	"github.com/ManuGH/vidserve/internal/catalog"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
	"github.com/ManuGH/vidserve/internal/stream"
	"github.com/ManuGH/vidserve/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

// handleStream serves GET|HEAD /stream/{id}.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.serveVideo(w, r, "stream", false)
}

// handleDownload serves GET|HEAD /download/{id}: the stream plus an
// attachment Content-Disposition.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.serveVideo(w, r, "download", true)
}

// serveVideo dispatches to the local file when one exists right now, then to
// the registered origin, and otherwise answers 404. Local existence is checked
// on every request, so a file dropped into the videos directory takes over
// from the origin without a reload.
func (s *Server) serveVideo(w http.ResponseWriter, r *http.Request, route string, attachment bool) {
	id := videoIDParam(r)
	ctx := xglog.ContextWithVideoID(r.Context(), id)
	r = r.WithContext(ctx)

	meta, ok := s.catalog.Lookup(id)
	if !ok {
		s.finishStream(r, route, metrics.SourceNone, stream.Result{Status: http.StatusNotFound})
		handleNotFound(w, r)
		return
	}

	opts := s.streamOptions()
	if attachment {
		opts.Disposition = stream.AttachmentDisposition(catalog.SafeFilename(meta.Title))
	}

	if local, ok := s.catalog.ResolveLocal(meta); ok {
		res := stream.ServeLocal(w, r, stream.File{Path: local.Path}, opts)
		s.finishStream(r, route, metrics.SourceLocal, res)
		return
	}

	if meta.OriginURL != "" {
		res := s.origin.Serve(w, r, meta.OriginURL, opts)
		s.finishStream(r, route, metrics.SourceOrigin, res)
		return
	}

	s.finishStream(r, route, metrics.SourceNone, stream.Result{Status: http.StatusNotFound})
	httpx.WriteError(w, r, http.StatusNotFound, "Not found")
}

func (s *Server) finishStream(r *http.Request, route, source string, res stream.Result) {
	metrics.IncStreamRequest(route, source, res.Status)
	middleware.AddSpanAttributes(r, telemetry.StreamAttributes(xglog.VideoIDFromContext(r.Context()), source, r.Header.Get("Range"))...)
	middleware.AddSpanAttributes(r, telemetry.ResultAttributes(res.Status, res.Bytes)...)

	logger := xglog.WithContext(r.Context(), s.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "stream.finished").
		Str(xglog.FieldSource, source).
		Int(xglog.FieldStatus, res.Status).
		Int64(xglog.FieldBytes, res.Bytes).
		Bool("aborted", res.Err != nil).
		Msg("stream request finished")
}

// videoIDParam returns the decoded {id} segment. chi matches on RawPath when
// the request carries one, in which case the captured segment is still escaped.
func videoIDParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if decoded, err := url.PathUnescape(id); err == nil {
		return decoded
	}
	return id
}
