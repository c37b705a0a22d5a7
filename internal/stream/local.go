// SPDX-License-Identifier: MIT

package stream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
)

// DefaultCacheMaxAge is the Cache-Control max-age sent with video bytes.
const DefaultCacheMaxAge = 24 * time.Hour

// Options tune a single stream or download response.
type Options struct {
	// ChunkSize caps open-ended ranges. Zero means DefaultChunkSize.
	ChunkSize int64
	// CacheMaxAge is sent as "public, max-age=<seconds>". Zero means
	// DefaultCacheMaxAge.
	CacheMaxAge time.Duration
	// Disposition, when set, is sent as Content-Disposition.
	Disposition string
}

func (o Options) chunkSize() int64 {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

func (o Options) cacheControl() string {
	maxAge := o.CacheMaxAge
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return "public, max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10)
}

// AttachmentDisposition builds a Content-Disposition value for downloads.
func AttachmentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

// File is a video on local disk.
type File struct {
	Path string
	// Name picks the Content-Type; defaults to the base of Path.
	Name string
}

// Result describes what a serve call wrote.
type Result struct {
	Status int
	Bytes  int64
	// Err is set when the body copy ended early.
	Err error
}

// ServeLocal answers r from a local file, honoring single byte ranges.
func ServeLocal(w http.ResponseWriter, r *http.Request, file File, opts Options) Result {
	logger := log.WithComponentFromContext(r.Context(), "stream")

	f, err := os.Open(file.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			httpx.WriteError(w, r, http.StatusNotFound, "Not found")
			return Result{Status: http.StatusNotFound}
		}
		logger.Error().Err(err).Str(log.FieldEvent, "stream.open_failed").Str(log.FieldPath, file.Path).Msg("could not open video file")
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
		return Result{Status: http.StatusInternalServerError, Err: err}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		if err == nil {
			err = fmt.Errorf("%s: not a regular file", file.Path)
		}
		logger.Error().Err(err).Str(log.FieldEvent, "stream.stat_failed").Str(log.FieldPath, file.Path).Msg("could not stat video file")
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
		return Result{Status: http.StatusInternalServerError, Err: err}
	}
	size := info.Size()

	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", opts.cacheControl())
	h.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	if opts.Disposition != "" {
		h.Set("Content-Disposition", opts.Disposition)
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" && !ifRangeMatches(r.Header.Get("If-Range"), info.ModTime()) {
		rangeHeader = ""
	}

	if rangeHeader == "" {
		h.Set("Content-Type", ContentTypeFor(name))
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return Result{Status: http.StatusOK}
		}
		return copyBody(r, w, f, size, http.StatusOK, metrics.SourceLocal)
	}

	rng, err := ParseRange(rangeHeader, size, opts.chunkSize())
	if err != nil {
		reason := "unsatisfiable"
		if errors.Is(err, ErrMalformedRange) {
			reason = "malformed"
		}
		metrics.IncRangeRejected(reason)
		logger.Debug().Err(err).Str(log.FieldEvent, "stream.range_rejected").Str(log.FieldRange, rangeHeader).Int64(log.FieldBytes, size).Msg("range not satisfiable")
		h.Set("Content-Range", UnsatisfiedContentRange(size))
		httpx.WriteError(w, r, http.StatusRequestedRangeNotSatisfiable, "Range Not Satisfiable")
		return Result{Status: http.StatusRequestedRangeNotSatisfiable}
	}

	h.Set("Content-Type", ContentTypeFor(name))
	h.Set("Content-Range", rng.ContentRange(size))
	h.Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return Result{Status: http.StatusPartialContent}
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "stream.seek_failed").Str(log.FieldPath, file.Path).Msg("could not seek video file")
		return Result{Status: http.StatusPartialContent, Err: err}
	}
	return copyBody(r, w, f, rng.Length(), http.StatusPartialContent, metrics.SourceLocal)
}

// ifRangeMatches reports whether a Range header should be honored given an
// If-Range precondition. Only HTTP-date validators are understood.
func ifRangeMatches(ifRange string, modTime time.Time) bool {
	if ifRange == "" {
		return true
	}
	t, err := http.ParseTime(ifRange)
	if err != nil {
		return false
	}
	return !modTime.Truncate(time.Second).After(t)
}

func copyBody(r *http.Request, w io.Writer, src io.Reader, n int64, status int, source string) Result {
	written, err := io.CopyN(w, src, n)
	metrics.AddStreamBytes(source, written)
	if err != nil {
		metrics.IncStreamAbort(source)
		logger := log.WithComponentFromContext(r.Context(), "stream")
		logger.Debug().Err(err).
			Str(log.FieldEvent, "stream.aborted").
			Str(log.FieldSource, source).
			Int64(log.FieldBytes, written).
			Msg("stream copy ended early")
		return Result{Status: status, Bytes: written, Err: err}
	}
	return Result{Status: status, Bytes: written}
}
