// SPDX-License-Identifier: MIT

package log

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// quietPaths are logged at debug level to keep health checks out of the info stream.
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

func (r *statusRecorder) ReadFrom(src io.Reader) (int64, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	var (
		n   int64
		err error
	)
	if rf, ok := r.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(src)
	} else {
		n, err = io.Copy(struct{ io.Writer }{r.ResponseWriter}, src)
	}
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware logs one structured line per handled request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			logger := WithComponentFromContext(r.Context(), "http")
			ctx := logger.WithContext(r.Context())

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = logger.Error()
			case isQuiet(r.URL.Path):
				ev = logger.Debug()
			default:
				ev = logger.Info()
			}
			ev.Str(FieldEvent, "request.handled").
				Str("method", r.Method).
				Str(FieldPath, r.URL.Path).
				Int(FieldStatus, status).
				Int64(FieldBytes, rec.bytes).
				Str("remote_addr", r.RemoteAddr).
				Dur("duration", time.Since(start)).
				Msg("request handled")
		})
	}
}

func isQuiet(path string) bool {
	_, ok := quietPaths[path]
	return ok
}
