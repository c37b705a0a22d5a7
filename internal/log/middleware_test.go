// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LogsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})
	t.Cleanup(func() { Configure(Config{}) })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/stream/abc", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-1"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusPartialContent, rr.Code)

	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "request.handled", entry["event"])
	assert.Equal(t, "/stream/abc", entry["path"])
	assert.EqualValues(t, 206, entry["status"])
	assert.EqualValues(t, 5, entry["bytes"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "http", entry["component"])
}

func TestMiddleware_HealthzIsDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Empty(t, buf.String())
}

type readerFromWriter struct {
	*httptest.ResponseRecorder
	calls int
}

func (w *readerFromWriter) ReadFrom(src io.Reader) (int64, error) {
	w.calls++
	return io.Copy(w.ResponseRecorder.Body, src)
}

func TestMiddleware_CountsBytesSentThroughReadFrom(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Hide WriteTo so io.Copy takes the ReaderFrom path.
		_, _ = io.Copy(w, struct{ io.Reader }{strings.NewReader("0123456789")})
	}))
	rw := &readerFromWriter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/stream/abc", nil))

	assert.Equal(t, 1, rw.calls, "io.Copy must reach the underlying ReaderFrom")
	assert.Equal(t, "0123456789", rw.Body.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.EqualValues(t, 200, entry["status"])
	assert.EqualValues(t, 10, entry["bytes"])
}
