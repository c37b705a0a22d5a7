// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/vidserve/internal/platform/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginServe_RelaysPartialContent(t *testing.T) {
	seen := make(chan http.Header, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
		w.Header().Set("Content-Type", "video/webm")
		w.Header().Set("Content-Range", "bytes 0-3/10")
		w.Header().Set("Content-Length", "4")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = io.WriteString(w, "abcd")
	}))
	defer upstream.Close()

	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	req.Header.Set("Range", "bytes=0-3")
	req.Header.Set("If-Range", `"etag"`)
	rec := httptest.NewRecorder()

	res := NewOrigin(upstream.Client()).Serve(rec, req, upstream.URL+"/v.webm", Options{})

	got := <-seen
	assert.Equal(t, "bytes=0-3", got.Get("Range"))
	assert.Equal(t, `"etag"`, got.Get("If-Range"))
	assert.Equal(t, "identity", got.Get("Accept-Encoding"))
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, http.StatusPartialContent, res.Status)
	assert.Equal(t, int64(4), res.Bytes)
	assert.Equal(t, "abcd", rec.Body.String())
	assert.Equal(t, "video/webm", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes 0-3/10", rec.Header().Get("Content-Range"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
}

func TestOriginServe_DefaultsAndAcceptRanges(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Header().Set("Accept-Ranges", "none")
		_, _ = io.WriteString(w, "xyz")
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	NewOrigin(upstream.Client()).Serve(rec, req, upstream.URL, Options{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Empty(t, rec.Header().Get("Content-Range"))
	assert.Equal(t, "xyz", rec.Body.String())
}

func TestOriginServe_RelaysUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	res := NewOrigin(upstream.Client()).Serve(rec, req, upstream.URL, Options{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Contains(t, rec.Body.String(), "gone")
}

func TestOriginServe_Head(t *testing.T) {
	gotMethod := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod <- r.Method
		w.Header().Set("Content-Length", "1234")
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodHead, "/stream/v1", nil)
	NewOrigin(upstream.Client()).Serve(rec, req, upstream.URL, Options{})

	assert.Equal(t, http.MethodHead, <-gotMethod)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestOriginServe_NetworkErrorIs502(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	res := NewOrigin(httpx.NewStreamingClient(time.Second, time.Second)).Serve(rec, req, url, Options{})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.Error(t, res.Err)
	assert.JSONEq(t, `{"error":"Origin unavailable"}`, rec.Body.String())
}

func TestOriginServe_HeaderTimeoutIs504(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	res := NewOrigin(httpx.NewStreamingClient(50*time.Millisecond, 50*time.Millisecond)).Serve(rec, req, upstream.URL, Options{})

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, http.StatusGatewayTimeout, res.Status)
	assert.JSONEq(t, `{"error":"Origin timeout"}`, rec.Body.String())
}

func TestOriginServe_RejectsUnsupportedScheme(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil)
	res := NewOrigin(nil).Serve(rec, req, "file:///etc/passwd", Options{})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.ErrorIs(t, res.Err, ErrUnsupportedScheme)
}

func TestNewFetchLimiter(t *testing.T) {
	assert.Nil(t, NewFetchLimiter(0, 10))
	l := NewFetchLimiter(5, 0)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}

func TestOriginServe_FetchLimiter(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	origin := NewOrigin(upstream.Client())
	origin.Limiter = NewFetchLimiter(0.001, 1)

	rec := httptest.NewRecorder()
	res := origin.Serve(rec, httptest.NewRequest(http.MethodGet, "/stream/v1", nil), upstream.URL, Options{})
	assert.Equal(t, http.StatusOK, res.Status)

	// The next token is far beyond the deadline, so Wait fails fast.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	rec = httptest.NewRecorder()
	res = origin.Serve(rec, httptest.NewRequest(http.MethodGet, "/stream/v1", nil).WithContext(ctx), upstream.URL, Options{})
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.JSONEq(t, `{"error":"Origin busy"}`, rec.Body.String())

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	rec = httptest.NewRecorder()
	res = origin.Serve(rec, httptest.NewRequest(http.MethodGet, "/stream/v1", nil).WithContext(ctx), upstream.URL, Options{})
	assert.Equal(t, StatusClientClosedRequest, res.Status)
	assert.Zero(t, rec.Body.Len())

	assert.Equal(t, int32(1), hits.Load())
}

func TestOriginServe_ClientDisconnectStopsUpstreamRead(t *testing.T) {
	upstreamDone := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(make([]byte, 4096))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
			close(upstreamDone)
		case <-time.After(5 * time.Second):
		}
	}))
	defer upstream.Close()

	results := make(chan Result, 1)
	origin := NewOrigin(upstream.Client())
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results <- origin.Serve(w, r, upstream.URL+"/v.mp4", Options{})
	}))
	defer proxy.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxy.URL, nil)
	require.NoError(t, err)
	resp, err := proxy.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = io.ReadFull(resp.Body, make([]byte, 1024))
	require.NoError(t, err)
	cancel()

	select {
	case <-upstreamDone:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream request was not cancelled after the client went away")
	}
	select {
	case res := <-results:
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Error(t, res.Err)
		assert.LessOrEqual(t, res.Bytes, int64(4096))
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not return after the client went away")
	}
}

func TestOriginServe_CancelBeforeHeadersIs499(t *testing.T) {
	entered := make(chan struct{})
	upstreamDone := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-r.Context().Done():
			close(upstreamDone)
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-entered
		cancel()
	}()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/v1", nil).WithContext(ctx)
	res := NewOrigin(upstream.Client()).Serve(rec, req, upstream.URL, Options{})

	assert.Equal(t, StatusClientClosedRequest, res.Status)
	assert.Error(t, res.Err)
	assert.Zero(t, rec.Body.Len())
	assert.Empty(t, rec.Header().Get("Content-Type"))
	select {
	case <-upstreamDone:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream request was not cancelled")
	}
}
