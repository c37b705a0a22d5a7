// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/metrics"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
	pnet "github.com/ManuGH/vidserve/internal/platform/net"
	"golang.org/x/time/rate"
)

// ErrUnsupportedScheme is returned for origin URLs that are not http or https.
var ErrUnsupportedScheme = pnet.ErrUnsupportedScheme

const copyBufferSize = 32 << 10

// StatusClientClosedRequest is recorded when the client disconnects before
// any response was written.
const StatusClientClosedRequest = 499

// forwardedRequestHeaders are copied from the client request to the origin.
var forwardedRequestHeaders = []string{"Range", "If-Range"}

// relayedResponseHeaders are copied from the origin response when present.
var relayedResponseHeaders = []string{"Content-Range", "Content-Length", "Last-Modified", "ETag"}

// Origin proxies byte requests to a remote video URL.
type Origin struct {
	Client *http.Client
	// Limiter paces outbound fetches across all clients; nil means unlimited.
	Limiter *rate.Limiter
}

// NewFetchLimiter returns a limiter admitting perSecond origin fetches with
// the given burst, or nil when perSecond is not positive.
func NewFetchLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// NewOrigin returns an Origin using client, or a streaming client with
// default timeouts when client is nil.
func NewOrigin(client *http.Client) *Origin {
	if client == nil {
		client = httpx.NewStreamingClient(0, 0)
	}
	return &Origin{Client: client}
}

// Serve fetches originURL with the client's Range/If-Range and relays the
// upstream response. Upstream statuses, including errors, pass through
// untouched; only transport failures are mapped to 502 or 504.
func (o *Origin) Serve(w http.ResponseWriter, r *http.Request, originURL string, opts Options) Result {
	ctx := r.Context()
	logger := log.WithComponentFromContext(ctx, "stream")
	safeURL := pnet.SanitizeURL(originURL)

	target, err := pnet.ParseOriginURL(originURL)
	if err != nil {
		metrics.IncOriginFailure("invalid_url")
		logger.Warn().Err(err).Str(log.FieldEvent, "stream.origin_invalid").Str(log.FieldOriginURL, safeURL).Msg("rejected origin url")
		httpx.WriteError(w, r, http.StatusBadGateway, "Invalid origin URL")
		return Result{Status: http.StatusBadGateway, Err: err}
	}

	method := http.MethodGet
	if r.Method == http.MethodHead {
		method = http.MethodHead
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		metrics.IncOriginFailure("invalid_url")
		httpx.WriteError(w, r, http.StatusBadGateway, "Invalid origin URL")
		return Result{Status: http.StatusBadGateway, Err: err}
	}
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	req.Header.Set("Accept-Encoding", "identity")

	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return Result{Status: StatusClientClosedRequest, Err: err}
			}
			metrics.IncOriginFailure("throttled")
			logger.Warn().Err(err).Str(log.FieldEvent, "stream.origin_throttled").Str(log.FieldOriginURL, safeURL).Msg("origin fetch budget exhausted")
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "Origin busy")
			return Result{Status: http.StatusServiceUnavailable, Err: err}
		}
	}

	started := time.Now()
	resp, err := o.Client.Do(req)
	if err != nil {
		metrics.ObserveOriginFetch(false, time.Since(started))
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Debug().Err(err).Str(log.FieldEvent, "stream.origin_cancelled").Str(log.FieldOriginURL, safeURL).Msg("client cancelled origin fetch")
			return Result{Status: StatusClientClosedRequest, Err: err}
		}
		status, msg, reason := http.StatusBadGateway, "Origin unavailable", "network"
		if httpx.IsTimeout(err) {
			status, msg, reason = http.StatusGatewayTimeout, "Origin timeout", "timeout"
		}
		metrics.IncOriginFailure(reason)
		logger.Warn().Err(err).
			Str(log.FieldEvent, "stream.origin_failed").
			Str(log.FieldOriginURL, safeURL).
			Int(log.FieldStatus, status).
			Msg("origin fetch failed")
		httpx.WriteError(w, r, status, msg)
		return Result{Status: status, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveOriginFetch(true, time.Since(started))

	h := w.Header()
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}
	h.Set("Content-Type", contentType)
	for _, name := range relayedResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", opts.cacheControl())
	if opts.Disposition != "" {
		h.Set("Content-Disposition", opts.Disposition)
	}
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		return Result{Status: resp.StatusCode}
	}

	buf := make([]byte, copyBufferSize)
	written, err := io.CopyBuffer(w, resp.Body, buf)
	metrics.AddStreamBytes(metrics.SourceOrigin, written)
	if err != nil {
		metrics.IncStreamAbort(metrics.SourceOrigin)
		logger.Debug().Err(err).
			Str(log.FieldEvent, "stream.aborted").
			Str(log.FieldSource, metrics.SourceOrigin).
			Str(log.FieldOriginURL, safeURL).
			Int64(log.FieldBytes, written).
			Msg("origin relay ended early")
		return Result{Status: resp.StatusCode, Bytes: written, Err: err}
	}
	return Result{Status: resp.StatusCode, Bytes: written}
}
