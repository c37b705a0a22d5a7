// SPDX-License-Identifier: MIT

// Package httpx holds the outbound HTTP client and the JSON response helpers
// shared by the stream and api packages.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultHeaderTimeout         = 15 * time.Second
	defaultDialTimeout           = 5 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 64
	defaultMaxIdleConnsPerHost   = 8
)

// NewStreamingClient returns a client for long-lived body transfers.
//
// Client.Timeout is left at zero: it would cut off large video bodies that are
// still flowing. Slow or dead origins are bounded by the dial, TLS handshake
// and response header timeouts instead; cancellation of the body read comes
// from the request context.
func NewStreamingClient(headerTimeout, dialTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(newTransport(headerTimeout, dialTimeout)),
	}
}

func newTransport(headerTimeout, dialTimeout time.Duration) *http.Transport {
	if headerTimeout <= 0 {
		headerTimeout = defaultHeaderTimeout
	}
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	if dialTimeout > headerTimeout {
		dialTimeout = headerTimeout
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
		// Video bytes are already compressed; asking for gzip only breaks
		// Content-Length and byte ranges.
		DisableCompression: true,
	}
}
