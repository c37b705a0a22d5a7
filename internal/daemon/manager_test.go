// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ManuGH/vidserve/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func getStatus(t *testing.T, url string) int {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		ReadTimeout:     5 * time.Second,
		IdleTimeout:     30 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		want error
	}{
		{"missing logger", Deps{Logger: zerolog.Nop(), ListenAddr: ":0", APIHandler: http.NotFoundHandler()}, ErrMissingLogger},
		{"missing handler", Deps{Logger: testLogger(), ListenAddr: ":0"}, ErrMissingAPIHandler},
		{"missing addr", Deps{Logger: testLogger(), APIHandler: http.NotFoundHandler()}, ErrMissingListenAddr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(testServerConfig(), tt.deps)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestManager_StartServeShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	apiAddr := reserveListenAddr(t)
	metricsAddr := reserveListenAddr(t)
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:         testLogger(),
		ListenAddr:     apiAddr,
		APIHandler:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
		MetricsHandler: MetricsHandler(),
		MetricsAddr:    metricsAddr,
	})
	require.NoError(t, err)

	hookRan := make(chan struct{})
	mgr.RegisterShutdownHook("flush", func(context.Context) error {
		close(hookRan)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	require.NoError(t, waitForListen(apiAddr, 2*time.Second))
	require.NoError(t, waitForListen(metricsAddr, 2*time.Second))
	assert.Equal(t, http.StatusTeapot, getStatus(t, "http://"+apiAddr+"/"))
	assert.Equal(t, http.StatusOK, getStatus(t, "http://"+metricsAddr+"/metrics"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	<-hookRan
}

func TestManager_BindFailureIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:     testLogger(),
		ListenAddr: ln.Addr().String(),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	err = mgr.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start API server")
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:     testLogger(),
		ListenAddr: "127.0.0.1:0",
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_StartTwice(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:     testLogger(),
		ListenAddr: reserveListenAddr(t),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	assert.Error(t, mgr.Start(ctx))
	cancel()
	require.NoError(t, <-done)
}
