// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test"})
	require.NoError(t, err)
	assert.False(t, provider.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNoopProvider(t *testing.T) {
	provider := NoopProvider()
	require.NotNil(t, provider)
	assert.False(t, provider.Enabled())

	_, span := Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "test",
		ExporterType: "carrier-pigeon",
	})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: carrier-pigeon (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporterLifecycle(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "test",
		ExporterType: ExporterHTTP,
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 1,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())
	t.Cleanup(func() {
		_, _ = NewProvider(context.Background(), Config{})
	})

	_, span := Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// No span is ended, so there is nothing to flush to the unreachable collector.
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStreamAttributes_OmitsEmpty(t *testing.T) {
	attrs := StreamAttributes("v1", "", "bytes=0-")
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(VideoIDKey, "v1"),
		attribute.String(RangeKey, "bytes=0-"),
	}, attrs)
}

func TestCatalogAttributes(t *testing.T) {
	attrs := CatalogAttributes("api", 3)
	require.Len(t, attrs, 2)
	assert.Equal(t, int64(3), attrs[1].Value.AsInt64())
}
