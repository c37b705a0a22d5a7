// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across packages.
const (
	HTTPRouteKey      = "http.route"
	HTTPStatusCodeKey = "http.status_code"

	VideoIDKey     = "video.id"
	VideoSourceKey = "video.source"
	RangeKey       = "video.range"
	BytesKey       = "video.bytes"

	CatalogTriggerKey = "catalog.trigger"
	CatalogVideosKey  = "catalog.videos"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// StreamAttributes describes a stream or download request. Empty values are
// omitted.
func StreamAttributes(videoID, source, rangeHeader string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if videoID != "" {
		attrs = append(attrs, attribute.String(VideoIDKey, videoID))
	}
	if source != "" {
		attrs = append(attrs, attribute.String(VideoSourceKey, source))
	}
	if rangeHeader != "" {
		attrs = append(attrs, attribute.String(RangeKey, rangeHeader))
	}
	return attrs
}

// ResultAttributes records how a stream response ended.
func ResultAttributes(status int, bytes int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(HTTPStatusCodeKey, status),
		attribute.Int64(BytesKey, bytes),
	}
}

// CatalogAttributes describes a catalog load.
func CatalogAttributes(trigger string, videos int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CatalogTriggerKey, trigger),
		attribute.Int(CatalogVideosKey, videos),
	}
}

// ErrorAttributes flags a span as failed with a coarse error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
