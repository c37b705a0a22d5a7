// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldVideoID   = "video_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Streaming fields
	FieldSource = "source"
	FieldRange  = "range"
	FieldBytes  = "bytes"
	FieldStatus = "status"

	// Path / URL fields
	FieldPath      = "path"
	FieldOriginURL = "origin_url"
	FieldIndexPath = "index_path"
	FieldVideosDir = "videos_dir"
)
