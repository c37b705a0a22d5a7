// SPDX-License-Identifier: MIT

package stream

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is used for unknown extensions and origin responses
// without a Content-Type.
const DefaultContentType = "video/mp4"

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".ogv":  "video/ogg",
	".m4v":  "video/x-m4v",
}

// ContentTypeFor maps a file name to its video MIME type.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return DefaultContentType
}
