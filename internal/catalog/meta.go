// SPDX-License-Identifier: MIT

// Package catalog owns the set of known videos: the persisted index file
// merged with whatever video files sit in the videos directory.
package catalog

import (
	"path/filepath"
	"strings"
)

// VideoMeta is one catalog entry. The JSON form is the index file format.
type VideoMeta struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Filename        string  `json:"filename"`
	OriginURL       string  `json:"originUrl,omitempty"`
	ThumbnailURL    string  `json:"thumbnailUrl,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	SizeBytes       int64   `json:"sizeBytes,omitempty"`
}

// videoExtensions are the file extensions picked up by a directory scan.
var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".webm": {},
	".mkv":  {},
	".mov":  {},
	".avi":  {},
}

// IsVideoFile reports whether name carries a known video extension.
func IsVideoFile(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// idFromFilename strips the extension: "my_clip.mp4" -> "my_clip".
func idFromFilename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// titleFromID turns separators into spaces: "my_clip-2" -> "my clip 2".
func titleFromID(id string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		}
		return r
	}, id)
	return strings.Join(strings.Fields(replaced), " ")
}
