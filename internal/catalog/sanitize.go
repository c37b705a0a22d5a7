// SPDX-License-Identifier: MIT

package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// maxFilenameRunes bounds the stem of a derived filename.
	maxFilenameRunes = 100
	fallbackStem     = "video"
	defaultExt       = ".mp4"
)

// SafeFilename derives a filesystem-safe ".mp4" filename from a title.
// Characters forbidden on common filesystems and control characters are
// dropped, whitespace runs become a single underscore and the stem is
// truncated. The result never contains a path separator and never starts
// with a dot.
func SafeFilename(title string) string {
	normalized := norm.NFC.String(title)

	var b strings.Builder
	b.Grow(len(normalized))
	pendingSpace := false
	for _, r := range normalized {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), r == 0:
			continue
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	stem := strings.TrimLeft(b.String(), "._")
	stem = strings.TrimRight(stem, "_")

	if runes := []rune(stem); len(runes) > maxFilenameRunes {
		stem = strings.TrimRight(string(runes[:maxFilenameRunes]), "_.")
	}
	if stem == "" {
		stem = fallbackStem
	}
	return stem + defaultExt
}
