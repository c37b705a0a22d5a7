// SPDX-License-Identifier: MIT

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = 1000
	tests := []struct {
		name    string
		header  string
		chunk   int64
		want    Range
		wantErr error
	}{
		{name: "explicit", header: "bytes=0-99", chunk: 500, want: Range{0, 99}},
		{name: "open end uses chunk", header: "bytes=0-", chunk: 100, want: Range{0, 99}},
		{name: "open end clamped to size", header: "bytes=950-", chunk: 100, want: Range{950, 999}},
		{name: "end clamped", header: "bytes=900-5000", chunk: 100, want: Range{900, 999}},
		{name: "single byte", header: "bytes=999-999", chunk: 100, want: Range{999, 999}},
		{name: "huge end clamped", header: "bytes=10-99999999999999999999", chunk: 100, want: Range{10, 999}},
		{name: "default chunk", header: "bytes=0-", chunk: 0, want: Range{0, 999}},
		{name: "not bytes", header: "potatoes", wantErr: ErrMalformedRange},
		{name: "suffix", header: "bytes=-500", wantErr: ErrMalformedRange},
		{name: "multi", header: "bytes=0-1,5-6", wantErr: ErrMalformedRange},
		{name: "spaces", header: "bytes= 0-1", wantErr: ErrMalformedRange},
		{name: "start past end of file", header: "bytes=1000-", wantErr: ErrUnsatisfiableRange},
		{name: "end before start", header: "bytes=500-100", wantErr: ErrUnsatisfiableRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, size, tt.chunk)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRange_EmptyFileIsUnsatisfiable(t *testing.T) {
	_, err := ParseRange("bytes=0-", 0, 100)
	require.ErrorIs(t, err, ErrUnsatisfiableRange)
}

func TestRangeHeaders(t *testing.T) {
	r := Range{Start: 100, End: 199}
	assert.Equal(t, int64(100), r.Length())
	assert.Equal(t, "bytes 100-199/1000", r.ContentRange(1000))
	assert.Equal(t, "bytes */1000", UnsatisfiedContentRange(1000))
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"a.mp4":     "video/mp4",
		"a.WEBM":    "video/webm",
		"a.mkv":     "video/x-matroska",
		"a.mov":     "video/quicktime",
		"a.avi":     "video/x-msvideo",
		"a.ogv":     "video/ogg",
		"a.m4v":     "video/x-m4v",
		"a.bin":     "video/mp4",
		"noext":     "video/mp4",
		"dir/x.mkv": "video/x-matroska",
	}
	for name, want := range cases {
		assert.Equal(t, want, ContentTypeFor(name), name)
	}
}
