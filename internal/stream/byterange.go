// SPDX-License-Identifier: MIT

package stream

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// DefaultChunkSize bounds open-ended ranges ("bytes=N-") so players pull the
// file in pieces instead of one long response.
const DefaultChunkSize int64 = 1 << 20

var (
	// ErrMalformedRange is returned when the header is not a single
	// "bytes=<start>-<end>" range.
	ErrMalformedRange = errors.New("malformed range")
	// ErrUnsatisfiableRange is returned when the range lies outside the file.
	ErrUnsatisfiableRange = errors.New("range not satisfiable")
)

var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// Range is an inclusive byte range [Start, End].
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by r.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a 206 response.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiedContentRange formats the Content-Range header value for a 416.
func UnsatisfiedContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange parses a Range header against a resource of the given size.
// An omitted end yields at most chunk bytes; an end past the file is clamped.
// Suffix and multi-part ranges are rejected as malformed.
func ParseRange(header string, size, chunk int64) (Range, error) {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start: %v", ErrMalformedRange, err)
	}
	if start >= size {
		return Range{}, fmt.Errorf("%w: start %d, size %d", ErrUnsatisfiableRange, start, size)
	}

	var end int64
	if m[2] == "" {
		end = start + chunk - 1
		if end < start { // overflow
			end = size - 1
		}
	} else {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			// Digits that overflow int64 are past any real file.
			end = size - 1
		}
		if end < start {
			return Range{}, fmt.Errorf("%w: end %d before start %d", ErrUnsatisfiableRange, end, start)
		}
	}
	if end > size-1 {
		end = size - 1
	}

	return Range{Start: start, End: end}, nil
}
