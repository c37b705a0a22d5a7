// SPDX-License-Identifier: MIT

package middleware

import (
	"io"
	"net/http"
)

// statusWriter records the response status and body size. It forwards Flush
// and ReadFrom, and exposes Unwrap so http.ResponseController reaches the
// real writer.
type statusWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	written      bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	if !sw.written {
		sw.statusCode = statusCode
		sw.written = true
	}
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.written {
		sw.WriteHeader(http.StatusOK)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytesWritten += int64(n)
	return n, err
}

// ReadFrom keeps the underlying writer's io.ReaderFrom fast path (sendfile
// on *net.TCPConn) reachable through the wrapper.
func (sw *statusWriter) ReadFrom(src io.Reader) (int64, error) {
	if !sw.written {
		sw.WriteHeader(http.StatusOK)
	}
	var (
		n   int64
		err error
	)
	if rf, ok := sw.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(src)
	} else {
		n, err = io.Copy(writerOnly{sw.ResponseWriter}, src)
	}
	sw.bytesWritten += n
	return n, err
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// writerOnly hides any ReadFrom method so io.Copy does not recurse into it.
type writerOnly struct {
	io.Writer
}
