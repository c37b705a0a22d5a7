// SPDX-License-Identifier: MIT

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
)

// Recoverer turns a handler panic into a logged 500 so one bad request never
// takes the process down. http.ErrAbortHandler is re-raised for net/http to
// handle silently.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger := xglog.WithComponentFromContext(r.Context(), "api")
			logger.Error().
				Str(xglog.FieldEvent, "request.panic").
				Str(xglog.FieldPath, r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("recovered from handler panic")

			httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
