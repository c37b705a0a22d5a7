// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
)

const (
	corsAllowMethods  = "GET, HEAD, POST, OPTIONS"
	corsAllowHeaders  = "Content-Type, Range, If-Range, X-Request-ID"
	corsExposeHeaders = "Accept-Ranges, Content-Length, Content-Range, Content-Disposition, X-Request-ID"
)

// CORS sets Cross-Origin Resource Sharing headers and answers every OPTIONS
// request with 204. An allow list containing "*" (or an empty list) is fully
// permissive and sends "Access-Control-Allow-Origin: *". Otherwise only listed
// origins are echoed back; other browsers get no allow header and block the
// response themselves.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	allowAll := len(allowedOrigins) == 0 || allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			switch origin := r.Header.Get("Origin"); {
			case allowAll:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Set("Access-Control-Max-Age", "600")

			if r.Method == http.MethodOptions {
				h.Set("Allow", corsAllowMethods)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
