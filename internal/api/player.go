// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/platform/httpx"
)

//go:embed templates/player.html
var templateFS embed.FS

var playerTemplate = template.Must(template.New("player.html").Funcs(template.FuncMap{
	"humanBytes": humanBytes,
}).ParseFS(templateFS, "templates/player.html"))

type playerPage struct {
	Version string
	Videos  []videoDTO
}

// handlePlayer renders the catalog page with an inline HTML5 player.
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := playerTemplate.Execute(&buf, playerPage{Version: s.cfg.Version, Videos: s.videoList()}); err != nil {
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str(xglog.FieldEvent, "player.render_failed").Msg("could not render player page")
		httpx.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n <= 0 {
		return ""
	}
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 4; m /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + " " + string("KMGTP"[exp]) + "iB"
}
