package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
)

// Metadata previews what bookmark creation would scrape for ?url=.
func Metadata(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := strings.TrimSpace(r.URL.Query().Get("url"))
		if target == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		writeJSON(w, http.StatusOK, d.Extractor.Extract(r.Context(), target))
	}
}
