package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
)

const banner = "Personal Notes API is running..."

// Root answers with a plain-text banner.
func Root(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(banner))
	}
}
