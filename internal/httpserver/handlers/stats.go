package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
)

func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		notes, err := d.Store.ListNotes(r.Context(), user)
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		bookmarks, err := d.Store.ListBookmarks(r.Context(), user)
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, domain.ComputeStats(notes, bookmarks, d.Now()))
	}
}
