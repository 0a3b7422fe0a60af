package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
)

func CreateNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.NoteInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		note, err := domain.NewNote(currentUser(r), in, d.Now())
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		if err := d.Store.CreateNote(r.Context(), note); err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		d.Logger.Debug("note created",
			logger.String("id", note.ID),
			logger.String("user", note.User))
		writeJSON(w, http.StatusCreated, note)
	}
}

func ListNotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := domain.ParseListFilter(listParams(r), d.Now())
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		notes, err := d.Store.ListNotes(r.Context(), currentUser(r))
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		out := make([]*domain.Note, 0, len(notes))
		for _, n := range notes {
			if filter.MatchNote(n) {
				out = append(out, n)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		note, err := d.Store.GetNote(r.Context(), currentUser(r), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	}
}

func UpdateNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.NotePatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		now := d.Now()
		note, err := d.Store.UpdateNote(r.Context(), currentUser(r), chi.URLParam(r, "id"),
			func(n *domain.Note) error { return patch.Apply(n, now) })
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	}
}

func DeleteNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.DeleteNote(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted successfully"})
	}
}

func ToggleNoteFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()
		note, err := d.Store.UpdateNote(r.Context(), currentUser(r), chi.URLParam(r, "id"),
			func(n *domain.Note) error {
				n.IsFavorite = !n.IsFavorite
				n.UpdatedAt = now
				return nil
			})
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	}
}
