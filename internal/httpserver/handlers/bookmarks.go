package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
)

// CreateBookmark validates the URL and, when no title was supplied, scrapes
// the page for a title, description and favicon. Caller values win.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.BookmarkInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		now := d.Now()
		bookmark, err := domain.NewBookmark(currentUser(r), in, now)
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		if in.NeedsMetadata() {
			meta := d.Extractor.Extract(r.Context(), in.URL)
			bookmark.EnrichFrom(meta.Title, meta.Description, meta.Favicon, d.Now())
			d.Logger.Debug("bookmark enriched from page metadata",
				logger.String("url", in.URL),
				logger.String("title", bookmark.Title))
		}

		if err := d.Store.CreateBookmark(r.Context(), bookmark); err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, bookmark)
	}
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := domain.ParseListFilter(listParams(r), d.Now())
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		bookmarks, err := d.Store.ListBookmarks(r.Context(), currentUser(r))
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}

		out := make([]*domain.Bookmark, 0, len(bookmarks))
		for _, b := range bookmarks {
			if filter.MatchBookmark(b) {
				out = append(out, b)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmark, err := d.Store.GetBookmark(r.Context(), currentUser(r), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmark)
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.BookmarkPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		now := d.Now()
		bookmark, err := d.Store.UpdateBookmark(r.Context(), currentUser(r), chi.URLParam(r, "id"),
			func(b *domain.Bookmark) error { return patch.Apply(b, now) })
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmark)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.DeleteBookmark(r.Context(), currentUser(r), chi.URLParam(r, "id")); err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted successfully"})
	}
}

func ToggleBookmarkFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()
		bookmark, err := d.Store.UpdateBookmark(r.Context(), currentUser(r), chi.URLParam(r, "id"),
			func(b *domain.Bookmark) error {
				b.IsFavorite = !b.IsFavorite
				b.UpdatedAt = now
				return nil
			})
		if err != nil {
			writeStoreError(d, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmark)
	}
}
