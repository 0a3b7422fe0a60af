package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/keepmark/internal/domain"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// writeStoreError maps domain and store errors to HTTP responses.
func writeStoreError(d deps.Deps, w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	default:
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// currentUser returns the authenticated user's ID. Routes using it are
// mounted behind mw.Auth, so a missing user is a wiring bug.
func currentUser(r *http.Request) string {
	u, ok := mw.UserFrom(r.Context())
	if !ok {
		panic("handlers: request reached an authenticated handler without a user")
	}
	return u.ID
}

func listParams(r *http.Request) domain.ListParams {
	q := r.URL.Query()
	return domain.ListParams{
		Query:     q.Get("q"),
		Tags:      q.Get("tags"),
		Favorites: q.Get("favorites"),
		Since:     q.Get("since"),
	}
}
