package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerMetadata) }

func registerMetadata(r chi.Router, d deps.Deps) {
	r.Get("/metadata", handlers.Metadata(d))
}
