package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/keepmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/keepmark/internal/logger"
)

// RefreshMetadata asks the metadata refresher for an immediate run.
func RefreshMetadata(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual metadata refresh triggered via endpoint",
				logger.String("user", currentUser(r)))
			writeJSON(w, http.StatusAccepted, messageResponse{Message: "Metadata refresh triggered"})
		default:
			d.Logger.Warn("metadata refresh already pending",
				logger.String("user", currentUser(r)))
			writeError(w, http.StatusTooManyRequests, "Metadata refresh already in progress, please wait")
		}
	}
}
