package audit

import (
	"log/slog"
	"net/http"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/go-chi/chi/v5"
)

// TrailHandler serves GET /api/audit/{entity_id}.
func TrailHandler(log Log, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID := chi.URLParam(r, "entity_id")
		entries, err := log.Entries(r.Context(), entityID)
		if err != nil {
			logger.ErrorContext(r.Context(), "Failed to read audit trail",
				slog.String("entity_id", entityID),
				slog.String("error", err.Error()),
			)
			httpjson.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}
		if len(entries) == 0 {
			httpjson.WriteError(w, http.StatusNotFound, "not_found", "no audit entries for entity")
			return
		}
		httpjson.Write(w, http.StatusOK, entries)
	}
}
