package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hospitalcms/backend/libs/handlers"
	"go.uber.org/zap"
)

// HistoryCleaner removes old save records
type HistoryCleaner interface {
	// Method DeleteOlderThan deletes save records created at or before the given time
	//
	// "before" parameter is the cutoff time.
	//
	// Returns the number of deleted records.
	DeleteOlderThan(ctx context.Context, before time.Time) (int, error)
}

// HistoryCleaningHandler handles save history retention requests
type HistoryCleaningHandler struct {
	handlers.BaseHandler
	cleaner   HistoryCleaner
	retention time.Duration
	now       func() time.Time
}

// NewHistoryCleaningHandler creates a new history cleaning handler
func NewHistoryCleaningHandler(cleaner HistoryCleaner, retention time.Duration, logger *zap.Logger) *HistoryCleaningHandler {
	return &HistoryCleaningHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		cleaner:     cleaner,
		retention:   retention,
		now:         time.Now,
	}
}

// RegisterRoutes registers history cleaning handler routes
func (h *HistoryCleaningHandler) RegisterRoutes(r chi.Router) {
	r.Post("/history/clean", h.CleanHistory)
}

// CleanHistory handles POST /history/clean
// @Summary Clean old save history
// @Description Removes all save records older than the configured retention
// @Tags history
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "Number of deleted records"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /history/clean [post]
func (h *HistoryCleaningHandler) CleanHistory(w http.ResponseWriter, r *http.Request) {
	before := h.now().Add(-h.retention)

	deleted, err := h.cleaner.DeleteOlderThan(r.Context(), before)
	if err != nil {
		h.Logger.Error("failed to clean save history", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// 0 deleted rows is not an error
	h.Logger.Info("save history cleaned", zap.Int("deleted", deleted), zap.Time("before", before))
	h.RespondJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
