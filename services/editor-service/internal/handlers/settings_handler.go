package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	cms "github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/libs/handlers"
	"github.com/hospitalcms/backend/services/editor-service/internal/models"
	"go.uber.org/zap"
)

// SettingsService is the interface that wraps methods for header settings
type SettingsService interface {
	// Method Get returns the current header settings.
	Get(ctx context.Context) ([]cms.HeaderSetting, error)
	// Method Update submits the settings whose values differ from the current ones.
	//
	// "req" parameter holds the new values keyed by setting key.
	//
	// A rejected update returns the response together with the error.
	Update(ctx context.Context, req *models.HeaderSettingsUpdateRequest) (*models.HeaderSettingsSaveResponse, error)
}

// SettingsHandler handles header settings requests
type SettingsHandler struct {
	handlers.BaseHandler
	settingsService SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler:     handlers.BaseHandler{Logger: logger},
		settingsService: settingsService,
	}
}

// RegisterRoutes registers header settings routes
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/header/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateSettings)
	})
}

// GetSettings handles GET /header/settings
// @Summary Get header settings
// @Description Return all header settings of the site
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} cms.HeaderSetting
// @Failure 502 {object} map[string]string "Content API error"
// @Router /header/settings [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settingsService.Get(r.Context())
	if err != nil {
		status, message := statusOf(err)
		h.Logger.Error("failed to get header settings", zap.Error(err))
		h.RespondError(w, status, message)
		return
	}

	h.RespondJSON(w, http.StatusOK, current)
}

// UpdateSettings handles PUT /header/settings
// @Summary Update header settings
// @Description Submit only the settings whose values changed
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.HeaderSettingsUpdateRequest true "New values keyed by setting key"
// @Success 200 {object} models.HeaderSettingsSaveResponse
// @Failure 400 {object} map[string]string "Unknown setting"
// @Failure 502 {object} models.HeaderSettingsSaveResponse "Content API rejected the update"
// @Router /header/settings [put]
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.HeaderSettingsUpdateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Settings) == 0 {
		h.RespondError(w, http.StatusBadRequest, "settings are required")
		return
	}

	resp, err := h.settingsService.Update(r.Context(), &req)
	if err != nil {
		status, message := statusOf(err)
		h.Logger.Warn("failed to update header settings", zap.Error(err))
		if resp != nil {
			h.RespondJSON(w, status, resp)
			return
		}
		h.RespondError(w, status, message)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}
