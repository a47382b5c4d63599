package handlers

import (
	"errors"
	"net/http"

	"github.com/hospitalcms/backend/internal/contentapi"
	"github.com/hospitalcms/backend/internal/editor"
	"github.com/hospitalcms/backend/internal/payload"
	"github.com/hospitalcms/backend/internal/session"
	"github.com/hospitalcms/backend/internal/settings"
	"github.com/hospitalcms/backend/services/editor-service/internal/services"
	"github.com/hospitalcms/backend/services/editor-service/internal/store"
)

// statusOf maps a service error to the HTTP status and the message shown to the caller
func statusOf(err error) (int, string) {
	var apiErr *contentapi.APIError

	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, contentapi.ErrNotFound):
		return http.StatusNotFound, "section not found"
	case errors.Is(err, contentapi.ErrConflict):
		return http.StatusConflict, contentapi.ErrConflict.Error()
	case errors.Is(err, payload.ErrBaselineNotLoaded), errors.Is(err, session.ErrNotLoaded):
		return http.StatusConflict, "section is not loaded"
	case errors.Is(err, editor.ErrReloadRequired):
		return http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrStaleUpload):
		return http.StatusConflict, "upload was superseded by a newer one"
	case errors.Is(err, session.ErrUploadFailed):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, editor.ErrSaveFailed), errors.Is(err, services.ErrSettingsRejected):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, settings.ErrUnknownSetting), services.IsClientError(err):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return http.StatusBadGateway, apiErr.Message
		}
		return http.StatusBadGateway, "content API error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
