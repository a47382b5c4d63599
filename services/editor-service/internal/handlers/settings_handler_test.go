package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hospitalcms/backend/internal/contentapi"
	cms "github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/settings"
	"github.com/hospitalcms/backend/services/editor-service/internal/models"
	"github.com/hospitalcms/backend/services/editor-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockSettingsService is a mock implementation of SettingsService
type mockSettingsService struct {
	current []cms.HeaderSetting
	resp    *models.HeaderSettingsSaveResponse
	err     error
	lastReq *models.HeaderSettingsUpdateRequest
}

func (m *mockSettingsService) Get(ctx context.Context) ([]cms.HeaderSetting, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.current, nil
}

func (m *mockSettingsService) Update(ctx context.Context, req *models.HeaderSettingsUpdateRequest) (*models.HeaderSettingsSaveResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func setupSettingsRouter(svc *mockSettingsService) http.Handler {
	h := NewSettingsHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestSettingsHandler_GetSettings(t *testing.T) {
	svc := &mockSettingsService{current: []cms.HeaderSetting{{ID: 1, SettingKey: "phone", SettingValue: "108"}}}

	w := doRequest(t, setupSettingsRouter(svc), http.MethodGet, "/header/settings", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var got []cms.HeaderSetting
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, svc.current, got)
}

func TestSettingsHandler_UpdateSettings(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		resp           *models.HeaderSettingsSaveResponse
		err            error
		expectedStatus int
	}{
		{
			name:           "success",
			body:           `{"settings":{"phone":"112"}}`,
			resp:           &models.HeaderSettingsSaveResponse{Success: true, Changes: []string{"phone"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty settings",
			body:           `{"settings":{}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown setting",
			body:           `{"settings":{"fax":"1"}}`,
			err:            fmt.Errorf("%w: fax", settings.ErrUnknownSetting),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rejected",
			body:           `{"settings":{"phone":"1"}}`,
			resp:           &models.HeaderSettingsSaveResponse{Success: false, Message: "invalid phone"},
			err:            services.ErrSettingsRejected,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "api error",
			body:           `{"settings":{"phone":"1"}}`,
			resp:           &models.HeaderSettingsSaveResponse{Success: false, Message: "Phone number is invalid", Changes: []string{"phone"}},
			err:            &contentapi.APIError{StatusCode: 422, Message: "Phone number is invalid"},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "unexpected error",
			body:           `{"settings":{"phone":"1"}}`,
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSettingsService{resp: tt.resp, err: tt.err}

			w := doRequest(t, setupSettingsRouter(svc), http.MethodPut, "/header/settings", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.resp != nil {
				var got models.HeaderSettingsSaveResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, *tt.resp, got)
			}
		})
	}
}
