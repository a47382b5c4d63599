package services

import (
	"context"
	"errors"
	"sort"

	"github.com/hospitalcms/backend/internal/contentapi"
	cms "github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/settings"
	"github.com/hospitalcms/backend/services/editor-service/internal/models"
	"go.uber.org/zap"
)

// ErrSettingsRejected is returned when the content API did not accept a settings update
var ErrSettingsRejected = errors.New("failed to update header settings")

// SettingsClient is the part of the content API that serves header settings
type SettingsClient interface {
	// Method GetHeaderSettings fetches all header settings
	GetHeaderSettings(ctx context.Context) ([]cms.HeaderSetting, error)
	// Method UpdateHeaderSettings submits changed settings
	UpdateHeaderSettings(ctx context.Context, update cms.SettingsUpdate) (*cms.UpdateResult, error)
}

// settingsService edits the flat header settings
type settingsService struct {
	client SettingsClient
	logger *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(client SettingsClient, logger *zap.Logger) *settingsService {
	return &settingsService{
		client: client,
		logger: logger,
	}
}

// Get returns the current header settings
func (s *settingsService) Get(ctx context.Context) ([]cms.HeaderSetting, error) {
	return s.client.GetHeaderSettings(ctx)
}

// Update diffs the requested values against the current settings and submits only the changed ones
func (s *settingsService) Update(ctx context.Context, req *models.HeaderSettingsUpdateRequest) (*models.HeaderSettingsSaveResponse, error) {
	current, err := s.client.GetHeaderSettings(ctx)
	if err != nil {
		return nil, err
	}

	sess := settings.NewSession(current)
	keys := make([]string, 0, len(req.Settings))
	for key := range req.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := sess.SetByKey(key, req.Settings[key]); err != nil {
			return nil, err
		}
	}

	update := sess.Changes()
	labels := sess.Labels()
	if len(update.Settings) == 0 {
		return &models.HeaderSettingsSaveResponse{Success: true, Message: "no changes", Changes: labels}, nil
	}

	result, err := s.client.UpdateHeaderSettings(ctx, update)
	if err != nil {
		resp := &models.HeaderSettingsSaveResponse{Success: false, Message: ErrSettingsRejected.Error(), Changes: labels}
		var apiErr *contentapi.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			resp.Message = apiErr.Message
		}
		return resp, err
	}
	resp := &models.HeaderSettingsSaveResponse{Success: result.Success, Message: result.Message, Changes: labels}
	if !result.Success {
		if resp.Message == "" {
			resp.Message = ErrSettingsRejected.Error()
		}
		return resp, ErrSettingsRejected
	}

	s.logger.Info("Header settings updated", zap.Strings("changes", labels))
	return resp, nil
}
