package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	cms "github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/editor"
	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/session"
	"github.com/hospitalcms/backend/services/editor-service/internal/models"
	"go.uber.org/zap"
)

// DefaultHistoryLimit caps the number of save records returned when no limit is given
const DefaultHistoryLimit = 20

// ContentClient is the part of the content API the editor service talks to
type ContentClient interface {
	// Method GetSection fetches the current blocks of a section
	//
	// "sectionID" parameter is the section id.
	//
	// Returns the section with its version.
	GetSection(ctx context.Context, sectionID int) (*cms.Section, error)

	// Method UpdateSection submits a partial update built against version
	UpdateSection(ctx context.Context, sectionID int, version string, update cms.SectionUpdate) (*cms.UpdateResult, error)

	// Method UploadFile uploads a media file
	//
	// "filename" parameter is the original file name.
	// "r" parameter is the file content.
	//
	// Returns the stored file id, or an error.
	UploadFile(ctx context.Context, filename string, r io.Reader) (*cms.UploadResult, error)
}

// SessionStore keeps editing sessions between requests
type SessionStore interface {
	// Method Get returns a session by id, or an error wrapping store.ErrSessionNotFound
	Get(ctx context.Context, id string) (*session.Session, error)
	// Method Save stores the session
	Save(ctx context.Context, sess *session.Session) error
	// Method Delete removes the session
	Delete(ctx context.Context, id string) error
}

// SaveHistoryRepository records save attempts
type SaveHistoryRepository interface {
	// Method Create inserts a save record
	Create(ctx context.Context, record *models.SaveRecord) error
	// Method ListBySection returns up to limit records of a section, newest first
	ListBySection(ctx context.Context, sectionID, limit int) ([]models.SaveRecord, error)
}

// editorService runs the editing sessions of section editors
type editorService struct {
	client  ContentClient
	store   SessionStore
	history SaveHistoryRepository
	saver   *editor.Saver
	logger  *zap.Logger
}

// NewEditorService creates a new editor service
func NewEditorService(client ContentClient, store SessionStore, history SaveHistoryRepository, submitEmpty bool, logger *zap.Logger) *editorService {
	return &editorService{
		client:  client,
		store:   store,
		history: history,
		saver:   editor.NewSaver(client, submitEmpty, logger),
		logger:  logger,
	}
}

// OpenSession fetches the section, derives its snapshot and captures it as the session baseline
func (s *editorService) OpenSession(ctx context.Context, sectionID int, req *models.OpenSessionRequest) (*models.SessionResponse, error) {
	if sectionID <= 0 {
		return nil, fmt.Errorf("invalid section id: %d", sectionID)
	}
	l, err := layout.Lookup(req.Layout)
	if err != nil {
		return nil, err
	}

	section, err := s.client.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	info := session.Section{ID: sectionID, Name: section.Name, Title: section.Title}
	if req.Title != "" {
		info.Title = req.Title
	}

	sess := session.New("", l, info)
	sess.Load(section.Blocks, section.Version)

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Info("Editing session opened",
		zap.String("session_id", sess.ID()),
		zap.Int("section_id", sectionID),
		zap.String("layout", l.Name),
	)
	return sessionResponse(sess), nil
}

// GetSession returns the working copy of a session
func (s *editorService) GetSession(ctx context.Context, id string) (*models.SessionResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

// SetField changes one field of the working copy
func (s *editorService) SetField(ctx context.Context, id string, req *models.SetFieldRequest) (*models.SessionResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetField(req.Path, req.Value); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

// AddItem appends a new item to a collection
func (s *editorService) AddItem(ctx context.Context, id, collection string) (*models.ItemResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := sess.AddItem(collection)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return &models.ItemResponse{SessionID: id, Item: item}, nil
}

// RemoveItem drops an item from a collection
func (s *editorService) RemoveItem(ctx context.Context, id, collection, key string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := sess.RemoveItem(collection, key); err != nil {
		return err
	}
	return s.store.Save(ctx, sess)
}

// MoveItem reorders a collection
func (s *editorService) MoveItem(ctx context.Context, id, collection string, req *models.MoveItemRequest) (*models.SessionResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.MoveItem(collection, req.From, req.To); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sessionResponse(sess), nil
}

// Upload sends a file to the content API and stores its id in the media field.
// A failed upload puts the previous media back.
func (s *editorService) Upload(ctx context.Context, id, field, filename string, r io.Reader) (*models.ItemResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item, uploadErr := sess.Upload(ctx, s.client, field, filename, r)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	if uploadErr != nil {
		s.logger.Warn("Upload failed",
			zap.String("session_id", id),
			zap.String("field", field),
			zap.Error(uploadErr),
		)
		return nil, uploadErr
	}
	return &models.ItemResponse{SessionID: id, Item: item}, nil
}

// Changes previews the update a save would submit
func (s *editorService) Changes(ctx context.Context, id string) (*models.ChangesResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.saver.Preview(sess)
	if err != nil {
		return nil, err
	}
	return &models.ChangesResponse{
		Empty:      res.Empty(),
		Changes:    res.Changes,
		UpdateData: res.Update,
	}, nil
}

// Save submits the session changes and records the attempt.
// The response is returned together with the error when the content API rejected the save.
func (s *editorService) Save(ctx context.Context, id string, operatorID int) (*models.SaveResponse, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome, saveErr := s.saver.Save(ctx, sess)
	if outcome == nil {
		return nil, saveErr
	}

	// the content API already has the outcome, so a store failure must not turn it into an error
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.Error("Failed to store session after save",
			zap.String("session_id", sess.ID()),
			zap.Bool("success", outcome.Success),
			zap.Error(err),
		)
	}

	if !outcome.Skipped {
		s.record(ctx, sess, operatorID, outcome)
	}

	resp := &models.SaveResponse{
		Success: outcome.Success,
		Skipped: outcome.Skipped,
		Message: outcome.Message,
		Changes: outcome.Changes,
		Warning: outcome.ReloadError,
	}
	return resp, saveErr
}

// CloseSession drops a session and its unsaved changes
func (s *editorService) CloseSession(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// History returns the latest save attempts of a section
func (s *editorService) History(ctx context.Context, sectionID, limit int) ([]models.SaveRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultHistoryLimit
	}
	return s.history.ListBySection(ctx, sectionID, limit)
}

// record stores a save attempt; failures are logged and do not affect the save
func (s *editorService) record(ctx context.Context, sess *session.Session, operatorID int, outcome *editor.Outcome) {
	record := &models.SaveRecord{
		SectionID:  sess.Section().ID,
		Layout:     sess.Layout().Name,
		OperatorID: operatorID,
		Changes:    outcome.Changes,
		Success:    outcome.Success,
		Message:    outcome.Message,
	}
	if err := s.history.Create(ctx, record); err != nil {
		s.logger.Error("Failed to record save",
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
	}
}

func sessionResponse(sess *session.Session) *models.SessionResponse {
	return &models.SessionResponse{
		SessionID:     sess.ID(),
		Layout:        sess.Layout().Name,
		SectionID:     sess.Section().ID,
		Version:       sess.Version(),
		Dirty:         sess.Dirty(),
		Working:       sess.Working(),
		ReloadPending: sess.ReloadPending(),
	}
}

// IsClientError reports whether err was caused by the request rather than the server
func IsClientError(err error) bool {
	return errors.Is(err, layout.ErrUnknownLayout) ||
		errors.Is(err, session.ErrUnknownField) ||
		errors.Is(err, session.ErrUnknownCollection) ||
		errors.Is(err, session.ErrItemNotFound) ||
		errors.Is(err, session.ErrInvalidValue) ||
		errors.Is(err, session.ErrInvalidPosition)
}
