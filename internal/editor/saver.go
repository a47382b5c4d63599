// Package editor runs the save flow of a section editing session.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hospitalcms/backend/internal/contentapi"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/payload"
	"github.com/hospitalcms/backend/internal/session"
	"github.com/hospitalcms/backend/internal/snapshot"
	"go.uber.org/zap"
)

// DefaultFailureMessage is reported when the content API rejects a save without a message
const DefaultFailureMessage = "failed to save section"

var (
	// ErrSaveFailed is returned when the content API did not accept the update
	ErrSaveFailed = errors.New(DefaultFailureMessage)
	// ErrReloadRequired is returned when blocks created by an earlier save never got their ids
	ErrReloadRequired = errors.New("section must be reloaded before saving again")
)

// SectionClient is the part of the content API the saver needs
type SectionClient interface {
	// Method GetSection fetches the current blocks of a section
	//
	// "sectionID" parameter is the section id.
	//
	// Returns the section with its version.
	GetSection(ctx context.Context, sectionID int) (*models.Section, error)

	// Method UpdateSection submits a partial update
	//
	// "sectionID" parameter is the section id.
	// "version" parameter is the version the update was built against; empty skips the check.
	// "update" parameter is the partial update.
	//
	// Returns the content API result, or ErrConflict when the version no longer matches.
	UpdateSection(ctx context.Context, sectionID int, version string, update models.SectionUpdate) (*models.UpdateResult, error)
}

// Outcome describes one save attempt
type Outcome struct {
	Success bool                 `json:"success"`
	Skipped bool                 `json:"skipped"`
	Message string               `json:"message"`
	Changes []string             `json:"changes"`
	Update  models.SectionUpdate `json:"updateData"`
	// ReloadError is set when the save succeeded but the created blocks could not be reloaded
	ReloadError string `json:"reloadError,omitempty"`
}

// Saver builds the payload of a session, submits it and moves the baseline on success
type Saver struct {
	client      SectionClient
	submitEmpty bool
	logger      *zap.Logger
}

// NewSaver creates a new saver. With submitEmpty false, saves without changes are skipped.
func NewSaver(client SectionClient, submitEmpty bool, logger *zap.Logger) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saver{
		client:      client,
		submitEmpty: submitEmpty,
		logger:      logger,
	}
}

// Preview builds the payload of the session without submitting it
func (s *Saver) Preview(sess *session.Session) (*payload.Result, error) {
	res, _, err := build(sess)
	return res, err
}

// Save submits the changes of the session.
// On failure the baseline is left untouched so the same changes are built again next time.
func (s *Saver) Save(ctx context.Context, sess *session.Session) (*Outcome, error) {
	if sess.ReloadPending() {
		if err := s.resume(ctx, sess); err != nil {
			return nil, err
		}
	}

	res, submitted, err := build(sess)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Changes: res.Changes, Update: res.Update}
	sectionID := sess.Section().ID

	if res.Empty() && !s.submitEmpty {
		outcome.Success = true
		outcome.Skipped = true
		outcome.Message = "no changes"
		return outcome, nil
	}

	result, err := s.client.UpdateSection(ctx, sectionID, sess.Version(), res.Update)
	if err != nil {
		outcome.Message = failureMessage(err)
		s.logger.Warn("section update failed",
			zap.String("session_id", sess.ID()),
			zap.Int("section_id", sectionID),
			zap.Error(err),
		)
		return outcome, fmt.Errorf("failed to save section %d: %w", sectionID, err)
	}

	if !result.Success {
		outcome.Message = result.Message
		if outcome.Message == "" {
			outcome.Message = DefaultFailureMessage
		}
		return outcome, fmt.Errorf("%w: %s", ErrSaveFailed, outcome.Message)
	}

	outcome.Success = true
	outcome.Message = result.Message
	sess.Commit(submitted, result.Version)

	if res.Created() {
		// new blocks only get their ids from the server
		if err := s.refresh(ctx, sess); err != nil {
			sess.MarkReloadPending()
			outcome.ReloadError = err.Error()
		}
	}

	s.logger.Info("section saved",
		zap.String("session_id", sess.ID()),
		zap.Int("section_id", sectionID),
		zap.Strings("changes", res.Changes),
	)
	return outcome, nil
}

func (s *Saver) refresh(ctx context.Context, sess *session.Session) error {
	section, err := s.client.GetSection(ctx, sess.Section().ID)
	if err != nil {
		s.logger.Warn("failed to reload section after save",
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to reload section %d: %w", sess.Section().ID, err)
	}
	sess.Rebase(section.Blocks, section.Version)
	return nil
}

// resume retries the reload missed by an earlier save.
// Edits made since then may target items without block ids, so a dirty session cannot be saved.
func (s *Saver) resume(ctx context.Context, sess *session.Session) error {
	if sess.Dirty() {
		return fmt.Errorf("%w: reopen the section to continue editing", ErrReloadRequired)
	}
	if err := s.refresh(ctx, sess); err != nil {
		return fmt.Errorf("%w: %v", ErrReloadRequired, err)
	}
	return nil
}

// failureMessage returns the server message carried by err, or the generic fallback
func failureMessage(err error) string {
	var apiErr *contentapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultFailureMessage
}

// build returns the payload of the session and the working snapshot it was built from
func build(sess *session.Session) (*payload.Result, snapshot.Snapshot, error) {
	l := sess.Layout()
	info := sess.Section()
	section := models.Section{
		ID:     info.ID,
		Name:   info.Name,
		Title:  info.Title,
		Blocks: sess.Blocks(),
	}
	if section.Name == "" {
		section.Name = l.Section
	}
	if section.Title == "" {
		section.Title = l.Title
	}

	working := sess.Working()
	base, ok := sess.Baseline().Snapshot()
	if !ok {
		return nil, working, payload.ErrBaselineNotLoaded
	}

	res, err := payload.Build(l, section, &base, working)
	if err != nil {
		return nil, working, err
	}
	return res, working, nil
}
