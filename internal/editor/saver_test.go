package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/hospitalcms/backend/internal/contentapi"
	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/payload"
	"github.com/hospitalcms/backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSectionClient is a mock implementation of SectionClient
type mockSectionClient struct {
	section  *models.Section
	getErr   error
	result   *models.UpdateResult
	err      error
	updates  []models.SectionUpdate
	versions []string
	gets     int
}

func (m *mockSectionClient) GetSection(ctx context.Context, sectionID int) (*models.Section, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.section, nil
}

func (m *mockSectionClient) UpdateSection(ctx context.Context, sectionID int, version string, update models.SectionUpdate) (*models.UpdateResult, error) {
	m.updates = append(m.updates, update)
	m.versions = append(m.versions, version)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func intPtr(v int) *int {
	return &v
}

func certificateBlocks() []models.ContentBlock {
	return []models.ContentBlock{
		{ID: intPtr(11), Name: "accreditations", BlockType: models.BlockTypeImage, Title: "JCI", DisplayOrder: 1},
		{ID: intPtr(12), Name: "accreditations", BlockType: models.BlockTypeImage, Title: "JCI", DisplayOrder: 2},
	}
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	l, err := layout.Lookup("accreditations")
	require.NoError(t, err)
	sess := session.New("s-1", l, session.Section{ID: 3})
	require.True(t, sess.Load(certificateBlocks(), `"1"`))
	return sess
}

func TestSaveSuccessResetsBaseline(t *testing.T) {
	client := &mockSectionClient{result: &models.UpdateResult{Success: true, Message: "Section updated", Version: `"2"`}}
	saver := NewSaver(client, true, nil)
	sess := newSession(t)

	require.NoError(t, sess.SetField("certificates.block-12.title", "NABH"))

	outcome, err := saver.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, "Section updated", outcome.Message)
	assert.Equal(t, []string{"certificates[2] title"}, outcome.Changes)

	require.Len(t, client.updates, 1)
	assert.Equal(t, `"1"`, client.versions[0])
	assert.Equal(t, "accreditations", client.updates[0].Name)
	assert.Equal(t, "Accreditations", client.updates[0].Title)
	require.Len(t, client.updates[0].ContentBlocks, 1)
	assert.Equal(t, 12, *client.updates[0].ContentBlocks[0].ID)

	assert.Equal(t, `"2"`, sess.Version())
	assert.False(t, sess.Dirty())
	assert.Equal(t, 0, client.gets)

	preview, err := saver.Preview(sess)
	require.NoError(t, err)
	assert.True(t, preview.Empty())
}

func TestSaveFailureKeepsBaseline(t *testing.T) {
	tests := []struct {
		name            string
		client          *mockSectionClient
		expectedError   error
		expectedMessage string
	}{
		{
			name:            "rejected with server message",
			client:          &mockSectionClient{result: &models.UpdateResult{Success: false, Message: "title too long"}},
			expectedError:   ErrSaveFailed,
			expectedMessage: "title too long",
		},
		{
			name:            "rejected without message",
			client:          &mockSectionClient{result: &models.UpdateResult{Success: false}},
			expectedError:   ErrSaveFailed,
			expectedMessage: DefaultFailureMessage,
		},
		{
			name:            "conflict",
			client:          &mockSectionClient{err: contentapi.ErrConflict},
			expectedError:   contentapi.ErrConflict,
			expectedMessage: DefaultFailureMessage,
		},
		{
			name:            "transport error",
			client:          &mockSectionClient{err: errors.New("connection refused")},
			expectedMessage: DefaultFailureMessage,
		},
		{
			name:            "api error with server message",
			client:          &mockSectionClient{err: &contentapi.APIError{StatusCode: 422, Message: "Title is required"}},
			expectedMessage: "Title is required",
		},
		{
			name:            "api error without message",
			client:          &mockSectionClient{err: &contentapi.APIError{StatusCode: 500}},
			expectedMessage: DefaultFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := NewSaver(tt.client, true, nil)
			sess := newSession(t)
			require.NoError(t, sess.SetField("certificates.block-12.title", "NABH"))
			before, _ := sess.Baseline().Snapshot()

			first, err := saver.Preview(sess)
			require.NoError(t, err)

			outcome, err := saver.Save(context.Background(), sess)
			require.Error(t, err)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			}
			require.NotNil(t, outcome)
			assert.False(t, outcome.Success)
			assert.Equal(t, tt.expectedMessage, outcome.Message)

			after, _ := sess.Baseline().Snapshot()
			assert.True(t, before.Equal(after))
			assert.True(t, sess.Dirty())
			assert.Equal(t, `"1"`, sess.Version())

			second, err := saver.Preview(sess)
			require.NoError(t, err)
			assert.Equal(t, first.Update, second.Update)
			assert.Equal(t, first.Changes, second.Changes)
		})
	}
}

func TestSaveEmptyPolicy(t *testing.T) {
	tests := []struct {
		name            string
		submitEmpty     bool
		expectedSkipped bool
		expectedCalls   int
	}{
		{
			name:            "always submit",
			submitEmpty:     true,
			expectedSkipped: false,
			expectedCalls:   1,
		},
		{
			name:            "skip when nothing changed",
			submitEmpty:     false,
			expectedSkipped: true,
			expectedCalls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSectionClient{result: &models.UpdateResult{Success: true}}
			saver := NewSaver(client, tt.submitEmpty, nil)

			outcome, err := saver.Save(context.Background(), newSession(t))
			require.NoError(t, err)
			assert.True(t, outcome.Success)
			assert.Equal(t, tt.expectedSkipped, outcome.Skipped)
			assert.Len(t, client.updates, tt.expectedCalls)
			if tt.expectedCalls > 0 {
				assert.NotNil(t, client.updates[0].ContentBlocks)
				assert.Empty(t, client.updates[0].ContentBlocks)
			}
		})
	}
}

func TestSaveBeforeLoad(t *testing.T) {
	l, err := layout.Lookup("accreditations")
	require.NoError(t, err)
	sess := session.New("s-2", l, session.Section{ID: 3})
	client := &mockSectionClient{}

	_, err = NewSaver(client, true, nil).Save(context.Background(), sess)
	assert.ErrorIs(t, err, payload.ErrBaselineNotLoaded)
	assert.Empty(t, client.updates)
}

func TestSaveReloadsAfterCreate(t *testing.T) {
	reloaded := append(certificateBlocks(), models.ContentBlock{
		ID: intPtr(13), Name: "accreditations", BlockType: models.BlockTypeImage, Title: "ISO", DisplayOrder: 3,
	})
	client := &mockSectionClient{
		result:  &models.UpdateResult{Success: true},
		section: &models.Section{ID: 3, Version: `"3"`, Blocks: reloaded},
	}
	saver := NewSaver(client, true, nil)
	sess := newSession(t)

	item, err := sess.AddItem("certificates")
	require.NoError(t, err)
	require.NoError(t, sess.SetField("certificates."+item.Key+".title", "ISO"))

	outcome, err := saver.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"certificates[3] added"}, outcome.Changes)
	assert.Equal(t, 1, client.gets)

	_, _, ok := sess.Working().Find("certificates", "block-13")
	assert.True(t, ok)
	assert.Equal(t, `"3"`, sess.Version())
	assert.False(t, sess.Dirty())
}

func TestSaveKeepsCommitWhenReloadFails(t *testing.T) {
	client := &mockSectionClient{
		result: &models.UpdateResult{Success: true},
		getErr: errors.New("timeout"),
	}
	sess := newSession(t)
	_, err := sess.AddItem("certificates")
	require.NoError(t, err)

	saver := NewSaver(client, true, nil)
	outcome, err := saver.Save(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.ReloadError, "timeout")
	assert.False(t, sess.Dirty())
	assert.True(t, sess.ReloadPending())
	require.Len(t, client.updates, 1)
}

func TestSaveAfterMissedReload(t *testing.T) {
	reloaded := append(certificateBlocks(), models.ContentBlock{
		ID: intPtr(13), Name: "accreditations", BlockType: models.BlockTypeImage, Title: "ISO", DisplayOrder: 3,
	})

	tests := []struct {
		name            string
		edit            func(t *testing.T, sess *session.Session)
		getErr          error
		expectedError   error
		expectedUpdates int
	}{
		{
			name: "edits without block ids are refused",
			edit: func(t *testing.T, sess *session.Session) {
				require.NoError(t, sess.SetField("certificates.block-11.title", "NABH"))
			},
			expectedError:   ErrReloadRequired,
			expectedUpdates: 1,
		},
		{
			name:            "clean session retries the reload",
			expectedUpdates: 2,
		},
		{
			name:            "reload still failing",
			getErr:          errors.New("timeout"),
			expectedError:   ErrReloadRequired,
			expectedUpdates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSectionClient{
				result: &models.UpdateResult{Success: true},
				getErr: errors.New("timeout"),
			}
			saver := NewSaver(client, true, nil)
			sess := newSession(t)
			item, err := sess.AddItem("certificates")
			require.NoError(t, err)
			require.NoError(t, sess.SetField("certificates."+item.Key+".title", "ISO"))

			_, err = saver.Save(context.Background(), sess)
			require.NoError(t, err)
			require.True(t, sess.ReloadPending())

			client.getErr = tt.getErr
			client.section = &models.Section{ID: 3, Version: `"3"`, Blocks: reloaded}
			if tt.edit != nil {
				tt.edit(t, sess)
			}

			_, err = saver.Save(context.Background(), sess)

			assert.Len(t, client.updates, tt.expectedUpdates)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, sess.ReloadPending())
				return
			}
			require.NoError(t, err)
			assert.False(t, sess.ReloadPending())
			_, _, ok := sess.Working().Find("certificates", "block-13")
			assert.True(t, ok)
			_, _, ok = sess.Working().Find("certificates", item.Key)
			assert.False(t, ok)
		})
	}
}
