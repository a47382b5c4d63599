package models

import (
	cms "github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/snapshot"
)

// OpenSessionRequest represents the request body for opening an editing session
type OpenSessionRequest struct {
	Layout string `json:"layout" example:"accreditations"`
	Title  string `json:"title,omitempty" example:"Accreditations"`
}

// SessionResponse represents an editing session with its working copy
type SessionResponse struct {
	SessionID string            `json:"sessionId"`
	Layout    string            `json:"layout"`
	SectionID int               `json:"sectionId"`
	Version   string            `json:"version,omitempty"`
	Dirty     bool              `json:"dirty"`
	Working   snapshot.Snapshot `json:"working"`
	// ReloadPending is set when created blocks have not been reloaded since the last save
	ReloadPending bool `json:"reloadPending,omitempty"`
}

// SetFieldRequest represents the request body for changing one field
type SetFieldRequest struct {
	Path  string `json:"path" example:"certificates.block-12.title"`
	Value string `json:"value" example:"NABH"`
}

// MoveItemRequest represents the request body for reordering a collection (0-based positions)
type MoveItemRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ItemResponse represents one collection item after a change
type ItemResponse struct {
	SessionID string        `json:"sessionId"`
	Item      snapshot.Item `json:"item"`
}

// ChangesResponse represents a preview of the update a save would submit
type ChangesResponse struct {
	Empty      bool              `json:"empty"`
	Changes    []string          `json:"changes"`
	UpdateData cms.SectionUpdate `json:"updateData"`
}

// SaveResponse represents the result of a save
type SaveResponse struct {
	Success bool     `json:"success"`
	Skipped bool     `json:"skipped"`
	Message string   `json:"message"`
	Changes []string `json:"changes"`
	// Warning is set when the save went through but the section could not be reloaded
	Warning string `json:"warning,omitempty"`
}

// HeaderSettingsUpdateRequest represents new header setting values keyed by setting key
type HeaderSettingsUpdateRequest struct {
	Settings map[string]string `json:"settings"`
}

// HeaderSettingsSaveResponse represents the result of a header settings save
type HeaderSettingsSaveResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Changes []string `json:"changes"`
}
