package models

import "encoding/json"

// BlockUpdate is a partial update descriptor for one content block.
// Only non-nil fields are sent; a nil ID means the block is new.
type BlockUpdate struct {
	ID           *int              `json:"id,omitempty"`
	SectionID    *int              `json:"section_id,omitempty"`
	BlockType    BlockType         `json:"block_type,omitempty"`
	Title        *string           `json:"title,omitempty"`
	Content      *string           `json:"content,omitempty"`
	CustomCSS    *string           `json:"custom_css,omitempty"`
	DisplayOrder *int              `json:"display_order,omitempty"`
	AltText      *string           `json:"alt_text,omitempty"`
	MediaFiles   []BlockMediaInput `json:"media_files,omitempty"`
	IsDeleted    bool              `json:"is_deleted,omitempty"`
}

// BlockMediaInput is the media_files element of a block update
type BlockMediaInput struct {
	ID           *int      `json:"id,omitempty"`
	MediaFileID  int       `json:"media_file_id"`
	MediaType    MediaType `json:"media_type"`
	DisplayOrder int       `json:"display_order"`
	AltText      string    `json:"alt_text,omitempty"`
}

// SectionUpdate is the body sent to the section update endpoint (wrapped in updateData)
type SectionUpdate struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	ContentBlocks []BlockUpdate `json:"content_blocks"`
}

// SectionUpdateRequest wraps a section update for transport
type SectionUpdateRequest struct {
	UpdateData SectionUpdate `json:"updateData"`
}

// UpdateResult is the content API response to an update
type UpdateResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	// Version is the section version after the update, taken from the ETag response header
	Version string `json:"-"`
}
