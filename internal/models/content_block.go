package models

import "encoding/json"

// BlockType represents the type of a content block
type BlockType string

const (
	BlockTypeText      BlockType = "text"
	BlockTypeImage     BlockType = "image"
	BlockTypeStatistic BlockType = "statistic"
	BlockTypeCustom    BlockType = "custom"
)

// Valid reports whether the block type belongs to the closed set understood by the content API
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeText, BlockTypeImage, BlockTypeStatistic, BlockTypeCustom:
		return true
	default:
		return false
	}
}

// ContentBlock is the content API's unit of editable page content
type ContentBlock struct {
	ID                  *int            `json:"id,omitempty"`
	SectionID           int             `json:"section_id"`
	Name                string          `json:"name"`
	BlockType           BlockType       `json:"block_type"`
	Title               string          `json:"title"`
	Content             string          `json:"content"`
	CustomCSS           string          `json:"custom_css"`
	DisplayOrder        int             `json:"display_order"`
	IsActive            *bool           `json:"is_active,omitempty"`
	MediaFiles          []BlockMedia    `json:"media_files"`
	Statistics          json.RawMessage `json:"statistics,omitempty"`
	Specialties         json.RawMessage `json:"specialties,omitempty"`
	FacilitySpecialties json.RawMessage `json:"facilitySpecialties,omitempty"`
}

// BlockID returns the block id and whether the block already exists on the server
func (b ContentBlock) BlockID() (int, bool) {
	if b.ID == nil {
		return 0, false
	}
	return *b.ID, true
}

// PrimaryMedia returns the first attached media wrapper with the given role, if any
func (b ContentBlock) PrimaryMedia(role MediaType) (BlockMedia, bool) {
	for _, m := range b.MediaFiles {
		if m.MediaType == role {
			return m, true
		}
	}
	if len(b.MediaFiles) > 0 && role == "" {
		return b.MediaFiles[0], true
	}
	return BlockMedia{}, false
}

// Section is a named grouping of content blocks together with its concurrency version
type Section struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Title   string         `json:"title"`
	Version string         `json:"version,omitempty"`
	Blocks  []ContentBlock `json:"blocks"`
}

// SectionResponse is the envelope returned by the section fetch endpoint
type SectionResponse struct {
	Data    []ContentBlock `json:"data"`
	Version string         `json:"version,omitempty"`
}
