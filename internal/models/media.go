package models

// MediaType is the placement role of a media file inside a content block
type MediaType string

const (
	MediaTypePrimary    MediaType = "primary"
	MediaTypeBackground MediaType = "background"
	MediaTypeIcon       MediaType = "icon"
	MediaTypeThumbnail  MediaType = "thumbnail"
	MediaTypeGallery    MediaType = "gallery"
	MediaTypeSlider     MediaType = "slider"
)

// Valid reports whether the media type is one of the known placement roles
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypePrimary, MediaTypeBackground, MediaTypeIcon,
		MediaTypeThumbnail, MediaTypeGallery, MediaTypeSlider:
		return true
	default:
		return false
	}
}

// MediaFile is a stored upload reference
type MediaFile struct {
	ID               int    `json:"id"`
	OriginalFilename string `json:"original_filename"`
	AltText          string `json:"alt_text"`
}

// BlockMedia wraps a media file reference with placement metadata
type BlockMedia struct {
	ID             *int       `json:"id,omitempty"`
	ContentBlockID *int       `json:"content_block_id,omitempty"`
	MediaFileID    int        `json:"media_file_id"`
	MediaType      MediaType  `json:"media_type"`
	DisplayOrder   int        `json:"display_order"`
	MediaFile      *MediaFile `json:"media_file,omitempty"`
}

// UploadData is the data part of a file upload response
type UploadData struct {
	SavedMedia MediaFile `json:"savedMedia"`
	FilePath   string    `json:"filePath"`
}

// UploadStatusOK is the conventional success value of UploadResult.Status
const UploadStatusOK = 1

// UploadResult is the response of the file upload endpoint
type UploadResult struct {
	Status  int        `json:"status"`
	Message string     `json:"message"`
	Data    UploadData `json:"data"`
}

// OK reports whether the upload succeeded
func (r UploadResult) OK() bool {
	return r.Status == UploadStatusOK
}
