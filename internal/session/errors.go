package session

import "errors"

var (
	// ErrNotLoaded is returned by operations that need the section to be loaded first
	ErrNotLoaded = errors.New("initial values not loaded")
	// ErrUnknownField is returned for a field path the layout does not define
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownCollection is returned for a collection the layout does not define
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrItemNotFound is returned when no item has the given key
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidValue is returned when a field value cannot be applied
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidPosition is returned when a move targets a position outside the collection
	ErrInvalidPosition = errors.New("invalid position")
	// ErrUploadFailed wraps the cause of a rejected upload
	ErrUploadFailed = errors.New("upload failed")
	// ErrStaleUpload is returned when a newer upload for the same field superseded this one
	ErrStaleUpload = errors.New("upload superseded by a newer one")
)
