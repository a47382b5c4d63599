package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/snapshot"
	"github.com/hospitalcms/backend/internal/styletoken"
)

// Field attributes
const (
	AttrTitle           = "title"
	AttrContent         = "content"
	AttrLink            = "link"
	AttrHeadingLevel    = "heading_level"
	AttrSubheadingLevel = "subheading_level"
	AttrAltText         = "alt_text"
	AttrMediaFileID     = "media_file_id"
	AttrMedia           = "media"
)

// Path is a parsed field path: "header.<attr>" or "<collection>.<key>.<attr>"
type Path struct {
	Collection string
	Key        string
	Attr       string
}

// IsHeader reports whether the path addresses the section header
func (p Path) IsHeader() bool {
	return p.Collection == ""
}

func (p Path) String() string {
	if p.IsHeader() {
		return "header." + p.Attr
	}
	return p.Collection + "." + p.Key + "." + p.Attr
}

// ParsePath splits a field path and checks it against the layout
func ParsePath(l layout.Layout, raw string) (Path, error) {
	parts := strings.Split(raw, ".")
	switch {
	case len(parts) == 2 && parts[0] == "header":
		if l.Header == nil {
			return Path{}, fmt.Errorf("%w: layout %s has no header", ErrUnknownField, l.Name)
		}
		switch parts[1] {
		case AttrTitle, AttrContent, AttrHeadingLevel:
			return Path{Attr: parts[1]}, nil
		}
	case len(parts) == 3:
		c, ok := l.Collection(parts[0])
		if !ok {
			return Path{}, fmt.Errorf("%w: %s", ErrUnknownCollection, parts[0])
		}
		p := Path{Collection: parts[0], Key: parts[1], Attr: parts[2]}
		if p.Key == "" {
			return Path{}, fmt.Errorf("%w: %s", ErrUnknownField, raw)
		}
		if attrAllowed(c, p.Attr) {
			return p, nil
		}
	case len(parts) == 2:
		// "<collection>.<key>" addresses the item's media field, as used by uploads
		c, ok := l.Collection(parts[0])
		if ok && c.HasMedia() && parts[1] != "" {
			return Path{Collection: parts[0], Key: parts[1], Attr: AttrMedia}, nil
		}
	}
	return Path{}, fmt.Errorf("%w: %s", ErrUnknownField, raw)
}

func attrAllowed(c layout.Collection, attr string) bool {
	switch attr {
	case AttrTitle, AttrContent, AttrLink:
		return true
	case AttrHeadingLevel:
		return c.HasHeading()
	case AttrSubheadingLevel:
		return c.HasSubheading()
	case AttrAltText, AttrMediaFileID, AttrMedia:
		return c.HasMedia()
	default:
		return false
	}
}

func applyHeader(h *snapshot.Header, attr, value string) error {
	switch attr {
	case AttrTitle:
		h.Title = value
	case AttrContent:
		h.Content = value
	case AttrHeadingLevel:
		level, err := styletoken.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		h.HeadingLevel = level
	default:
		return fmt.Errorf("%w: header.%s", ErrUnknownField, attr)
	}
	return nil
}

func applyItem(item *snapshot.Item, attr, value string) error {
	switch attr {
	case AttrTitle:
		item.Title = value
	case AttrContent, AttrLink:
		item.Content = value
	case AttrHeadingLevel, AttrSubheadingLevel:
		level, err := styletoken.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		if attr == AttrHeadingLevel {
			item.HeadingLevel = level
		} else {
			item.SubheadingLevel = level
		}
	case AttrAltText:
		item.Media.AltText = value
	case AttrMediaFileID:
		if value == "" {
			item.Media.FileID = nil
			return nil
		}
		id, err := strconv.Atoi(value)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: media file id %q", ErrInvalidValue, value)
		}
		item.Media.FileID = &id
	case AttrMedia:
		item.Media.Filename = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, attr)
	}
	return nil
}
