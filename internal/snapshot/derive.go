package snapshot

import (
	"sort"

	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/styletoken"
)

// Default returns the snapshot shown before any block was loaded
func Default(l layout.Layout) Snapshot {
	s := Snapshot{
		Layout:      l.Name,
		Collections: make(map[string][]Item, len(l.Collections)),
	}
	if l.Header != nil {
		s.Header = &Header{
			Key:          HeaderKey,
			Title:        l.Header.DefaultTitle,
			Content:      l.Header.DefaultContent,
			HeadingLevel: l.Header.DefaultLevel,
		}
	}
	for _, c := range l.Collections {
		s.Collections[c.Name] = pad(c, make([]Item, 0, c.MinItems))
	}
	return s
}

// SectionBlocks returns the blocks that belong to the layout's section, ordered by display_order.
// Blocks without a name are assumed to belong to the fetched section; unknown block types are dropped.
func SectionBlocks(l layout.Layout, blocks []models.ContentBlock) []models.ContentBlock {
	out := make([]models.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Name != "" && b.Name != l.Section {
			continue
		}
		if !b.BlockType.Valid() {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// Derive builds the snapshot of a section from its content blocks.
// It is a pure function: equal inputs always give equal snapshots.
func Derive(l layout.Layout, blocks []models.ContentBlock) Snapshot {
	s := Default(l)
	own := SectionBlocks(l, blocks)
	if len(own) == 0 {
		return s
	}

	headerUsed := -1
	if l.Header != nil {
		for i, b := range own {
			if b.BlockType == models.BlockTypeText {
				s.Header = headerFromBlock(b, l.Header.DefaultLevel)
				headerUsed = i
				break
			}
		}
	}

	for _, c := range l.Collections {
		items := make([]Item, 0, c.MinItems)
		for i, b := range own {
			if i == headerUsed || b.BlockType != c.BlockType {
				continue
			}
			items = append(items, itemFromBlock(c, b, len(items)+1))
		}
		s.Collections[c.Name] = pad(c, items)
	}
	return s
}

func headerFromBlock(b models.ContentBlock, def styletoken.Level) *Header {
	h := &Header{
		Key:          HeaderKey,
		Title:        b.Title,
		Content:      b.Content,
		HeadingLevel: styletoken.DecodeOr(b.CustomCSS, styletoken.PrefixNone, def),
		CSS:          b.CustomCSS,
	}
	if id, ok := b.BlockID(); ok {
		h.Key = BlockKey(id)
		h.BlockID = &id
	}
	return h
}

func itemFromBlock(c layout.Collection, b models.ContentBlock, position int) Item {
	item := Item{
		Key:     PlaceholderKey(c.Name, position),
		Title:   b.Title,
		Content: b.Content,
		CSS:     b.CustomCSS,
	}
	if id, ok := b.BlockID(); ok {
		item.Key = BlockKey(id)
		item.BlockID = &id
	}
	if c.HasHeading() {
		item.HeadingLevel = styletoken.DecodeOr(b.CustomCSS, c.HeadingPrefix, c.DefaultHeading)
	}
	if c.HasSubheading() {
		item.SubheadingLevel = styletoken.DecodeOr(b.CustomCSS, c.SubheadingPrefix, c.DefaultSubheading)
	}
	if c.HasMedia() {
		item.Media = mediaFromBlock(b, c.MediaRole)
	}
	return item
}

func mediaFromBlock(b models.ContentBlock, role models.MediaType) Media {
	w, ok := b.PrimaryMedia(role)
	if !ok {
		w, ok = b.PrimaryMedia("")
	}
	if !ok {
		return Media{}
	}

	m := Media{WrapperID: clonePtr(w.ID)}
	if w.MediaFileID != 0 {
		id := w.MediaFileID
		m.FileID = &id
	}
	if w.MediaFile != nil {
		m.Filename = w.MediaFile.OriginalFilename
		m.AltText = w.MediaFile.AltText
		if m.FileID == nil && w.MediaFile.ID != 0 {
			id := w.MediaFile.ID
			m.FileID = &id
		}
	}
	return m
}

// Placeholder returns the padding item at the 1-based position of a collection
func Placeholder(c layout.Collection, position int) Item {
	return Item{
		Key:             PlaceholderKey(c.Name, position),
		Title:           c.PlaceholderTitle,
		Content:         c.PlaceholderContent,
		HeadingLevel:    c.DefaultHeading,
		SubheadingLevel: c.DefaultSubheading,
	}
}

func pad(c layout.Collection, items []Item) []Item {
	for len(items) < c.MinItems {
		items = append(items, Placeholder(c, len(items)+1))
	}
	return items
}
