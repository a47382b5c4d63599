// Package snapshot holds the form-shaped view of a section and derives it from content blocks.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/styletoken"
)

// HeaderKey is the key of a section header that has no backing block yet
const HeaderKey = "new-header"

// Media is the image reference held by a collection item
type Media struct {
	FileID    *int   `json:"fileId,omitempty" yaml:"fileId,omitempty"`
	WrapperID *int   `json:"wrapperId,omitempty" yaml:"wrapperId,omitempty"`
	Filename  string `json:"filename" yaml:"filename"`
	AltText   string `json:"altText" yaml:"altText"`
}

// Header is the editable header of a section
type Header struct {
	Key          string           `json:"key" yaml:"key"`
	BlockID      *int             `json:"blockId,omitempty" yaml:"blockId,omitempty"`
	Title        string           `json:"title" yaml:"title"`
	Content      string           `json:"content" yaml:"content"`
	HeadingLevel styletoken.Level `json:"headingLevel" yaml:"headingLevel"`
	CSS          string           `json:"css,omitempty" yaml:"css,omitempty"`
}

// Item is one element of a repeating collection.
// Key is "block-<id>" for items backed by a block and "new-..." otherwise.
type Item struct {
	Key             string           `json:"key" yaml:"key"`
	BlockID         *int             `json:"blockId,omitempty" yaml:"blockId,omitempty"`
	Title           string           `json:"title" yaml:"title"`
	Content         string           `json:"content" yaml:"content"`
	HeadingLevel    styletoken.Level `json:"headingLevel,omitempty" yaml:"headingLevel,omitempty"`
	SubheadingLevel styletoken.Level `json:"subheadingLevel,omitempty" yaml:"subheadingLevel,omitempty"`
	Media           Media            `json:"media" yaml:"media"`
	CSS             string           `json:"css,omitempty" yaml:"css,omitempty"`
}

// IsNew reports whether the item has no backing block yet
func (i Item) IsNew() bool {
	return i.BlockID == nil
}

// Snapshot is the editable view of one section
type Snapshot struct {
	Layout      string            `json:"layout" yaml:"layout"`
	Header      *Header           `json:"header,omitempty" yaml:"header,omitempty"`
	Collections map[string][]Item `json:"collections" yaml:"collections"`
}

// blockKeyPrefix starts the key of every item backed by a block
const blockKeyPrefix = "block-"

// BlockKey returns the item key of an existing block
func BlockKey(id int) string {
	return fmt.Sprintf("%s%d", blockKeyPrefix, id)
}

// PlaceholderKey returns the key of the padding item at the 1-based position of a collection
func PlaceholderKey(collection string, position int) string {
	return fmt.Sprintf("new-%s-%d", collection, position)
}

// Find returns the item with the given key and its index
func (s Snapshot) Find(collection, key string) (Item, int, bool) {
	for i, item := range s.Collections[collection] {
		if item.Key == key {
			return item, i, true
		}
	}
	return Item{}, -1, false
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Layout: s.Layout}
	if s.Header != nil {
		h := *s.Header
		h.BlockID = clonePtr(h.BlockID)
		out.Header = &h
	}
	out.Collections = make(map[string][]Item, len(s.Collections))
	for name, items := range s.Collections {
		cloned := make([]Item, len(items))
		for i, item := range items {
			cloned[i] = item.Clone()
		}
		out.Collections[name] = cloned
	}
	return out
}

// Clone returns a deep copy of the item
func (i Item) Clone() Item {
	i.BlockID = clonePtr(i.BlockID)
	i.Media.FileID = clonePtr(i.Media.FileID)
	i.Media.WrapperID = clonePtr(i.Media.WrapperID)
	return i
}

// Equal reports whether two snapshots hold the same values. Nil and empty collections are equal.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Layout != o.Layout {
		return false
	}
	if (s.Header == nil) != (o.Header == nil) {
		return false
	}
	if s.Header != nil && !s.Header.Equal(*o.Header) {
		return false
	}
	for name := range mergeKeys(s.Collections, o.Collections) {
		a, b := s.Collections[name], o.Collections[name]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
	}
	return true
}

// Equal reports whether two headers hold the same values
func (h Header) Equal(o Header) bool {
	return h.Key == o.Key &&
		ptrEqual(h.BlockID, o.BlockID) &&
		h.Title == o.Title &&
		h.Content == o.Content &&
		h.HeadingLevel == o.HeadingLevel &&
		h.CSS == o.CSS
}

// Equal reports whether two items hold the same values
func (i Item) Equal(o Item) bool {
	return i.Key == o.Key &&
		ptrEqual(i.BlockID, o.BlockID) &&
		i.Title == o.Title &&
		i.Content == o.Content &&
		i.HeadingLevel == o.HeadingLevel &&
		i.SubheadingLevel == o.SubheadingLevel &&
		i.Media.Equal(o.Media) &&
		i.CSS == o.CSS
}

// Equal reports whether two media references hold the same values
func (m Media) Equal(o Media) bool {
	return ptrEqual(m.FileID, o.FileID) &&
		ptrEqual(m.WrapperID, o.WrapperID) &&
		m.Filename == o.Filename &&
		m.AltText == o.AltText
}

// Validate checks that the snapshot fits the layout: known collections, unique keys, valid levels
func (s Snapshot) Validate(l layout.Layout) error {
	if s.Layout != l.Name {
		return fmt.Errorf("snapshot layout %q does not match %q", s.Layout, l.Name)
	}
	if (s.Header == nil) != (l.Header == nil) {
		return fmt.Errorf("snapshot header does not match layout %q", l.Name)
	}
	if s.Header != nil && !s.Header.HeadingLevel.Valid() {
		return fmt.Errorf("header: invalid heading level %q", s.Header.HeadingLevel)
	}
	for name, items := range s.Collections {
		c, ok := l.Collection(name)
		if !ok {
			return fmt.Errorf("unknown collection %q", name)
		}
		seen := make(map[string]bool, len(items))
		for idx, item := range items {
			if item.Key == "" {
				return fmt.Errorf("%s[%d]: key is required", name, idx+1)
			}
			if seen[item.Key] {
				return fmt.Errorf("%s[%d]: duplicate key %q", name, idx+1, item.Key)
			}
			seen[item.Key] = true
			if c.HasHeading() && !item.HeadingLevel.Valid() {
				return fmt.Errorf("%s[%d]: invalid heading level %q", name, idx+1, item.HeadingLevel)
			}
			if c.HasSubheading() && !item.SubheadingLevel.Valid() {
				return fmt.Errorf("%s[%d]: invalid sub-heading level %q", name, idx+1, item.SubheadingLevel)
			}
		}
	}
	return nil
}

// ValidateBlocks checks the block references of s against base.
// A block id must match its "block-<id>" key and name a block that base holds at the same place,
// so an edited snapshot cannot point updates at blocks outside the loaded section.
func (s Snapshot) ValidateBlocks(base Snapshot) error {
	known := make(map[string]*int)
	if base.Header != nil {
		known["header/"+base.Header.Key] = base.Header.BlockID
	}
	for name, items := range base.Collections {
		for _, item := range items {
			known[name+"/"+item.Key] = item.BlockID
		}
	}

	check := func(label, place, key string, id *int) error {
		if id == nil {
			if strings.HasPrefix(key, blockKeyPrefix) {
				return fmt.Errorf("%s: key %q has no block id", label, key)
			}
			return nil
		}
		if key != BlockKey(*id) {
			return fmt.Errorf("%s: key %q does not match block id %d", label, key, *id)
		}
		if baseID, ok := known[place+"/"+key]; !ok || !ptrEqual(baseID, id) {
			return fmt.Errorf("%s: block %d is not part of the loaded section", label, *id)
		}
		return nil
	}

	if s.Header != nil {
		if err := check("header", "header", s.Header.Key, s.Header.BlockID); err != nil {
			return err
		}
	}
	for name, items := range s.Collections {
		for idx, item := range items {
			if err := check(fmt.Sprintf("%s[%d]", name, idx+1), name, item.Key, item.BlockID); err != nil {
				return err
			}
		}
	}
	return nil
}

func mergeKeys(a, b map[string][]Item) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func ptrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
