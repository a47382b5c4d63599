// Package payload turns a baseline and a working snapshot into a partial section update.
//
// Collection items are matched by key, not by position, so reordering or inserting items
// never attributes an edit to the wrong content block. Only changed attributes are written
// to the update; alt text is resent with every block that changed.
package payload

import (
	"errors"
	"fmt"

	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/snapshot"
	"github.com/hospitalcms/backend/internal/styletoken"
)

// ErrBaselineNotLoaded is returned when a payload is requested before the section was loaded
var ErrBaselineNotLoaded = errors.New("initial values not loaded")

// Result is a built section update together with readable labels of what changed
type Result struct {
	Update  models.SectionUpdate `json:"updateData"`
	Changes []string             `json:"changes"`
}

// Empty reports whether no block changed
func (r *Result) Empty() bool {
	return len(r.Update.ContentBlocks) == 0
}

// Created reports whether the update creates at least one block
func (r *Result) Created() bool {
	for _, b := range r.Update.ContentBlocks {
		if b.ID == nil {
			return true
		}
	}
	return false
}

// Build compares working against baseline and returns the update for section.
// section.Blocks are the blocks the baseline was derived from.
func Build(l layout.Layout, section models.Section, baseline *snapshot.Snapshot, working snapshot.Snapshot) (*Result, error) {
	if baseline == nil {
		return nil, ErrBaselineNotLoaded
	}

	b := &builder{
		layout:  l,
		section: section,
		orders:  make(map[int]int),
		result: &Result{
			Update: models.SectionUpdate{
				ID:            section.ID,
				Name:          section.Name,
				Title:         section.Title,
				ContentBlocks: []models.BlockUpdate{},
			},
			Changes: []string{},
		},
	}
	for _, block := range snapshot.SectionBlocks(l, section.Blocks) {
		if id, ok := block.BlockID(); ok {
			b.orders[id] = block.DisplayOrder
		}
	}

	if l.Header != nil && working.Header != nil {
		b.header(baseline.Header, *working.Header)
	}
	for _, c := range l.Collections {
		b.collection(c, baseline.Collections[c.Name], working.Collections[c.Name])
	}
	return b.result, nil
}

type builder struct {
	layout  layout.Layout
	section models.Section
	orders  map[int]int
	result  *Result
}

func (b *builder) emit(d models.BlockUpdate, labels ...string) {
	b.result.Update.ContentBlocks = append(b.result.Update.ContentBlocks, d)
	b.result.Changes = append(b.result.Changes, labels...)
}

func (b *builder) header(base *snapshot.Header, work snapshot.Header) {
	var before snapshot.Header
	if base != nil {
		before = *base
	}

	var labels []string
	if work.Title != before.Title {
		labels = append(labels, "header title")
	}
	if work.Content != before.Content {
		labels = append(labels, "header content")
	}
	if work.HeadingLevel != before.HeadingLevel {
		labels = append(labels, "header heading level")
	}
	if len(labels) == 0 {
		return
	}

	css := styletoken.Encode(work.CSS, styletoken.PrefixNone, work.HeadingLevel)
	d := models.BlockUpdate{CustomCSS: &css}
	if work.BlockID != nil {
		d.ID = intPtr(*work.BlockID)
		if work.Title != before.Title {
			d.Title = strPtr(work.Title)
		}
		if work.Content != before.Content {
			d.Content = strPtr(work.Content)
		}
	} else {
		d.SectionID = intPtr(b.section.ID)
		d.BlockType = models.BlockTypeText
		d.Title = strPtr(work.Title)
		d.Content = strPtr(work.Content)
		d.DisplayOrder = intPtr(0)
		labels = []string{"header added"}
	}
	b.emit(d, labels...)
}

type baseEntry struct {
	item  snapshot.Item
	index int
}

func (b *builder) collection(c layout.Collection, base, work []snapshot.Item) {
	baseByKey := make(map[string]baseEntry, len(base))
	for i, item := range base {
		baseByKey[item.Key] = baseEntry{item: item, index: i}
	}
	workKeys := make(map[string]bool, len(work))
	for _, item := range work {
		workKeys[item.Key] = true
	}

	reordered := orderChanged(base, work, baseByKey, workKeys)

	for pos, item := range work {
		label := fmt.Sprintf("%s[%d]", c.Name, pos+1)
		entry, existed := baseByKey[item.Key]

		if !existed || item.BlockID == nil {
			if existed && item.Equal(entry.item) {
				// untouched placeholder
				continue
			}
			if item.BlockID == nil {
				b.emit(b.create(c, item, pos), label+" added")
				continue
			}
		}

		d, labels := b.update(c, entry.item, item, pos, reordered, existed, label)
		if len(labels) > 0 {
			b.emit(d, labels...)
		}
	}

	for i, item := range base {
		if workKeys[item.Key] || item.BlockID == nil {
			continue
		}
		b.emit(models.BlockUpdate{
			ID:        intPtr(*item.BlockID),
			IsDeleted: true,
		}, fmt.Sprintf("%s[%d] removed", c.Name, i+1))
	}
}

// orderChanged reports whether the relative order of the collection changed: an item was
// added, removed or moved.
func orderChanged(base, work []snapshot.Item, baseByKey map[string]baseEntry, workKeys map[string]bool) bool {
	if len(base) != len(work) {
		return true
	}
	for _, item := range base {
		if !workKeys[item.Key] {
			return true
		}
	}
	for pos, item := range work {
		entry, ok := baseByKey[item.Key]
		if !ok || entry.index != pos {
			return true
		}
	}
	return false
}

// update builds the descriptor of an existing block; labels is empty when nothing changed
func (b *builder) update(c layout.Collection, before, item snapshot.Item, pos int, reordered, existed bool, label string) (models.BlockUpdate, []string) {
	d := models.BlockUpdate{ID: intPtr(*item.BlockID)}
	var labels []string

	textChanged := false
	if !existed || item.Title != before.Title {
		d.Title = strPtr(item.Title)
		labels = append(labels, label+" title")
		textChanged = true
	}
	if !existed || item.Content != before.Content {
		d.Content = strPtr(item.Content)
		labels = append(labels, label+" content")
		textChanged = true
	}

	levelChanged := false
	if c.HasHeading() && item.HeadingLevel != before.HeadingLevel {
		labels = append(labels, label+" heading level")
		levelChanged = true
	}
	if c.HasSubheading() && item.SubheadingLevel != before.SubheadingLevel {
		labels = append(labels, label+" sub-heading level")
		levelChanged = true
	}
	if (c.HasHeading() || c.HasSubheading()) && (levelChanged || textChanged) {
		css := encodeLevels(c, item)
		d.CustomCSS = &css
	}

	if c.HasMedia() && item.Media.FileID != nil && !ptrEqual(item.Media.FileID, before.Media.FileID) {
		d.MediaFiles = []models.BlockMediaInput{mediaInput(c, item, pos)}
		labels = append(labels, label+" image")
	}

	if c.HasMedia() && item.Media.AltText != before.Media.AltText {
		labels = append(labels, label+" alt text")
	}

	if reordered && b.currentOrder(*item.BlockID) != pos+1 {
		d.DisplayOrder = intPtr(pos + 1)
		labels = append(labels, label+" position")
	}

	if len(labels) > 0 && c.HasMedia() {
		d.AltText = strPtr(item.Media.AltText)
		for i := range d.MediaFiles {
			d.MediaFiles[i].AltText = item.Media.AltText
		}
	}
	return d, labels
}

// currentOrder returns the display order the block has on the server, or -1 when unknown
func (b *builder) currentOrder(id int) int {
	if order, ok := b.orders[id]; ok {
		return order
	}
	return -1
}

func (b *builder) create(c layout.Collection, item snapshot.Item, pos int) models.BlockUpdate {
	d := models.BlockUpdate{
		SectionID:    intPtr(b.section.ID),
		BlockType:    c.BlockType,
		Title:        strPtr(item.Title),
		Content:      strPtr(item.Content),
		DisplayOrder: intPtr(pos + 1),
	}
	if c.HasHeading() || c.HasSubheading() {
		css := encodeLevels(c, item)
		d.CustomCSS = &css
	}
	if c.HasMedia() {
		d.AltText = strPtr(item.Media.AltText)
		if item.Media.FileID != nil {
			in := mediaInput(c, item, pos)
			in.ID = nil
			in.AltText = item.Media.AltText
			d.MediaFiles = []models.BlockMediaInput{in}
		}
	}
	return d
}

func mediaInput(c layout.Collection, item snapshot.Item, pos int) models.BlockMediaInput {
	in := models.BlockMediaInput{
		MediaFileID:  *item.Media.FileID,
		MediaType:    c.MediaRole,
		DisplayOrder: pos + 1,
	}
	if item.Media.WrapperID != nil {
		in.ID = intPtr(*item.Media.WrapperID)
	}
	return in
}

func encodeLevels(c layout.Collection, item snapshot.Item) string {
	css := item.CSS
	if c.HasHeading() {
		css = styletoken.Encode(css, c.HeadingPrefix, item.HeadingLevel)
	}
	if c.HasSubheading() {
		css = styletoken.Encode(css, c.SubheadingPrefix, item.SubheadingLevel)
	}
	return css
}

func ptrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtr(v int) *int {
	return &v
}

func strPtr(s string) *string {
	return &s
}
