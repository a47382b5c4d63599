// Package session holds the editing state of one section: the baseline and the working copy.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/snapshot"
)

// Uploader stores a file and returns the saved media reference
type Uploader interface {
	// Method UploadFile stores one file
	//
	// "filename" parameter is the local name of the file.
	// "r" parameter is the file body.
	//
	// Returns the upload result; a non-nil result with a status other than 1 is a rejection.
	UploadFile(ctx context.Context, filename string, r io.Reader) (*models.UploadResult, error)
}

// Section identifies the section a session edits
type Section struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// UploadTicket identifies one in-flight upload of a media field
type UploadTicket struct {
	Path       Path
	Generation uint64
}

type pendingUpload struct {
	generation uint64
	previous   snapshot.Media
}

// Session owns the baseline and the working copy of one section.
// Every mutation replaces the working copy instead of editing it in place.
type Session struct {
	mu        sync.Mutex
	id        string
	layout    layout.Layout
	section   Section
	version   string
	blocks    []models.ContentBlock
	baseline  *Baseline
	working   snapshot.Snapshot
	uploads   map[string]pendingUpload
	uploadGen uint64
	// reloadPending is set when created blocks were saved but their ids were never fetched
	reloadPending bool
	updatedAt     time.Time
	now           func() time.Time
}

// New creates an empty session; call Load once the section blocks are fetched
func New(id string, l layout.Layout, section Section) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:        id,
		layout:    l,
		section:   section,
		baseline:  &Baseline{},
		working:   snapshot.Default(l),
		uploads:   make(map[string]pendingUpload),
		updatedAt: time.Now(),
		now:       time.Now,
	}
}

// Load derives the snapshot from the fetched blocks and captures it as baseline and working copy.
// It returns false and leaves the session untouched when a baseline already exists.
func (s *Session) Load(blocks []models.ContentBlock, version string) bool {
	derived := snapshot.Derive(s.layout, blocks)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseline.Capture(derived) {
		return false
	}
	s.blocks = cloneBlocks(blocks)
	s.version = version
	s.working = derived.Clone()
	s.touch()
	return true
}

// Rebase replaces baseline, working copy and blocks with a fresh server state
func (s *Session) Rebase(blocks []models.ContentBlock, version string) {
	derived := snapshot.Derive(s.layout, blocks)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.baseline.Reset(derived)
	s.blocks = cloneBlocks(blocks)
	s.version = version
	s.working = derived.Clone()
	s.uploads = make(map[string]pendingUpload)
	s.reloadPending = false
	s.touch()
}

// MarkReloadPending records that the session must be rebased before its next save
func (s *Session) MarkReloadPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadPending = true
}

// ReloadPending reports whether a save created blocks whose ids were never loaded
func (s *Session) ReloadPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadPending
}

// Commit makes the submitted snapshot the new baseline after a successful save
func (s *Session) Commit(submitted snapshot.Snapshot, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baseline.Reset(submitted)
	if version != "" {
		s.version = version
	}
	s.touch()
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Layout returns the layout the session edits
func (s *Session) Layout() layout.Layout {
	return s.layout
}

// Section returns the edited section
func (s *Session) Section() Section {
	return s.section
}

// Version returns the section version the baseline was loaded at
func (s *Session) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Blocks returns a copy of the blocks the baseline was derived from
func (s *Session) Blocks() []models.ContentBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBlocks(s.blocks)
}

// Baseline returns the baseline holder
func (s *Session) Baseline() *Baseline {
	return s.baseline
}

// Working returns a copy of the working snapshot
func (s *Session) Working() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Dirty reports whether the working copy differs from the baseline
func (s *Session) Dirty() bool {
	base, ok := s.baseline.Snapshot()
	if !ok {
		return false
	}
	return !base.Equal(s.Working())
}

// UpdatedAt returns the time of the last change
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Replace swaps the whole working copy, as done when an edited snapshot file is applied
func (s *Session) Replace(working snapshot.Snapshot) error {
	if err := working.Validate(s.layout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := s.baseline.Snapshot()
	if !ok {
		return ErrNotLoaded
	}
	if err := working.ValidateBlocks(base); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	s.working = working.Clone()
	s.touch()
	return nil
}

// SetField applies value to the field at path
func (s *Session) SetField(path, value string) error {
	p, err := ParsePath(s.layout, path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseline.Loaded() {
		return ErrNotLoaded
	}

	next := s.working.Clone()
	if p.IsHeader() {
		if err := applyHeader(next.Header, p.Attr, value); err != nil {
			return err
		}
	} else {
		_, idx, ok := next.Find(p.Collection, p.Key)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrItemNotFound, p.Collection, p.Key)
		}
		if err := applyItem(&next.Collections[p.Collection][idx], p.Attr, value); err != nil {
			return err
		}
	}

	s.working = next
	s.touch()
	return nil
}

// AddItem appends a new item with a fresh temporary key to the collection
func (s *Session) AddItem(collection string) (snapshot.Item, error) {
	c, ok := s.layout.Collection(collection)
	if !ok {
		return snapshot.Item{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseline.Loaded() {
		return snapshot.Item{}, ErrNotLoaded
	}

	next := s.working.Clone()
	item := snapshot.Placeholder(c, len(next.Collections[collection])+1)
	item.Key = "new-" + uuid.NewString()
	next.Collections[collection] = append(next.Collections[collection], item)

	s.working = next
	s.touch()
	return item.Clone(), nil
}

// RemoveItem drops the item with the given key
func (s *Session) RemoveItem(collection, key string) error {
	if _, ok := s.layout.Collection(collection); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseline.Loaded() {
		return ErrNotLoaded
	}

	next := s.working.Clone()
	_, idx, ok := next.Find(collection, key)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrItemNotFound, collection, key)
	}
	items := next.Collections[collection]
	next.Collections[collection] = append(items[:idx:idx], items[idx+1:]...)
	delete(s.uploads, Path{Collection: collection, Key: key, Attr: AttrMedia}.String())

	s.working = next
	s.touch()
	return nil
}

// MoveItem removes the item at index from and reinserts it at index to (both 0-based)
func (s *Session) MoveItem(collection string, from, to int) error {
	if _, ok := s.layout.Collection(collection); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseline.Loaded() {
		return ErrNotLoaded
	}

	next := s.working.Clone()
	items := next.Collections[collection]
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return fmt.Errorf("%w: move %d to %d in %d items", ErrInvalidPosition, from, to, len(items))
	}
	if from == to {
		return nil
	}

	moved := items[from]
	rest := append(items[:from:from], items[from+1:]...)
	out := make([]snapshot.Item, 0, len(items))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	next.Collections[collection] = out

	s.working = next
	s.touch()
	return nil
}

// BeginUpload writes the local filename into a media field and returns the ticket of the upload
func (s *Session) BeginUpload(field, localName string) (UploadTicket, error) {
	p, err := s.mediaPath(field)
	if err != nil {
		return UploadTicket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseline.Loaded() {
		return UploadTicket{}, ErrNotLoaded
	}

	next := s.working.Clone()
	_, idx, ok := next.Find(p.Collection, p.Key)
	if !ok {
		return UploadTicket{}, fmt.Errorf("%w: %s.%s", ErrItemNotFound, p.Collection, p.Key)
	}
	item := &next.Collections[p.Collection][idx]

	key := p.String()
	pending, inFlight := s.uploads[key]
	if !inFlight {
		pending.previous = item.Media
	}
	s.uploadGen++
	pending.generation = s.uploadGen
	s.uploads[key] = pending

	item.Media.Filename = localName
	s.working = next
	s.touch()
	return UploadTicket{Path: p, Generation: pending.generation}, nil
}

// CompleteUpload stores the canonical filename and media id returned by the uploader.
// A rejected result is handled like FailUpload.
func (s *Session) CompleteUpload(ticket UploadTicket, result *models.UploadResult) (snapshot.Item, error) {
	if result == nil || !result.OK() {
		msg := "upload rejected"
		if result != nil && result.Message != "" {
			msg = result.Message
		}
		return snapshot.Item{}, s.FailUpload(ticket, errors.New(msg))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.claim(ticket); err != nil {
		return snapshot.Item{}, err
	}

	next := s.working.Clone()
	_, idx, ok := next.Find(ticket.Path.Collection, ticket.Path.Key)
	if !ok {
		return snapshot.Item{}, fmt.Errorf("%w: %s.%s", ErrItemNotFound, ticket.Path.Collection, ticket.Path.Key)
	}
	item := &next.Collections[ticket.Path.Collection][idx]
	saved := result.Data.SavedMedia
	id := saved.ID
	item.Media.FileID = &id
	if saved.OriginalFilename != "" {
		item.Media.Filename = saved.OriginalFilename
	}
	if item.Media.AltText == "" {
		item.Media.AltText = saved.AltText
	}

	s.working = next
	s.touch()
	return item.Clone(), nil
}

// FailUpload restores the value the field had before the upload and returns the wrapped cause
func (s *Session) FailUpload(ticket UploadTicket, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.claimPrevious(ticket)
	if err != nil {
		return err
	}

	next := s.working.Clone()
	if _, idx, ok := next.Find(ticket.Path.Collection, ticket.Path.Key); ok {
		next.Collections[ticket.Path.Collection][idx].Media = previous
		s.working = next
		s.touch()
	}
	return fmt.Errorf("%w: %v", ErrUploadFailed, cause)
}

// Upload runs a whole upload of r into the media field: begin, upload, then complete or fail
func (s *Session) Upload(ctx context.Context, up Uploader, field, filename string, r io.Reader) (snapshot.Item, error) {
	ticket, err := s.BeginUpload(field, filename)
	if err != nil {
		return snapshot.Item{}, err
	}

	result, err := up.UploadFile(ctx, filename, r)
	if err != nil {
		return snapshot.Item{}, s.FailUpload(ticket, err)
	}
	return s.CompleteUpload(ticket, result)
}

func (s *Session) mediaPath(field string) (Path, error) {
	p, err := ParsePath(s.layout, field)
	if err != nil {
		return Path{}, err
	}
	if p.IsHeader() {
		return Path{}, fmt.Errorf("%w: %s is not a media field", ErrUnknownField, field)
	}
	c, _ := s.layout.Collection(p.Collection)
	if !c.HasMedia() {
		return Path{}, fmt.Errorf("%w: %s is not a media field", ErrUnknownField, field)
	}
	p.Attr = AttrMedia
	return p, nil
}

// claim removes the pending upload of the ticket; caller holds s.mu
func (s *Session) claim(ticket UploadTicket) error {
	_, err := s.claimPrevious(ticket)
	return err
}

func (s *Session) claimPrevious(ticket UploadTicket) (snapshot.Media, error) {
	key := ticket.Path.String()
	pending, ok := s.uploads[key]
	if !ok || pending.generation != ticket.Generation {
		return snapshot.Media{}, ErrStaleUpload
	}
	delete(s.uploads, key)
	return pending.previous, nil
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}

func cloneBlocks(blocks []models.ContentBlock) []models.ContentBlock {
	if blocks == nil {
		return nil
	}
	return append([]models.ContentBlock(nil), blocks...)
}
