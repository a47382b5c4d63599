package session

import (
	"fmt"
	"time"

	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/snapshot"
)

// State is the serialisable form of a session. In-flight uploads are not part of it.
type State struct {
	ID        string                `json:"id"`
	Layout    string                `json:"layout"`
	Section   Section               `json:"section"`
	Version   string                `json:"version,omitempty"`
	Blocks    []models.ContentBlock `json:"blocks"`
	Baseline  *snapshot.Snapshot    `json:"baseline,omitempty"`
	Working   snapshot.Snapshot     `json:"working"`
	UpdatedAt time.Time             `json:"updatedAt"`
	// ReloadPending survives the store so a failed reload still blocks the next save
	ReloadPending bool `json:"reloadPending,omitempty"`
}

// State returns a copy of the session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:        s.id,
		Layout:    s.layout.Name,
		Section:   s.section,
		Version:   s.version,
		Blocks:    cloneBlocks(s.blocks),
		Working:   s.working.Clone(),
		UpdatedAt: s.updatedAt,

		ReloadPending: s.reloadPending,
	}
	if base, ok := s.baseline.Snapshot(); ok {
		st.Baseline = &base
	}
	return st
}

// Restore rebuilds a session from its serialised state
func Restore(st State) (*Session, error) {
	l, err := layout.Lookup(st.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", st.ID, err)
	}
	if st.ID == "" {
		return nil, fmt.Errorf("failed to restore session: id is required")
	}

	s := New(st.ID, l, st.Section)
	s.version = st.Version
	s.blocks = cloneBlocks(st.Blocks)
	s.reloadPending = st.ReloadPending
	if st.Baseline != nil {
		s.baseline.Reset(*st.Baseline)
		s.working = st.Working.Clone()
		if s.working.Collections == nil {
			s.working = st.Baseline.Clone()
		}
	}
	if !st.UpdatedAt.IsZero() {
		s.updatedAt = st.UpdatedAt
	}
	return s, nil
}
