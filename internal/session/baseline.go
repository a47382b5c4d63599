package session

import (
	"sync"

	"github.com/hospitalcms/backend/internal/snapshot"
)

// Baseline holds the last known saved snapshot of a section.
// It is captured once per load and replaced only after a successful save.
type Baseline struct {
	mu   sync.RWMutex
	snap *snapshot.Snapshot
}

// Capture stores s when the baseline is still empty and reports whether it did
func (b *Baseline) Capture(s snapshot.Snapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.snap != nil {
		return false
	}
	c := s.Clone()
	b.snap = &c
	return true
}

// Reset replaces the baseline unconditionally
func (b *Baseline) Reset(s snapshot.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := s.Clone()
	b.snap = &c
}

// Snapshot returns a copy of the baseline; ok is false while nothing was captured
func (b *Baseline) Snapshot() (snapshot.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.snap == nil {
		return snapshot.Snapshot{}, false
	}
	return b.snap.Clone(), true
}

// Loaded reports whether a snapshot was captured
func (b *Baseline) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap != nil
}
