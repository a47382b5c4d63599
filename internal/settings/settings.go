// Package settings diffs the flat key/value header settings of the site.
package settings

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hospitalcms/backend/internal/models"
)

// ErrUnknownSetting is returned when a setting id or key does not exist
var ErrUnknownSetting = errors.New("unknown setting")

// Diff returns the working values that differ from the baseline, ordered by setting id
func Diff(baseline, working map[int]string) []models.SettingValue {
	out := make([]models.SettingValue, 0)
	for id, value := range working {
		if before, ok := baseline[id]; ok && before == value {
			continue
		}
		out = append(out, models.SettingValue{ID: id, SettingValue: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Session holds the baseline and working values of the header settings
type Session struct {
	mu       sync.Mutex
	keys     map[string]int
	names    map[int]string
	baseline map[int]string
	working  map[int]string
}

// NewSession captures the fetched settings as baseline and working copy
func NewSession(current []models.HeaderSetting) *Session {
	s := &Session{
		keys:     make(map[string]int, len(current)),
		names:    make(map[int]string, len(current)),
		baseline: make(map[int]string, len(current)),
		working:  make(map[int]string, len(current)),
	}
	for _, setting := range current {
		s.keys[setting.SettingKey] = setting.ID
		s.names[setting.ID] = setting.SettingKey
		s.baseline[setting.ID] = setting.SettingValue
		s.working[setting.ID] = setting.SettingValue
	}
	return s
}

// Set changes the value of the setting with the given id
func (s *Session) Set(id int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownSetting, id)
	}
	s.working[id] = value
	return nil
}

// SetByKey changes the value of the setting with the given key
func (s *Session) SetByKey(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.keys[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	s.working[id] = value
	return nil
}

// Changes returns the update carrying only the changed settings
func (s *Session) Changes() models.SettingsUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SettingsUpdate{Settings: Diff(s.baseline, s.working)}
}

// Labels returns the keys of the changed settings, ordered by setting id
func (s *Session) Labels() []string {
	changes := s.Changes()

	s.mu.Lock()
	defer s.mu.Unlock()

	labels := make([]string, 0, len(changes.Settings))
	for _, c := range changes.Settings {
		labels = append(labels, s.names[c.ID])
	}
	return labels
}

// Commit makes the working values the new baseline after a successful save
func (s *Session) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, value := range s.working {
		s.baseline[id] = value
	}
}

// Working returns the current values, ordered by setting id
func (s *Session) Working() []models.HeaderSetting {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.HeaderSetting, 0, len(s.working))
	for id, value := range s.working {
		out = append(out, models.HeaderSetting{ID: id, SettingKey: s.names[id], SettingValue: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
