package settings

import (
	"testing"

	"github.com/hospitalcms/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		baseline map[int]string
		working  map[int]string
		expected []models.SettingValue
	}{
		{
			name:     "no changes",
			baseline: map[int]string{1: "a", 2: "b"},
			working:  map[int]string{1: "a", 2: "b"},
			expected: []models.SettingValue{},
		},
		{
			name:     "changed values sorted by id",
			baseline: map[int]string{1: "a", 2: "b", 3: "c"},
			working:  map[int]string{3: "C", 1: "A", 2: "b"},
			expected: []models.SettingValue{{ID: 1, SettingValue: "A"}, {ID: 3, SettingValue: "C"}},
		},
		{
			name:     "exact match policy",
			baseline: map[int]string{1: "Phone"},
			working:  map[int]string{1: "phone "},
			expected: []models.SettingValue{{ID: 1, SettingValue: "phone "}},
		},
		{
			name:     "value missing from baseline",
			baseline: map[int]string{},
			working:  map[int]string{7: ""},
			expected: []models.SettingValue{{ID: 7, SettingValue: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Diff(tt.baseline, tt.working))
		})
	}
}

func TestSession(t *testing.T) {
	s := NewSession([]models.HeaderSetting{
		{ID: 2, SettingKey: "emergency_phone", SettingValue: "108"},
		{ID: 1, SettingKey: "email", SettingValue: "care@hospital.example"},
	})

	assert.Empty(t, s.Changes().Settings)

	require.NoError(t, s.SetByKey("emergency_phone", "1066"))
	require.NoError(t, s.Set(1, "care@hospital.example"))
	assert.ErrorIs(t, s.Set(9, "x"), ErrUnknownSetting)
	assert.ErrorIs(t, s.SetByKey("fax", "x"), ErrUnknownSetting)

	assert.Equal(t, models.SettingsUpdate{Settings: []models.SettingValue{{ID: 2, SettingValue: "1066"}}}, s.Changes())
	assert.Equal(t, []string{"emergency_phone"}, s.Labels())

	working := s.Working()
	require.Len(t, working, 2)
	assert.Equal(t, "email", working[0].SettingKey)
	assert.Equal(t, "1066", working[1].SettingValue)

	s.Commit()
	assert.Empty(t, s.Changes().Settings)
}
