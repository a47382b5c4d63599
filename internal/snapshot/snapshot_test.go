package snapshot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hospitalcms/backend/internal/styletoken"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	orig := Derive(mustLayout(t, "accreditations"), accreditationBlocks())
	clone := orig.Clone()

	if diff := cmp.Diff(orig, clone); diff != "" {
		t.Fatalf("Clone() mismatch (-orig +clone):\n%s", diff)
	}

	clone.Header.Title = "changed"
	*clone.Header.BlockID = 0
	clone.Collections["certificates"][0].Title = "changed"
	*clone.Collections["certificates"][1].Media.FileID = 0

	assert.Equal(t, "Accredited Excellence", orig.Header.Title)
	assert.Equal(t, 10, *orig.Header.BlockID)
	assert.Equal(t, "JCI", orig.Collections["certificates"][0].Title)
	assert.Equal(t, 502, *orig.Collections["certificates"][1].Media.FileID)
	assert.False(t, orig.Equal(clone))
}

func TestEqual(t *testing.T) {
	base := Derive(mustLayout(t, "accreditations"), accreditationBlocks())

	tests := []struct {
		name     string
		mutate   func(s *Snapshot)
		expected bool
	}{
		{
			name:     "identical",
			mutate:   func(s *Snapshot) {},
			expected: true,
		},
		{
			name: "pointer identity does not matter",
			mutate: func(s *Snapshot) {
				s.Header.BlockID = intPtr(10)
			},
			expected: true,
		},
		{
			name: "nil and empty collection",
			mutate: func(s *Snapshot) {
				s.Collections["gallery"] = nil
			},
			expected: true,
		},
		{
			name: "header level",
			mutate: func(s *Snapshot) {
				s.Header.HeadingLevel = styletoken.H1
			},
			expected: false,
		},
		{
			name: "media file id",
			mutate: func(s *Snapshot) {
				s.Collections["certificates"][0].Media.FileID = intPtr(9)
			},
			expected: false,
		},
		{
			name: "collection length",
			mutate: func(s *Snapshot) {
				s.Collections["certificates"] = s.Collections["certificates"][:1]
			},
			expected: false,
		},
		{
			name: "missing header",
			mutate: func(s *Snapshot) {
				s.Header = nil
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base.Clone()
			tt.mutate(&other)
			assert.Equal(t, tt.expected, base.Equal(other))
		})
	}
}

func TestFind(t *testing.T) {
	s := Derive(mustLayout(t, "accreditations"), accreditationBlocks())

	item, idx, ok := s.Find("certificates", "block-12")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "NABH", item.Title)

	_, idx, ok = s.Find("certificates", "block-99")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestValidate(t *testing.T) {
	l := mustLayout(t, "accreditations")
	base := Derive(l, accreditationBlocks())

	tests := []struct {
		name          string
		mutate        func(s *Snapshot)
		expectedError bool
		errorContains string
	}{
		{
			name:   "valid",
			mutate: func(s *Snapshot) {},
		},
		{
			name:          "wrong layout",
			mutate:        func(s *Snapshot) { s.Layout = "hero" },
			expectedError: true,
			errorContains: "does not match",
		},
		{
			name:          "unknown collection",
			mutate:        func(s *Snapshot) { s.Collections["banners"] = nil },
			expectedError: true,
			errorContains: "unknown collection",
		},
		{
			name: "duplicate key",
			mutate: func(s *Snapshot) {
				s.Collections["certificates"][1].Key = s.Collections["certificates"][0].Key
			},
			expectedError: true,
			errorContains: "duplicate key",
		},
		{
			name:          "invalid header level",
			mutate:        func(s *Snapshot) { s.Header.HeadingLevel = "h7" },
			expectedError: true,
			errorContains: "invalid heading level",
		},
		{
			name:          "missing header",
			mutate:        func(s *Snapshot) { s.Header = nil },
			expectedError: true,
			errorContains: "header does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.mutate(&s)
			err := s.Validate(l)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateBlocks(t *testing.T) {
	l := mustLayout(t, "accreditations")
	base := Derive(l, accreditationBlocks())

	tests := []struct {
		name          string
		mutate        func(s *Snapshot)
		expectedError bool
		errorContains string
	}{
		{
			name:   "unchanged",
			mutate: func(s *Snapshot) {},
		},
		{
			name: "new item",
			mutate: func(s *Snapshot) {
				s.Collections["certificates"] = append(s.Collections["certificates"], Item{Key: "new-iso", Title: "ISO", HeadingLevel: "h3"})
			},
		},
		{
			name:          "block of another section",
			mutate:        func(s *Snapshot) { s.Collections["certificates"][0].BlockID = intPtr(99) },
			expectedError: true,
			errorContains: `key "block-11" does not match block id 99`,
		},
		{
			name: "block of another section with matching key",
			mutate: func(s *Snapshot) {
				s.Collections["certificates"][0].BlockID = intPtr(99)
				s.Collections["certificates"][0].Key = "block-99"
			},
			expectedError: true,
			errorContains: "block 99 is not part of the loaded section",
		},
		{
			name:          "block key without id",
			mutate:        func(s *Snapshot) { s.Collections["certificates"][1].BlockID = nil },
			expectedError: true,
			errorContains: `key "block-12" has no block id`,
		},
		{
			name: "header block used as item",
			mutate: func(s *Snapshot) {
				s.Collections["certificates"][0].BlockID = intPtr(10)
				s.Collections["certificates"][0].Key = "block-10"
			},
			expectedError: true,
			errorContains: "block 10 is not part of the loaded section",
		},
		{
			name:          "header pointing elsewhere",
			mutate:        func(s *Snapshot) { s.Header.BlockID = intPtr(11); s.Header.Key = "block-11" },
			expectedError: true,
			errorContains: "header: block 11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.mutate(&s)
			err := s.ValidateBlocks(base)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}
