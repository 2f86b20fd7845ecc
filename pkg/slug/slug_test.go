// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package slug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/collabry/groups/pkg/slug"
)

/*
TestFrom tests the Unicode to ASCII slug pipeline.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "my group", "my-group"},
		{"accents_stripped", "Héctor's Lab", "hectors-lab"},
		{"typographic_apostrophe", "Héctor’s Lab", "hectors-lab"},
		{"uppercase_lowered", "Collabry Groups", "collabry-groups"},
		{"punctuation_collapsed", "a -- b!!c", "a-b-c"},
		{"edge_hyphens_trimmed", " --trimmed-- ", "trimmed"},
		{"digits_kept", "lab 42", "lab-42"},
		{"empty", "", ""},
		{"only_symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}

/*
TestGroupID tests candidate id derivation: leading non-letters are
dropped and the result is truncated without a dangling hyphen.
*/
func TestGroupID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"plain", "Héctor's Lab", 100, "hectors-lab"},
		{"leading_digits_dropped", "42 labs", 100, "labs"},
		{"all_digits_unusable", "4242", 100, ""},
		{"truncated", "abcdef", 4, "abcd"},
		{"truncation_trims_hyphen", "abc def", 4, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.GroupID(tt.input, tt.maxLen))
		})
	}

	t.Run("long_input_bounded", func(t *testing.T) {
		got := slug.GroupID(strings.Repeat("x", 300), 100)
		assert.Len(t, got, 100)
	})
}
