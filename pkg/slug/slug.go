// Copyright (c) 2026 Collabry, Inc. All rights reserved.

// Package slug derives ASCII identifier suggestions from arbitrary Unicode strings.
//
// # Usage
//
// Group IDs are user-chosen, lowercase, and character-restricted. When a client
// supplies only a display name ("Héctor's Lab"), this package produces a
// well-formed candidate ID ("hectors-lab") to offer back. It handles
// normalization, accent removal, and character sanitization.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
	// leadingNonLetter strips anything before the first letter. Group IDs
	// must start with a letter.
	leadingNonLetter = regexp.MustCompile(`^[^a-z]+`)
)

// From converts an arbitrary Unicode string into a lowercase ASCII slug.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Drops apostrophes so elisions join ("Héctor's" → "hectors").
// 5. Replaces non-alphanumeric characters with hyphens.
// 6. Collapses multiple hyphens and trims leading/trailing hyphens.
func From(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Drop apostrophes (ASCII and typographic) rather than
	// hyphenating them, so contractions stay one word.
	result = strings.Map(func(r rune) rune {
		if r == '\'' || r == '’' {
			return -1
		}
		return r
	}, result)

	// 4. Replace whitespace and special chars with hyphens
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// 5. Clean up hyphenation
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}

// GroupID converts a display name into a candidate group ID: the [From]
// slug with any leading non-letter runes removed and the result truncated
// to maxLen. Returns "" if nothing usable remains.
func GroupID(name string, maxLen int) string {
	s := leadingNonLetter.ReplaceAllString(From(name), "")
	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	return s
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
