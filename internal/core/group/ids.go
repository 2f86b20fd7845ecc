// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group

import (
	"unicode"

	"github.com/collabry/groups/internal/platform/apperr"
)

// # Identifier Value Types

const (
	maxIDLength   = 100
	maxNameLength = 256
	maxUserLength = 100
)

// isASCIILower reports whether r is an ASCII lowercase letter. The
// identifier grammars are ASCII-only; unicode.IsLower would also admit
// non-Latin scripts.
func isASCIILower(r rune) bool { return 'a' <= r && r <= 'z' }

// isASCIIDigit reports whether r is an ASCII digit.
func isASCIIDigit(r rune) bool { return '0' <= r && r <= '9' }

// ID is a validated group identifier.
type ID struct {
	id string
}

// ParseID validates and wraps a group id.
//
// An id is at most 100 characters of lowercase ASCII letters, digits,
// hyphens, and underscores, and must start with a letter.
func ParseID(id string) (ID, error) {
	if id == "" {
		return ID{}, apperr.ValidationError("Group id cannot be empty")
	}
	if len(id) > maxIDLength {
		return ID{}, apperr.ValidationError("Group id exceeds maximum length",
			apperr.FieldError{Field: "id", Message: "must be at most 100 characters"})
	}
	for pos, r := range id {
		if pos == 0 && !isASCIILower(r) {
			return ID{}, apperr.ValidationError("Group id must start with a letter",
				apperr.FieldError{Field: "id", Message: id})
		}
		if !isASCIILower(r) && !isASCIIDigit(r) && r != '-' && r != '_' {
			return ID{}, apperr.ValidationError("Group id contains illegal characters",
				apperr.FieldError{Field: "id", Message: "only lowercase letters, digits, hyphens, and underscores are allowed"})
		}
	}
	return ID{id: id}, nil
}

// String returns the raw id.
func (i ID) String() string { return i.id }

// Name is a validated human-readable group name.
type Name struct {
	name string
}

// ParseName validates and wraps a group name.
//
// A name is 1 to 256 characters and may not contain control characters.
func ParseName(name string) (Name, error) {
	if name == "" {
		return Name{}, apperr.ValidationError("Group name cannot be empty")
	}
	if len(name) > maxNameLength {
		return Name{}, apperr.ValidationError("Group name exceeds maximum length",
			apperr.FieldError{Field: "name", Message: "must be at most 256 characters"})
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return Name{}, apperr.ValidationError("Group name contains control characters")
		}
	}
	return Name{name: name}, nil
}

// String returns the raw name.
func (n Name) String() string { return n.name }

// UserName is a validated username as issued by the identity provider.
type UserName struct {
	name string
}

// ParseUserName validates and wraps a username.
//
// A username is at most 100 characters of lowercase ASCII letters,
// digits, and underscores, and must start with a letter.
func ParseUserName(name string) (UserName, error) {
	if name == "" {
		return UserName{}, apperr.ValidationError("Username cannot be empty")
	}
	if len(name) > maxUserLength {
		return UserName{}, apperr.ValidationError("Username exceeds maximum length",
			apperr.FieldError{Field: "user", Message: "must be at most 100 characters"})
	}
	for pos, r := range name {
		if pos == 0 && !isASCIILower(r) {
			return UserName{}, apperr.ValidationError("Username must start with a letter",
				apperr.FieldError{Field: "user", Message: name})
		}
		if !isASCIILower(r) && !isASCIIDigit(r) && r != '_' {
			return UserName{}, apperr.ValidationError("Username contains illegal characters",
				apperr.FieldError{Field: "user", Message: "only lowercase letters, digits, and underscores are allowed"})
		}
	}
	return UserName{name: name}, nil
}

// String returns the raw username.
func (u UserName) String() string { return u.name }
