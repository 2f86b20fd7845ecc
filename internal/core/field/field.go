// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package field models the custom metadata fields a group (or a group
member) can carry.

Fields are named by a validated [CustomField], configured by a
[Configuration] controlling visibility and settability, and checked by
pluggable validator functions collected in a [Validators] registry.
Concrete validator factories live in the fieldvalidators package.
*/
package field

import (
	"strconv"
	"strings"

	"github.com/collabry/groups/internal/platform/apperr"
)

// # Field Names

const maxFieldLength = 50

// CustomField is a validated custom field name. A name has a root of
// lowercase letters and digits, optionally followed by a numbered suffix
// "-N" so one configured root can back a family of fields
// ("keyword-1", "keyword-2", ...).
type CustomField struct {
	root   string
	number int // 0 when unnumbered
}

// ParseCustomField validates and wraps a custom field name.
//
// The full name is at most 50 characters. The suffix number, when
// present, is a positive integer without leading zeros.
func ParseCustomField(name string) (CustomField, error) {
	if name == "" {
		return CustomField{}, apperr.ValidationError("Custom field name cannot be empty")
	}
	if len(name) > maxFieldLength {
		return CustomField{}, apperr.ValidationError("Custom field name exceeds maximum length",
			apperr.FieldError{Field: "field", Message: "must be at most 50 characters"})
	}

	root, suffix, numbered := strings.Cut(name, "-")
	if err := checkFieldRoot(root); err != nil {
		return CustomField{}, err
	}

	if !numbered {
		return CustomField{root: root}, nil
	}

	if suffix == "" || strings.HasPrefix(suffix, "0") {
		return CustomField{}, illegalSuffix(name)
	}
	for _, r := range suffix {
		// Digits only: Atoi alone would also admit a sign.
		if r < '0' || r > '9' {
			return CustomField{}, illegalSuffix(name)
		}
	}
	number, err := strconv.Atoi(suffix)
	if err != nil || number < 1 {
		return CustomField{}, illegalSuffix(name)
	}
	return CustomField{root: root, number: number}, nil
}

func checkFieldRoot(root string) error {
	if root == "" {
		return apperr.ValidationError("Custom field name cannot be empty")
	}
	for _, r := range root {
		// ASCII ranges: unicode.IsLower would admit non-Latin scripts.
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return apperr.ValidationError("Custom field name contains illegal characters",
				apperr.FieldError{Field: "field", Message: "only lowercase letters and digits are allowed, with an optional -N suffix"})
		}
	}
	return nil
}

func illegalSuffix(name string) error {
	return apperr.ValidationError("Illegal custom field name suffix",
		apperr.FieldError{Field: name, Message: "the suffix must be a positive number without leading zeros"})
}

// Root returns the configured field root, without the numbered suffix.
func (f CustomField) Root() string { return f.root }

// IsNumbered reports whether the name carries a numbered suffix.
func (f CustomField) IsNumbered() bool { return f.number > 0 }

// Number returns the suffix number, or 0 when unnumbered.
func (f CustomField) Number() int { return f.number }

// String returns the full field name.
func (f CustomField) String() string {
	if f.number > 0 {
		return f.root + "-" + strconv.Itoa(f.number)
	}
	return f.root
}

// # Field Configuration

// Configuration controls the visibility and settability of one field root.
type Configuration struct {
	// IsPublic makes the field visible to viewers without a role.
	IsPublic bool

	// IsMinimalView includes the field in minimal views.
	IsMinimalView bool

	// IsUserSettable allows members to set the field on their own
	// membership record. Only meaningful for per-user fields.
	IsUserSettable bool

	// Validator checks a candidate value. Required.
	Validator Validator
}

// Validator checks one candidate field value and returns a validation
// error when the value is not acceptable.
type Validator func(field CustomField, value string) error
