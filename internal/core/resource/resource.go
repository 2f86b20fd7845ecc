// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package resource defines the value types and the adapter contract for
external resources attached to groups.

Resources (workspaces, catalog entries, and so on) live in other services.
This package models only what the groups domain needs to know about them:

  - Identity: validated [Type], [ID], and [AdministrativeID] strings.
  - Access: the [Handler] contract answering existence, administration,
    and visibility questions for one resource type.
  - Information: the [InformationSet] carrying per-resource metadata
    fetched from a handler for view projection.

The special type "user" is reserved for membership workflows and can never
be backed by a registered handler.
*/
package resource

import (
	"strings"

	"github.com/collabry/groups/internal/platform/apperr"
)

// # Reserved Types

// TypeUser is the built-in resource type representing group membership
// targets. It is handled internally and may not be registered.
var TypeUser = Type{name: "user"}

// # Value Types

const (
	maxTypeLength = 20
	maxIDLength   = 256
)

// Type identifies a category of external resource, e.g. "workspace".
type Type struct {
	name string
}

// ParseType validates and wraps a resource type name.
//
// A type is 1 to 20 characters, lowercase ASCII letters and digits only.
func ParseType(name string) (Type, error) {
	if name == "" {
		return Type{}, apperr.ValidationError("Resource type cannot be empty")
	}
	if len(name) > maxTypeLength {
		return Type{}, apperr.ValidationError("Resource type exceeds maximum length",
			apperr.FieldError{Field: "type", Message: "must be at most 20 characters"})
	}
	for _, r := range name {
		// ASCII ranges: unicode.IsLower would admit non-Latin scripts.
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return Type{}, apperr.ValidationError("Resource type contains illegal characters",
				apperr.FieldError{Field: "type", Message: "only lowercase letters and digits are allowed"})
		}
	}
	return Type{name: name}, nil
}

// String returns the type name.
func (t Type) String() string { return t.name }

// IsUser reports whether this is the reserved membership type.
func (t Type) IsUser() bool { return t == TypeUser }

// ID identifies one resource within its type, e.g. a workspace id.
type ID struct {
	id string
}

// ParseID validates and wraps a resource id.
//
// An id is 1 to 256 characters and may not consist solely of whitespace.
func ParseID(id string) (ID, error) {
	if err := checkResourceID(id, "resource id"); err != nil {
		return ID{}, err
	}
	return ID{id: id}, nil
}

// String returns the raw id.
func (i ID) String() string { return i.id }

// AdministrativeID identifies the authority domain that owns a resource.
// It is the unit of admin-permission checks and may differ from the
// resource's own id (a catalog method "module.func" administrates under
// its module "module").
type AdministrativeID struct {
	id string
}

// ParseAdministrativeID validates and wraps an administrative id.
// The character rules match [ParseID].
func ParseAdministrativeID(id string) (AdministrativeID, error) {
	if err := checkResourceID(id, "administrative id"); err != nil {
		return AdministrativeID{}, err
	}
	return AdministrativeID{id: id}, nil
}

// String returns the raw id.
func (i AdministrativeID) String() string { return i.id }

func checkResourceID(id, what string) error {
	if id == "" || strings.TrimSpace(id) == "" {
		return apperr.ValidationError("Missing " + what)
	}
	if len(id) > maxIDLength {
		return apperr.ValidationError("Illegal "+what,
			apperr.FieldError{Field: "id", Message: "must be at most 256 characters"})
	}
	return nil
}

// # Descriptor

// Descriptor pairs a resource id with its administrative id. It is what a
// handler resolves a raw id into, and what the group aggregate stores.
type Descriptor struct {
	ID               ID
	AdministrativeID AdministrativeID
}

// NewDescriptor builds a descriptor from already-validated parts.
func NewDescriptor(id ID, adminID AdministrativeID) Descriptor {
	return Descriptor{ID: id, AdministrativeID: adminID}
}
