// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package resource

import (
	"context"
	"errors"
	"fmt"
)

// # Handler Errors

// ErrNoSuchResource signals that a handler could not find the resource.
// Callers decide per site whether this means "not authorized" or
// "trigger lazy cleanup"; it is never a hard failure by itself.
var ErrNoSuchResource = errors.New("no such resource")

// IllegalIDError signals that an id string does not fit the target
// service's id format, independent of the generic length rules.
type IllegalIDError struct {
	ID     string
	Reason string
}

func (e *IllegalIDError) Error() string {
	return fmt.Sprintf("illegal resource id %q: %s", e.ID, e.Reason)
}

// UnreachableError signals that the backing service could not be
// contacted or returned a malformed answer.
type UnreachableError struct {
	Type  Type
	Cause error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("resource handler %q unreachable: %v", e.Type, e.Cause)
}

func (e *UnreachableError) Unwrap() error { return e.Cause }

// IsNoSuchResource reports whether err indicates a missing resource.
func IsNoSuchResource(err error) bool {
	return errors.Is(err, ErrNoSuchResource)
}

// # Access Levels

// AccessLevel scopes which resources a handler includes when fetching
// information for a view.
type AccessLevel int

const (
	// AccessAll includes every requested resource.
	AccessAll AccessLevel = iota

	// AccessAdministratedAndPublic includes resources the user
	// administrates plus publicly readable ones.
	AccessAdministratedAndPublic

	// AccessAdministrated includes only resources the user administrates.
	AccessAdministrated
)

// # Handler Contract

// Handler adapts one external resource service to the groups domain.
//
// Every method may fail with an *IllegalIDError, an *UnreachableError,
// or ErrNoSuchResource as appropriate.
type Handler interface {
	// GetDescriptor resolves a raw resource id into its descriptor,
	// including the administrative id used for permission checks.
	GetDescriptor(ctx context.Context, id ID) (Descriptor, error)

	// IsAdministrator reports whether the user administrates the resource.
	IsAdministrator(ctx context.Context, id ID, user string) (bool, error)

	// IsPublic reports whether the resource is publicly readable.
	IsPublic(ctx context.Context, id ID) (bool, error)

	// GetAdministrators returns the usernames administrating the resource.
	GetAdministrators(ctx context.Context, id ID) ([]string, error)

	// GetAdministratedResources returns the administrative ids of every
	// resource the user administrates within this type.
	GetAdministratedResources(ctx context.Context, user string) ([]AdministrativeID, error)

	// GetResourceInformation fetches per-resource metadata for the given
	// ids, filtered by the access level. Unknown ids are reported as
	// nonexistent in the returned set, not as an error.
	GetResourceInformation(ctx context.Context, user string, ids []ID, access AccessLevel) (InformationSet, error)

	// SetReadPermission grants the user read access to the resource.
	SetReadPermission(ctx context.Context, id ID, user string) error
}
