// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"context"
	"time"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
)

// # List Parameters

// GetGroupsParams configures group list queries.
type GetGroupsParams struct {
	// SortAscending orders by group id. Defaults to ascending.
	SortAscending bool

	// ExcludeUpTo skips group ids at or before the given id, the
	// pagination cursor. Empty starts from the beginning.
	ExcludeUpTo string

	// Role, when not RoleNone, restricts the listing to groups where
	// the requesting user holds at least that role. Requires a user.
	Role group.Role

	// ResourceType and ResourceID, when both set, restrict the listing
	// to groups containing that resource.
	ResourceType *resource.Type
	ResourceID   *resource.ID
}

// GroupUpdate carries the mutable group properties for an update. Nil
// fields are left unchanged.
type GroupUpdate struct {
	Name              *group.Name
	IsPrivate         *bool
	PrivateMemberList *bool

	// Fields maps field names to new values. An empty value removes
	// the field.
	Fields map[field.CustomField]string
}

// HasUpdate reports whether the update changes anything.
func (u GroupUpdate) HasUpdate() bool {
	return u.Name != nil || u.IsPrivate != nil || u.PrivateMemberList != nil || len(u.Fields) > 0
}

// # Storage Contract

// Storage persists groups and requests. Implementations must make the
// conditional operations race-safe: the "already exists" and "closed
// request" conflicts are business signals the orchestrator relies on,
// not internal faults.
type Storage interface {
	// CreateGroup stores a new group. Conflict when the id is taken.
	CreateGroup(ctx context.Context, g *group.Group) error

	// GetGroup loads one group. Not-found when absent.
	GetGroup(ctx context.Context, id group.ID) (*group.Group, error)

	// GroupExists reports whether the id is taken.
	GroupExists(ctx context.Context, id group.ID) (bool, error)

	// GetGroups lists groups visible to the user: public groups plus
	// the user's own. A nil user sees public groups only.
	GetGroups(ctx context.Context, params GetGroupsParams, user *group.UserName) ([]*group.Group, error)

	// UpdateGroup applies the update and stamps the modification time.
	UpdateGroup(ctx context.Context, id group.ID, update GroupUpdate, modified time.Time) error

	// AddMember stores a plain member. Conflict when the user already
	// belongs to the group in any role.
	AddMember(ctx context.Context, id group.ID, user group.GroupUser, modified time.Time) error

	// RemoveMember removes a plain member. Not-found when the user is
	// not a plain member.
	RemoveMember(ctx context.Context, id group.ID, user group.UserName, modified time.Time) error

	// AddAdmin promotes an existing plain member. Conflict when the
	// user is already an administrator, not-found when not a member.
	AddAdmin(ctx context.Context, id group.ID, user group.UserName, modified time.Time) error

	// DemoteAdmin moves an administrator back to plain membership.
	// Not-found when the user is not an administrator.
	DemoteAdmin(ctx context.Context, id group.ID, user group.UserName, modified time.Time) error

	// UpdateUser replaces the given custom fields on a membership
	// record. An empty value removes the field.
	UpdateUser(ctx context.Context, id group.ID, user group.UserName, fields map[field.CustomField]string, modified time.Time) error

	// UpdateLastVisit stamps the user's last visit without touching the
	// group modification time.
	UpdateLastVisit(ctx context.Context, id group.ID, user group.UserName, visited time.Time) error

	// AddResource attaches a resource. Conflict when the exact
	// descriptor is already attached; a differing administrative id
	// overwrites (last write wins).
	AddResource(ctx context.Context, id group.ID, typ resource.Type, entry group.ResourceEntry, modified time.Time) error

	// RemoveResource detaches a resource. Not-found when absent.
	RemoveResource(ctx context.Context, id group.ID, typ resource.Type, rid resource.ID, modified time.Time) error

	// StoreRequest stores a new request. Conflict when an equivalent
	// open request already exists or the id is taken.
	StoreRequest(ctx context.Context, r request.Request) error

	// GetRequest loads one request. Not-found when absent.
	GetRequest(ctx context.Context, id request.ID) (request.Request, error)

	// GetRequestsByRequester lists requests created by the user.
	GetRequestsByRequester(ctx context.Context, user group.UserName, params request.GetRequestsParams) ([]request.Request, error)

	// GetRequestsByTarget lists requests targeting the user directly or
	// through the administrative ids they control.
	GetRequestsByTarget(ctx context.Context, user group.UserName, admined map[resource.Type][]resource.AdministrativeID, params request.GetRequestsParams) ([]request.Request, error)

	// GetRequestsByGroup lists requests targeting the group's admins.
	GetRequestsByGroup(ctx context.Context, id group.ID, params request.GetRequestsParams) ([]request.Request, error)

	// CloseRequest transitions one open request to a terminal status.
	// Conflict with a closed-request signal when the request is no
	// longer open.
	CloseRequest(ctx context.Context, id request.ID, status request.Status, modified time.Time) error

	// ExpireRequests flips open requests whose horizon passed to the
	// expired status, returning how many were flipped.
	ExpireRequests(ctx context.Context, now time.Time) (int, error)
}

// # Collaborator Contracts

// UserHandler resolves tokens and validates usernames against the
// identity provider.
type UserHandler interface {
	// GetUser resolves a token to a username, failing with an
	// authentication error for invalid or expired tokens.
	GetUser(ctx context.Context, token string) (group.UserName, error)

	// IsValidUser reports whether the username exists.
	IsValidUser(ctx context.Context, name group.UserName) (bool, error)
}
