// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package request models the bilateral approval workflow item.

A [Request] records that one authority domain proposed an action the
other domain must approve: a membership ask, a user invite, or a
resource attachment from either side. Its [Kind] encodes which side acts
next; its [Status] is a closed-form value that transitions exactly once
from open to a terminal state.
*/
package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/constants"
	"github.com/collabry/groups/internal/platform/validate"
)

// # Identity

// ID is a validated request identifier, a UUID issued by the
// orchestrator's injected generator.
type ID struct {
	id string
}

// ParseID validates and wraps a request id.
func ParseID(id string) (ID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ID{}, apperr.ValidationError("Illegal request id",
			apperr.FieldError{Field: "id", Message: "must be a UUID"})
	}
	return ID{id: parsed.String()}, nil
}

// String returns the canonical id.
func (i ID) String() string { return i.id }

// # Kind

// Kind encodes which authority domain must approve the request.
type Kind int

const (
	// KindRequest asks the target domain to let the creator's side in:
	// a user asking to join, or a group admin asking to attach a
	// resource they do not administrate.
	KindRequest Kind = iota

	// KindInvite proposes from the owning side: a group admin inviting
	// a user, or a resource admin offering their resource to a group.
	KindInvite
)

// String returns the wire representation of the kind.
func (k Kind) String() string {
	if k == KindInvite {
		return "invite"
	}
	return "request"
}

// ParseKind maps a wire representation back to a kind.
func ParseKind(kind string) (Kind, error) {
	switch kind {
	case "request":
		return KindRequest, nil
	case "invite":
		return KindInvite, nil
	default:
		return 0, apperr.ValidationError("Illegal request kind",
			apperr.FieldError{Field: "kind", Message: "must be request or invite"})
	}
}

// # Status

// StatusCode enumerates the closed-form request states.
type StatusCode int

const (
	StatusCodeOpen StatusCode = iota
	StatusCodeCanceled
	StatusCodeExpired
	StatusCodeDenied
	StatusCodeAccepted
)

// String returns the wire representation of the code.
func (c StatusCode) String() string {
	switch c {
	case StatusCodeCanceled:
		return "canceled"
	case StatusCodeExpired:
		return "expired"
	case StatusCodeDenied:
		return "denied"
	case StatusCodeAccepted:
		return "accepted"
	default:
		return "open"
	}
}

// ParseStatusCode maps a wire representation back to a status code.
func ParseStatusCode(code string) (StatusCode, error) {
	switch code {
	case "open":
		return StatusCodeOpen, nil
	case "canceled":
		return StatusCodeCanceled, nil
	case "expired":
		return StatusCodeExpired, nil
	case "denied":
		return StatusCodeDenied, nil
	case "accepted":
		return StatusCodeAccepted, nil
	default:
		return 0, apperr.ValidationError("Illegal request status",
			apperr.FieldError{Field: "status", Message: "unknown status code"})
	}
}

// Status is a tagged value: the code plus, for denied and accepted
// states, the user who closed the request and an optional denial reason.
type Status struct {
	code     StatusCode
	closedBy *group.UserName
	reason   string
}

// StatusOpen returns the open status.
func StatusOpen() Status { return Status{code: StatusCodeOpen} }

// StatusCanceled returns the canceled terminal status.
func StatusCanceled() Status { return Status{code: StatusCodeCanceled} }

// StatusExpired returns the expired terminal status.
func StatusExpired() Status { return Status{code: StatusCodeExpired} }

// StatusDenied returns the denied terminal status. The reason is
// optional, bounded at 500 characters, and free of control characters.
func StatusDenied(closedBy group.UserName, reason string) (Status, error) {
	v := &validate.Validator{}
	v.MaxLen("reason", reason, constants.MaxReasonLength)
	v.NoControl("reason", reason)
	if err := v.Err(); err != nil {
		return Status{}, err
	}
	by := closedBy
	return Status{code: StatusCodeDenied, closedBy: &by, reason: reason}, nil
}

// StatusAccepted returns the accepted terminal status.
func StatusAccepted(closedBy group.UserName) Status {
	by := closedBy
	return Status{code: StatusCodeAccepted, closedBy: &by}
}

// StatusFromParts rebuilds a status from its stored representation.
// Storage hydration only; new statuses come from the constructors.
func StatusFromParts(code StatusCode, closedBy *group.UserName, reason string) Status {
	return Status{code: code, closedBy: closedBy, reason: reason}
}

// Code returns the status code.
func (s Status) Code() StatusCode { return s.code }

// IsOpen reports whether the status is the open, non-terminal state.
func (s Status) IsOpen() bool { return s.code == StatusCodeOpen }

// ClosedBy returns the closing user for denied and accepted states.
func (s Status) ClosedBy() *group.UserName { return s.closedBy }

// Reason returns the denial reason, empty when absent.
func (s Status) Reason() string { return s.reason }

// # Request

// Times carries a request's lifecycle instants.
type Times struct {
	CreatedAt  time.Time
	ModifiedAt time.Time
	ExpiresAt  time.Time
}

// Request is one approval workflow item. Immutable; status transitions
// happen at the storage boundary and yield a freshly loaded value.
type Request struct {
	id         ID
	groupID    group.ID
	requester  group.UserName
	kind       Kind
	resType    resource.Type
	descriptor resource.Descriptor
	status     Status
	createdAt  time.Time
	modifiedAt time.Time
	expiresAt  time.Time
}

// New validates and builds a request.
//
// The expiration may not predate creation, and the modification time may
// not predate creation either.
func New(
	id ID,
	groupID group.ID,
	requester group.UserName,
	kind Kind,
	resType resource.Type,
	descriptor resource.Descriptor,
	status Status,
	times Times,
) (Request, error) {
	if times.ExpiresAt.Before(times.CreatedAt) {
		return Request{}, apperr.ValidationError("Request expiration predates creation")
	}
	if times.ModifiedAt.Before(times.CreatedAt) {
		return Request{}, apperr.ValidationError("Request modification predates creation")
	}
	return Request{
		id:         id,
		groupID:    groupID,
		requester:  requester,
		kind:       kind,
		resType:    resType,
		descriptor: descriptor,
		status:     status,
		createdAt:  times.CreatedAt.UTC(),
		modifiedAt: times.ModifiedAt.UTC(),
		expiresAt:  times.ExpiresAt.UTC(),
	}, nil
}

// ID returns the request id.
func (r Request) ID() ID { return r.id }

// GroupID returns the target group.
func (r Request) GroupID() group.ID { return r.groupID }

// Requester returns the creator.
func (r Request) Requester() group.UserName { return r.requester }

// Kind returns the request kind.
func (r Request) Kind() Kind { return r.kind }

// ResourceType returns the target resource type, which is the reserved
// user type for membership workflows.
func (r Request) ResourceType() resource.Type { return r.resType }

// Resource returns the target descriptor. For membership workflows the
// id and administrative id both carry the username.
func (r Request) Resource() resource.Descriptor { return r.descriptor }

// ResourceIsUser reports whether the request targets a user rather than
// a typed resource.
func (r Request) ResourceIsUser() bool { return r.resType.IsUser() }

// Status returns the current status.
func (r Request) Status() Status { return r.status }

// IsOpen reports whether the request can still transition.
func (r Request) IsOpen() bool { return r.status.IsOpen() }

// CreatedAt returns the creation time.
func (r Request) CreatedAt() time.Time { return r.createdAt }

// ModifiedAt returns the last transition time.
func (r Request) ModifiedAt() time.Time { return r.modifiedAt }

// ExpiresAt returns the expiration horizon.
func (r Request) ExpiresAt() time.Time { return r.expiresAt }

// # List Parameters

// SortDirection orders request listings by creation time.
type SortDirection int

const (
	SortAscending SortDirection = iota
	SortDescending
)

// GetRequestsParams configures request list queries.
type GetRequestsParams struct {
	// Sort orders by creation time, ascending by default.
	Sort SortDirection

	// ExcludeUpTo skips requests created at or before the given instant,
	// the pagination cursor. Nil starts from the beginning.
	ExcludeUpTo *time.Time

	// IncludeClosed includes terminal requests. Defaults to open only.
	IncludeClosed bool

	// ResourceType and ResourceID, when both set, restrict the listing
	// to requests targeting that resource.
	ResourceType *resource.Type
	ResourceID   *resource.ID
}
