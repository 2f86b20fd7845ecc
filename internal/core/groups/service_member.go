// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"context"
	"log/slog"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/constants"
)

// # Membership Workflow

/*
RequestGroupMembership creates an open REQUEST asking the group's
administration to admit the token's user.

Parameters:
  - ctx: context.Context
  - token: the applicant's bearer token
  - id: group.ID

Returns:
  - request.Request: the stored request
  - error: conflict when already a member or an equivalent request is open
*/
func (s *Service) RequestGroupMembership(ctx context.Context, token string, id group.ID) (request.Request, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return request.Request{}, err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return request.Request{}, err
	}
	if g.IsMember(user) {
		return request.Request{}, apperr.Conflict("User " + user.String() + " is already a member of group " + id.String())
	}

	r, err := s.storeNewRequest(ctx, g, user, request.KindRequest, userDescriptor(user))
	if err != nil {
		return request.Request{}, err
	}
	s.notifier.Notify(ctx, notifyTargets(user, g.AdministratorsAndOwner()), g, r)
	s.logger.InfoContext(ctx, "membership_requested",
		slog.String("group_id", id.String()),
		slog.String("user", user.String()),
		slog.String("request_id", r.ID().String()),
	)
	return r, nil
}

/*
InviteUserToGroup creates an open INVITE offering group membership to
another user. Only administrators may invite.

Parameters:
  - ctx: context.Context
  - token: the inviting administrator's bearer token
  - id: group.ID
  - invitee: group.UserName

Returns:
  - request.Request: the stored request
  - error: authorization, unknown-user, or conflict failures
*/
func (s *Service) InviteUserToGroup(ctx context.Context, token string, id group.ID, invitee group.UserName) (request.Request, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return request.Request{}, err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return request.Request{}, err
	}
	if !g.IsAdministrator(user) {
		return request.Request{}, apperr.Unauthorized(unauthorizedMessage)
	}

	valid, err := s.users.IsValidUser(ctx, invitee)
	if err != nil {
		return request.Request{}, err
	}
	if !valid {
		return request.Request{}, apperr.ValidationError("No such user",
			apperr.FieldError{Field: "user", Message: invitee.String()})
	}
	if g.IsMember(invitee) {
		return request.Request{}, apperr.Conflict("User " + invitee.String() + " is already a member of group " + id.String())
	}

	r, err := s.storeNewRequest(ctx, g, user, request.KindInvite, userDescriptor(invitee))
	if err != nil {
		return request.Request{}, err
	}
	s.notifier.Notify(ctx, []group.UserName{invitee}, g, r)
	s.logger.InfoContext(ctx, "membership_invited",
		slog.String("group_id", id.String()),
		slog.String("invitee", invitee.String()),
		slog.String("actor", user.String()),
		slog.String("request_id", r.ID().String()),
	)
	return r, nil
}

// # Member Administration

/*
RemoveMember removes a plain member from a group. Administrators may
remove anyone; a member may remove themselves.

Parameters:
  - ctx: context.Context
  - token: the actor's bearer token
  - id: group.ID
  - member: group.UserName

Returns:
  - error: authorization or persistence failures
*/
func (s *Service) RemoveMember(ctx context.Context, token string, id group.ID, member group.UserName) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}
	if user != member && !g.IsAdministrator(user) {
		return apperr.Unauthorized(unauthorizedMessage)
	}

	if err := s.storage.RemoveMember(ctx, id, member, s.now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member_removed",
		slog.String("group_id", id.String()),
		slog.String("member", member.String()),
		slog.String("actor", user.String()),
	)
	return nil
}

/*
PromoteMember raises a plain member to administrator. Owner only.

Parameters:
  - ctx: context.Context
  - token: the owner's bearer token
  - id: group.ID
  - member: group.UserName

Returns:
  - error: authorization or persistence failures
*/
func (s *Service) PromoteMember(ctx context.Context, token string, id group.ID, member group.UserName) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}
	if g.Role(user) != group.RoleOwner {
		return apperr.Unauthorized(unauthorizedMessage)
	}
	if g.Role(member) != group.RoleMember {
		return apperr.ValidationError("Only plain members can be promoted",
			apperr.FieldError{Field: "user", Message: member.String()})
	}

	if err := s.storage.AddAdmin(ctx, id, member, s.now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member_promoted",
		slog.String("group_id", id.String()),
		slog.String("member", member.String()),
	)
	return nil
}

/*
DemoteAdmin moves an administrator back to plain membership. The owner
may demote any administrator; an administrator may demote themselves.

Parameters:
  - ctx: context.Context
  - token: the actor's bearer token
  - id: group.ID
  - admin: group.UserName

Returns:
  - error: authorization or persistence failures
*/
func (s *Service) DemoteAdmin(ctx context.Context, token string, id group.ID, admin group.UserName) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}
	if user != admin && g.Role(user) != group.RoleOwner {
		return apperr.Unauthorized(unauthorizedMessage)
	}

	if err := s.storage.DemoteAdmin(ctx, id, admin, s.now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin_demoted",
		slog.String("group_id", id.String()),
		slog.String("admin", admin.String()),
		slog.String("actor", user.String()),
	)
	return nil
}

/*
UpdateUserFields sets custom fields on a membership record.

Administrators may set any configured user field on any member. A member
may set fields on their own record when the field is user-settable. Any
other actor gets the uniform authorization error, identical across
"not a member" and "no such member" cases.

Parameters:
  - ctx: context.Context
  - token: the actor's bearer token
  - id: group.ID
  - member: group.UserName
  - fields: field values, empty string removes a field

Returns:
  - error: validation, authorization, or persistence failures
*/
func (s *Service) UpdateUserFields(
	ctx context.Context,
	token string,
	id group.ID,
	member group.UserName,
	fields map[field.CustomField]string,
) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}

	isSelf := user == member && g.IsMember(member)
	isAdmin := g.IsAdministrator(user)
	if !isSelf && !isAdmin {
		return apperr.Unauthorized(unauthorizedMessage)
	}
	if !g.IsMember(member) {
		return apperr.Unauthorized(unauthorizedMessage)
	}

	for f, value := range fields {
		if isSelf && !isAdmin && !s.userFields.IsUserSettable(f) {
			return apperr.Unauthorized(unauthorizedMessage)
		}
		if value == "" {
			continue
		}
		if err := s.userFields.Validate(f, value); err != nil {
			return err
		}
	}
	if len(fields) == 0 {
		return nil
	}

	return s.storage.UpdateUser(ctx, id, member, fields, s.now())
}

// # Request Construction

// userDescriptor wraps a username as the target of a membership
// workflow. Both ids carry the name.
func userDescriptor(user group.UserName) resource.Descriptor {
	// Usernames satisfy the resource id grammar by construction.
	id, _ := resource.ParseID(user.String())
	adminID, _ := resource.ParseAdministrativeID(user.String())
	return resource.NewDescriptor(id, adminID)
}

// storeNewRequest assembles and persists an open request against the
// group with the standard expiry horizon.
func (s *Service) storeNewRequest(
	ctx context.Context,
	g *group.Group,
	requester group.UserName,
	kind request.Kind,
	descriptor resource.Descriptor,
) (request.Request, error) {
	return s.storeNewTypedRequest(ctx, g, requester, kind, resource.TypeUser, descriptor)
}

func (s *Service) storeNewTypedRequest(
	ctx context.Context,
	g *group.Group,
	requester group.UserName,
	kind request.Kind,
	typ resource.Type,
	descriptor resource.Descriptor,
) (request.Request, error) {
	id, err := request.ParseID(s.newID())
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	now := s.now()
	r, err := request.New(id, g.ID(), requester, kind, typ, descriptor, request.StatusOpen(), request.Times{
		CreatedAt:  now,
		ModifiedAt: now,
		ExpiresAt:  now.Add(constants.RequestExpiry),
	})
	if err != nil {
		return request.Request{}, err
	}
	if err := s.storage.StoreRequest(ctx, r); err != nil {
		return request.Request{}, err
	}
	return r, nil
}
