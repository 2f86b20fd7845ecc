// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"context"
	"errors"
	"log/slog"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

// # Resource Attachment

/*
AddResource attaches a resource to a group, or opens a request for the
missing side's approval.

The outcome depends on which sides the caller administrates:

  - group and resource: the attachment happens immediately, no request
  - group only: an approval request targeting the resource's
    administrators is opened
  - resource only: an invite targeting the group's administrators is
    opened
  - neither: the call is rejected

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - id: group.ID
  - typ: resource.Type
  - resID: resource.ID

Returns:
  - *request.Request: the opened request, or nil on immediate attachment
  - error: validation, authorization, or conflict failures
*/
func (s *Service) AddResource(ctx context.Context, token string, id group.ID, typ resource.Type, resID resource.ID) (*request.Request, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return nil, err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return nil, err
	}
	handler, ok := s.resources.Handler(typ)
	if !ok {
		return nil, apperr.NotFound("Resource type " + typ.String())
	}

	desc, err := handler.GetDescriptor(ctx, resID)
	if err != nil {
		return nil, mapHandlerError(err)
	}
	if g.ContainsResource(typ, desc) {
		return nil, apperr.Conflict("Resource " + typ.String() + "/" + resID.String() +
			" is already in group " + id.String())
	}

	isGroupAdmin := g.IsAdministrator(user)
	isResourceAdmin, err := handler.IsAdministrator(ctx, resID, user.String())
	if err != nil {
		return nil, mapHandlerError(err)
	}

	switch {
	case isGroupAdmin && isResourceAdmin:
		now := s.now()
		entry := group.ResourceEntry{Descriptor: desc, AddedAt: &now}
		if err := s.storage.AddResource(ctx, id, typ, entry, now); err != nil {
			return nil, err
		}
		s.notifier.AddResource(ctx, id, s.resourceNotifyTargets(ctx, g, handler, resID, user), typ, resID)
		s.logger.InfoContext(ctx, "resource_added",
			slog.String("group_id", id.String()),
			slog.String("resource_type", typ.String()),
			slog.String("resource_id", resID.String()),
			slog.String("actor", user.String()),
		)
		return nil, nil
	case isGroupAdmin:
		r, err := s.storeNewTypedRequest(ctx, g, user, request.KindRequest, typ, desc)
		if err != nil {
			return nil, err
		}
		s.notifier.Notify(ctx, s.handlerAdminTargets(ctx, handler, resID, user), g, r)
		s.logger.InfoContext(ctx, "resource_requested",
			slog.String("group_id", id.String()),
			slog.String("resource_type", typ.String()),
			slog.String("resource_id", resID.String()),
			slog.String("request_id", r.ID().String()),
		)
		return &r, nil
	case isResourceAdmin:
		r, err := s.storeNewTypedRequest(ctx, g, user, request.KindInvite, typ, desc)
		if err != nil {
			return nil, err
		}
		s.notifier.Notify(ctx, notifyTargets(user, g.AdministratorsAndOwner()), g, r)
		s.logger.InfoContext(ctx, "resource_offered",
			slog.String("group_id", id.String()),
			slog.String("resource_type", typ.String()),
			slog.String("resource_id", resID.String()),
			slog.String("request_id", r.ID().String()),
		)
		return &r, nil
	default:
		return nil, apperr.Unauthorized(unauthorizedMessage)
	}
}

/*
RemoveResource detaches a resource from a group. Either a group
administrator or an administrator of the resource itself may remove it.

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - id: group.ID
  - typ: resource.Type
  - resID: resource.ID

Returns:
  - error: authorization or lookup failures
*/
func (s *Service) RemoveResource(ctx context.Context, token string, id group.ID, typ resource.Type, resID resource.ID) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}
	handler, ok := s.resources.Handler(typ)
	if !ok {
		return apperr.NotFound("Resource type " + typ.String())
	}

	if !g.IsAdministrator(user) {
		isResourceAdmin, err := handler.IsAdministrator(ctx, resID, user.String())
		if err != nil {
			return mapHandlerError(err)
		}
		if !isResourceAdmin {
			return apperr.Unauthorized(unauthorizedMessage)
		}
	}
	if !g.ContainsResourceID(typ, resID) {
		return apperr.NotFound("Resource " + typ.String() + "/" + resID.String())
	}

	if err := s.storage.RemoveResource(ctx, id, typ, resID, s.now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "resource_removed",
		slog.String("group_id", id.String()),
		slog.String("resource_type", typ.String()),
		slog.String("resource_id", resID.String()),
		slog.String("actor", user.String()),
	)
	return nil
}

/*
SetReadPermission grants the caller read access to the resource named by
an open approval request, so they can evaluate what they are approving.
Group administrators only, and only for non-user resources.

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - id: request.ID

Returns:
  - error: authorization or handler failures
*/
func (s *Service) SetReadPermission(ctx context.Context, token string, id request.ID) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	r, err := s.storage.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	g, err := s.loadRequestGroup(ctx, r)
	if err != nil {
		return err
	}
	if !g.IsAdministrator(user) {
		return apperr.Unauthorized(unauthorizedMessage)
	}
	if !r.IsOpen() {
		return apperr.Conflict("The request is closed")
	}
	if r.Kind() != request.KindRequest || r.ResourceIsUser() {
		return apperr.ValidationError("Only non-user approval requests can grant read permission")
	}

	handler, ok := s.resources.Handler(r.ResourceType())
	if !ok {
		return apperr.NotFound("Resource type " + r.ResourceType().String())
	}
	if err := handler.SetReadPermission(ctx, r.Resource().ID, user.String()); err != nil {
		return mapHandlerError(err)
	}
	s.logger.InfoContext(ctx, "read_permission_granted",
		slog.String("request_id", id.String()),
		slog.String("resource_type", r.ResourceType().String()),
		slog.String("resource_id", r.Resource().ID.String()),
		slog.String("actor", user.String()),
	)
	return nil
}

// # Internals

// mapHandlerError translates handler failures to the service's error
// vocabulary.
func mapHandlerError(err error) error {
	var illegal *resource.IllegalIDError
	switch {
	case resource.IsNoSuchResource(err):
		return apperr.NotFound("Resource")
	case errors.As(err, &illegal):
		return apperr.ValidationError(illegal.Error())
	default:
		return apperr.Unavailable("The resource service could not be reached", err)
	}
}

// handlerAdminTargets resolves a resource's administrators for
// notification, best effort. A failure costs only the notification.
func (s *Service) handlerAdminTargets(ctx context.Context, handler resource.Handler, resID resource.ID, actor group.UserName) []group.UserName {
	admins, err := handler.GetAdministrators(ctx, resID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification_target_resolution_failed",
			slog.String("resource_id", resID.String()),
			slog.Any("error", err),
		)
		return nil
	}
	var names []group.UserName
	for _, admin := range admins {
		if name, parseErr := group.ParseUserName(admin); parseErr == nil {
			names = append(names, name)
		}
	}
	return notifyTargets(actor, names)
}

// resourceNotifyTargets covers both administrations for an immediate
// attachment.
func (s *Service) resourceNotifyTargets(ctx context.Context, g *group.Group, handler resource.Handler, resID resource.ID, actor group.UserName) []group.UserName {
	resourceAdmins := s.handlerAdminTargets(ctx, handler, resID, actor)
	return notifyTargets(actor, g.AdministratorsAndOwner(), resourceAdmins)
}
