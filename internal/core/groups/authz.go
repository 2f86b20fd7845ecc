// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"context"
	"errors"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

// # Request Authorization

// Actions a user may take on a request, as exposed alongside request
// payloads.
const (
	ActionCancel = "cancel"
	ActionAccept = "accept"
	ActionDeny   = "deny"
)

// isRequestTarget reports whether the user belongs to the authority
// domain that must act on the request.
//
// A membership REQUEST targets the group's administration and a
// membership INVITE the invited user. For typed resources the sides
// swap with the kind: a REQUEST (group asking for a resource) targets
// the resource's administrators, resolved through the handler registry,
// while an INVITE (resource offered to a group) targets the group's
// administration. A handler answering "no such resource" means not a
// target, never a hard failure: permission cannot be granted over data
// that no longer exists.
func (s *Service) isRequestTarget(
	ctx context.Context,
	r request.Request,
	g *group.Group,
	user group.UserName,
) (bool, error) {
	switch r.Kind() {
	case request.KindRequest:
		if r.ResourceIsUser() {
			return g.IsAdministrator(user), nil
		}
		return s.isResourceAdministrator(ctx, r, user)

	case request.KindInvite:
		if r.ResourceIsUser() {
			return r.Resource().ID.String() == user.String(), nil
		}
		return g.IsAdministrator(user), nil

	default:
		return false, nil
	}
}

func (s *Service) isResourceAdministrator(ctx context.Context, r request.Request, user group.UserName) (bool, error) {
	handler, ok := s.resources.Handler(r.ResourceType())
	if !ok {
		return false, nil
	}
	isAdmin, err := handler.IsAdministrator(ctx, r.Resource().ID, user.String())
	if err != nil {
		if resource.IsNoSuchResource(err) {
			return false, nil
		}
		var illegal *resource.IllegalIDError
		if errors.As(err, &illegal) {
			return false, nil
		}
		return false, apperr.Unavailable("A resource service could not be reached", err)
	}
	return isAdmin, nil
}

// ensureIsRequestTarget converts a failed target check into the uniform
// authorization error.
func (s *Service) ensureIsRequestTarget(
	ctx context.Context,
	r request.Request,
	g *group.Group,
	user group.UserName,
) error {
	isTarget, err := s.isRequestTarget(ctx, r, g, user)
	if err != nil {
		return err
	}
	if !isTarget {
		return apperr.Unauthorized(unauthorizedMessage)
	}
	return nil
}

// UserActions computes what the user may do with a request: the creator
// of an open request may cancel it, a target of an open request may
// accept or deny it, and closed requests admit no action at all.
func UserActions(r request.Request, user group.UserName, isTarget bool) []string {
	if !r.IsOpen() {
		return nil
	}
	var actions []string
	if isTarget {
		actions = append(actions, ActionAccept, ActionDeny)
	}
	if r.Requester() == user {
		actions = append(actions, ActionCancel)
	}
	return actions
}
