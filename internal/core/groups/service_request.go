// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

// RequestWithActions pairs a request with the actions the asking user
// may take on it.
type RequestWithActions struct {
	Request request.Request
	Actions []string
}

// # Request Retrieval

/*
GetRequest returns one request with the caller's permitted actions.

Only the creator and the target domain may view a request.

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - id: request.ID

Returns:
  - RequestWithActions: the request plus permitted actions
  - error: authorization or lookup failures
*/
func (s *Service) GetRequest(ctx context.Context, token string, id request.ID) (RequestWithActions, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return RequestWithActions{}, err
	}
	r, err := s.storage.GetRequest(ctx, id)
	if err != nil {
		return RequestWithActions{}, err
	}
	g, err := s.loadRequestGroup(ctx, r)
	if err != nil {
		return RequestWithActions{}, err
	}

	isTarget, err := s.isRequestTarget(ctx, r, g, user)
	if err != nil {
		return RequestWithActions{}, err
	}
	if r.Requester() != user && !isTarget {
		return RequestWithActions{}, apperr.Unauthorized(unauthorizedMessage)
	}
	return RequestWithActions{Request: r, Actions: UserActions(r, user, isTarget)}, nil
}

/*
ListRequestsForRequester lists the requests created by the token's user.

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - params: request.GetRequestsParams

Returns:
  - []RequestWithActions: at most 100 requests, creator actions attached
  - error: authentication or retrieval failures
*/
func (s *Service) ListRequestsForRequester(ctx context.Context, token string, params request.GetRequestsParams) ([]RequestWithActions, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return nil, err
	}
	loaded, err := s.storage.GetRequestsByRequester(ctx, user, params)
	if err != nil {
		return nil, err
	}
	return withActions(loaded, user, false), nil
}

/*
ListRequestsForTarget lists the requests the token's user must act on:
invites addressed to them directly plus requests touching any resource
they administrate, resolved across every registered handler.

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - params: request.GetRequestsParams

Returns:
  - []RequestWithActions: at most 100 requests, target actions attached
  - error: authentication, handler, or retrieval failures
*/
func (s *Service) ListRequestsForTarget(ctx context.Context, token string, params request.GetRequestsParams) ([]RequestWithActions, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return nil, err
	}

	admined := make(map[resource.Type][]resource.AdministrativeID)
	for _, typ := range s.resources.Types() {
		handler, ok := s.resources.Handler(typ)
		if !ok {
			continue
		}
		ids, err := handler.GetAdministratedResources(ctx, user.String())
		if err != nil {
			return nil, apperr.Unavailable("A resource service could not be reached", err)
		}
		if len(ids) > 0 {
			admined[typ] = ids
		}
	}

	loaded, err := s.storage.GetRequestsByTarget(ctx, user, admined, params)
	if err != nil {
		return nil, err
	}
	return withActions(loaded, user, true), nil
}

/*
ListRequestsForGroup lists the requests targeting a group's
administration. Administrators only.

Parameters:
  - ctx: context.Context
  - token: the caller's bearer token
  - id: group.ID
  - params: request.GetRequestsParams

Returns:
  - []RequestWithActions: at most 100 requests, target actions attached
  - error: authorization or retrieval failures
*/
func (s *Service) ListRequestsForGroup(ctx context.Context, token string, id group.ID, params request.GetRequestsParams) ([]RequestWithActions, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return nil, err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.IsAdministrator(user) {
		return nil, apperr.Unauthorized(unauthorizedMessage)
	}

	loaded, err := s.storage.GetRequestsByGroup(ctx, id, params)
	if err != nil {
		return nil, err
	}
	return withActions(loaded, user, true), nil
}

// # Request Transitions

/*
CancelRequest closes an open request as canceled. Creator only.

Parameters:
  - ctx: context.Context
  - token: the creator's bearer token
  - id: request.ID

Returns:
  - request.Request: the closed request, freshly loaded
  - error: authorization or closed-request failures
*/
func (s *Service) CancelRequest(ctx context.Context, token string, id request.ID) (request.Request, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return request.Request{}, err
	}
	r, err := s.storage.GetRequest(ctx, id)
	if err != nil {
		return request.Request{}, err
	}
	if r.Requester() != user {
		return request.Request{}, apperr.Unauthorized(unauthorizedMessage)
	}
	if err := s.ensureOpen(r); err != nil {
		return request.Request{}, err
	}

	if err := s.storage.CloseRequest(ctx, id, request.StatusCanceled(), s.now()); err != nil {
		return request.Request{}, err
	}
	s.notifier.Cancel(ctx, id)
	s.logger.InfoContext(ctx, "request_canceled",
		slog.String("request_id", id.String()),
		slog.String("actor", user.String()),
	)
	return s.storage.GetRequest(ctx, id)
}

/*
DenyRequest closes an open request as denied, with an optional bounded
reason. Target only.

Parameters:
  - ctx: context.Context
  - token: the target's bearer token
  - id: request.ID
  - reason: optional denial reason, at most 500 characters

Returns:
  - request.Request: the closed request, freshly loaded
  - error: validation, authorization, or closed-request failures
*/
func (s *Service) DenyRequest(ctx context.Context, token string, id request.ID, reason string) (request.Request, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return request.Request{}, err
	}
	r, err := s.storage.GetRequest(ctx, id)
	if err != nil {
		return request.Request{}, err
	}
	g, err := s.loadRequestGroup(ctx, r)
	if err != nil {
		return request.Request{}, err
	}
	if err := s.ensureIsRequestTarget(ctx, r, g, user); err != nil {
		return request.Request{}, err
	}
	if err := s.ensureOpen(r); err != nil {
		return request.Request{}, err
	}
	status, err := request.StatusDenied(user, reason)
	if err != nil {
		return request.Request{}, err
	}

	if err := s.storage.CloseRequest(ctx, id, status, s.now()); err != nil {
		return request.Request{}, err
	}
	s.notifier.Deny(ctx, s.closeTargets(ctx, r, g, user), r)
	s.logger.InfoContext(ctx, "request_denied",
		slog.String("request_id", id.String()),
		slog.String("actor", user.String()),
	)
	return s.storage.GetRequest(ctx, id)
}

/*
AcceptRequest closes an open request as accepted and applies its effect:
membership for user-kind targets, resource attachment otherwise. Target
only.

The mutation happens before the close. If the close then races with
another transition the conditional update fails and the conflict
surfaces, matching the rule that a request transitions exactly once.

Parameters:
  - ctx: context.Context
  - token: the target's bearer token
  - id: request.ID

Returns:
  - request.Request: the closed request, freshly loaded
  - error: authorization, conflict, or closed-request failures
*/
func (s *Service) AcceptRequest(ctx context.Context, token string, id request.ID) (request.Request, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return request.Request{}, err
	}
	r, err := s.storage.GetRequest(ctx, id)
	if err != nil {
		return request.Request{}, err
	}
	g, err := s.loadRequestGroup(ctx, r)
	if err != nil {
		return request.Request{}, err
	}
	if err := s.ensureIsRequestTarget(ctx, r, g, user); err != nil {
		return request.Request{}, err
	}
	if err := s.ensureOpen(r); err != nil {
		return request.Request{}, err
	}

	now := s.now()
	if r.ResourceIsUser() {
		member, err := group.ParseUserName(r.Resource().ID.String())
		if err != nil {
			return request.Request{}, apperr.Internal(err)
		}
		if err := s.storage.AddMember(ctx, r.GroupID(), group.NewGroupUser(member, now), now); err != nil {
			return request.Request{}, err
		}
	} else {
		entry := group.ResourceEntry{Descriptor: r.Resource(), AddedAt: &now}
		if err := s.storage.AddResource(ctx, r.GroupID(), r.ResourceType(), entry, now); err != nil {
			return request.Request{}, err
		}
	}

	if err := s.storage.CloseRequest(ctx, id, request.StatusAccepted(user), now); err != nil {
		return request.Request{}, err
	}
	s.notifier.Accept(ctx, s.closeTargets(ctx, r, g, user), r)
	s.logger.InfoContext(ctx, "request_accepted",
		slog.String("request_id", id.String()),
		slog.String("group_id", r.GroupID().String()),
		slog.String("actor", user.String()),
	)
	return s.storage.GetRequest(ctx, id)
}

// # Background Expiration

// ExpireRequests flips stale open requests to the expired state. It is
// called by the background sweeper in the API entry point.
func (s *Service) ExpireRequests(ctx context.Context) (int, error) {
	expired, err := s.storage.ExpireRequests(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.InfoContext(ctx, "requests_expired", slog.Int("count", expired))
	}
	return expired, nil
}

// # Internals

// ensureOpen rejects transitions on requests that are terminal or past
// their horizon. The sweeper may lag, so the horizon is checked here.
func (s *Service) ensureOpen(r request.Request) error {
	if !r.IsOpen() {
		return apperr.Conflict("The request is closed")
	}
	if s.now().After(r.ExpiresAt()) {
		return apperr.Conflict("The request has expired")
	}
	return nil
}

// loadRequestGroup loads the group a stored request points at. A miss
// here is a broken precondition, not a user error.
func (s *Service) loadRequestGroup(ctx context.Context, r request.Request) (*group.Group, error) {
	g, err := s.storage.GetGroup(ctx, r.GroupID())
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.Internal(fmt.Errorf(
				"group %s referenced by request %s does not exist", r.GroupID(), r.ID()))
		}
		return nil, err
	}
	return g, nil
}

// closeTargets computes who to tell about an accept or deny: the group
// administration, the creator, and the affected party, minus the actor.
// Resource administrators are resolved best effort; a handler failure
// costs only their notification.
func (s *Service) closeTargets(ctx context.Context, r request.Request, g *group.Group, actor group.UserName) []group.UserName {
	interested := [][]group.UserName{
		g.AdministratorsAndOwner(),
		{r.Requester()},
	}
	if r.ResourceIsUser() {
		if affected, err := group.ParseUserName(r.Resource().ID.String()); err == nil {
			interested = append(interested, []group.UserName{affected})
		}
	} else if handler, ok := s.resources.Handler(r.ResourceType()); ok {
		admins, err := handler.GetAdministrators(ctx, r.Resource().ID)
		if err != nil {
			s.logger.WarnContext(ctx, "notification_target_resolution_failed",
				slog.String("request_id", r.ID().String()),
				slog.Any("error", err),
			)
		} else {
			var names []group.UserName
			for _, admin := range admins {
				if name, parseErr := group.ParseUserName(admin); parseErr == nil {
					names = append(names, name)
				}
			}
			interested = append(interested, names)
		}
	}
	return notifyTargets(actor, interested...)
}

func withActions(loaded []request.Request, user group.UserName, isTarget bool) []RequestWithActions {
	out := make([]RequestWithActions, 0, len(loaded))
	for _, r := range loaded {
		out = append(out, RequestWithActions{Request: r, Actions: UserActions(r, user, isTarget)})
	}
	return out
}

// RunExpirySweeper drives periodic expiration until the context ends.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.ExpireRequests(ctx); err != nil {
				s.logger.ErrorContext(ctx, "request_expiry_sweep_failed", slog.Any("error", err))
			}
		case <-ctx.Done():
			return
		}
	}
}
