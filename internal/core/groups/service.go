// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package groups is the orchestrator composing the group aggregate, the
approval workflow, identity, resource handlers, field validation, and
notifications into the service's use cases.

The package contains no algorithmic machinery of its own: it sequences
collaborator calls, translates their errors, and guards every mutation
behind the authorization resolver. All state lives behind [Storage];
every value passing through here is immutable.
*/
package groups

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/notify"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/constants"
	"github.com/collabry/groups/pkg/slug"
	"github.com/collabry/groups/pkg/uuid"
)

// unauthorizedMessage is the single message for every authorization
// failure. It deliberately does not distinguish "not a member" from
// "does not exist" so callers cannot probe membership or existence.
const unauthorizedMessage = "User is not authorized to perform this action"

// # Service

// Service orchestrates the groups use cases.
type Service struct {
	storage     Storage
	users       UserHandler
	resources   *resource.Registry
	groupFields *field.Validators
	userFields  *field.Validators
	notifier    notify.Notifications
	logger      *slog.Logger
	now         func() time.Time
	newID       uuid.Generator
}

// Deps carries the service collaborators. Clock and IDGenerator are
// optional and default to the real clock and random UUIDs.
type Deps struct {
	Storage     Storage
	Users       UserHandler
	Resources   *resource.Registry
	GroupFields *field.Validators
	UserFields  *field.Validators
	Notifier    notify.Notifications
	Logger      *slog.Logger
	Clock       func() time.Time
	IDGenerator uuid.Generator
}

// NewService constructs the orchestrator [Service].
func NewService(deps Deps) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	gen := deps.IDGenerator
	if gen == nil {
		gen = uuid.Default()
	}
	return &Service{
		storage:     deps.Storage,
		users:       deps.Users,
		resources:   deps.Resources,
		groupFields: deps.GroupFields,
		userFields:  deps.UserFields,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		now:         clock,
		newID:       gen,
	}
}

// fieldResolver adapts the two validator registries to the view
// engine's visibility contract.
type fieldResolver struct {
	groupFields *field.Validators
	userFields  *field.Validators
}

func (r fieldResolver) IsPublic(f field.CustomField) bool          { return r.groupFields.IsPublic(f) }
func (r fieldResolver) IsMinimalView(f field.CustomField) bool     { return r.groupFields.IsMinimalView(f) }
func (r fieldResolver) IsUserPublic(f field.CustomField) bool      { return r.userFields.IsPublic(f) }
func (r fieldResolver) IsUserMinimalView(f field.CustomField) bool { return r.userFields.IsMinimalView(f) }

func (s *Service) fields() group.FieldResolver {
	return fieldResolver{groupFields: s.groupFields, userFields: s.userFields}
}

// # Token Helpers

// getUser resolves the actor from a required token.
func (s *Service) getUser(ctx context.Context, token string) (group.UserName, error) {
	if token == "" {
		return group.UserName{}, apperr.Unauthenticated("A token is required for this operation")
	}
	return s.users.GetUser(ctx, token)
}

// optUser resolves the actor from an optional token. An empty token is
// an anonymous caller, not an error.
func (s *Service) optUser(ctx context.Context, token string) (*group.UserName, error) {
	if token == "" {
		return nil, nil
	}
	user, err := s.users.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// # Group CRUD

// CreateGroupParams carries the client-supplied group properties.
type CreateGroupParams struct {
	ID                group.ID
	Name              group.Name
	IsPrivate         bool
	PrivateMemberList bool
	Fields            map[field.CustomField]string
}

/*
CreateGroup creates a new group owned by the token's user.

Parameters:
  - ctx: context.Context
  - token: the creator's bearer token
  - params: CreateGroupParams

Returns:
  - group.View: the owner's standard view of the new group
  - error: validation, authentication, or id-conflict failures
*/
func (s *Service) CreateGroup(ctx context.Context, token string, params CreateGroupParams) (group.View, error) {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return group.View{}, err
	}
	for f, value := range params.Fields {
		if err := s.groupFields.Validate(f, value); err != nil {
			return group.View{}, err
		}
	}

	now := s.now()
	builder := group.NewBuilder(params.ID, params.Name,
		group.NewGroupUser(user, now),
		group.Times{CreatedAt: now, ModifiedAt: now}).
		WithIsPrivate(params.IsPrivate).
		WithPrivateMemberList(params.PrivateMemberList)
	for f, value := range params.Fields {
		builder.WithCustomField(f, value)
	}
	g, err := builder.Build()
	if err != nil {
		return group.View{}, err
	}

	if err := s.storage.CreateGroup(ctx, g); err != nil {
		return group.View{}, err
	}

	s.logger.InfoContext(ctx, "group_created",
		slog.String("group_id", g.ID().String()),
		slog.String("owner", user.String()),
	)
	return group.ViewGroup(g, &user, true, s.fields(), nil), nil
}

/*
UpdateGroup applies a partial update to a group's properties.

Only administrators may update. A no-op update returns without touching
storage or the modification time.

Parameters:
  - ctx: context.Context
  - token: the actor's bearer token
  - id: group.ID
  - update: GroupUpdate

Returns:
  - error: validation, authorization, or persistence failures
*/
func (s *Service) UpdateGroup(ctx context.Context, token string, id group.ID, update GroupUpdate) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}
	if !g.IsAdministrator(user) {
		return apperr.Unauthorized(unauthorizedMessage)
	}
	for f, value := range update.Fields {
		// An empty value means removal and needs no validation.
		if value == "" {
			continue
		}
		if err := s.groupFields.Validate(f, value); err != nil {
			return err
		}
	}
	if !update.HasUpdate() {
		return nil
	}

	if err := s.storage.UpdateGroup(ctx, id, update, s.now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "group_updated",
		slog.String("group_id", id.String()),
		slog.String("actor", user.String()),
	)
	return nil
}

/*
GetGroup returns a standard view of one group for the token's user.

An empty token is an anonymous request. Private groups answer anonymous
and non-member callers with the private view rather than an error, so
existence leaks nothing beyond the id the caller already had.

Parameters:
  - ctx: context.Context
  - token: optional bearer token
  - id: group.ID

Returns:
  - group.View: role-dependent projection
  - error: authentication or lookup failures
*/
func (s *Service) GetGroup(ctx context.Context, token string, id group.ID) (group.View, error) {
	user, err := s.optUser(ctx, token)
	if err != nil {
		return group.View{}, err
	}
	g, err := s.storage.GetGroup(ctx, id)
	if err != nil {
		return group.View{}, err
	}

	resourceInfo, err := s.resourceInfoForView(ctx, g, user, token != "")
	if err != nil {
		return group.View{}, err
	}

	return group.ViewGroup(g, user, true, s.fields(), resourceInfo), nil
}

// GroupExists reports whether a group id is taken. Open to anonymous
// callers: id availability is needed at creation time and existence by
// itself discloses no group content.
func (s *Service) GroupExists(ctx context.Context, id group.ID) (bool, error) {
	return s.storage.GroupExists(ctx, id)
}

// suggestionAttempts bounds how many numbered variants the id
// suggestion tries before giving up.
const suggestionAttempts = 20

/*
SuggestGroupID derives an available group id from a display name.

The name is slugified into the group id grammar; when the slug is taken,
numbered variants ("lab", "lab-2", "lab-3") are probed in order. Open to
anonymous callers for the same reason as [Service.GroupExists].

Parameters:
  - ctx: context.Context
  - name: the display name to derive from

Returns:
  - string: an id that was available at probe time
  - error: validation failure when nothing usable can be derived
*/
func (s *Service) SuggestGroupID(ctx context.Context, name string) (string, error) {
	base := slug.GroupID(name, constants.MaxGroupIDLength)
	if base == "" {
		return "", apperr.ValidationError("No group id can be derived from the given name",
			apperr.FieldError{Field: "name", Message: "must contain at least one letter"})
	}

	candidate := base
	for attempt := 2; attempt <= suggestionAttempts+1; attempt++ {
		id, err := group.ParseID(candidate)
		if err != nil {
			return "", apperr.Internal(err)
		}
		taken, err := s.storage.GroupExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix := "-" + strconv.Itoa(attempt)
		trimmed := base
		if len(trimmed)+len(suffix) > constants.MaxGroupIDLength {
			trimmed = strings.TrimRight(trimmed[:constants.MaxGroupIDLength-len(suffix)], "-")
		}
		candidate = trimmed + suffix
	}
	return "", apperr.Conflict("No available group id could be derived from the given name")
}

/*
ListGroups returns minimal views of the groups visible to the caller.

Parameters:
  - ctx: context.Context
  - token: optional bearer token, required when params carry a role filter
  - params: GetGroupsParams

Returns:
  - []group.View: at most 100 minimal views
  - error: authentication or retrieval failures
*/
func (s *Service) ListGroups(ctx context.Context, token string, params GetGroupsParams) ([]group.View, error) {
	user, err := s.optUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if params.Role != group.RoleNone && user == nil {
		return nil, apperr.Unauthenticated("A token is required to filter groups by role")
	}

	loaded, err := s.storage.GetGroups(ctx, params, user)
	if err != nil {
		return nil, err
	}

	views := make([]group.View, 0, len(loaded))
	for _, g := range loaded {
		views = append(views, group.ViewGroup(g, user, false, s.fields(), nil))
	}
	return views, nil
}

/*
VisitGroup stamps the member's last visit to the group.

Parameters:
  - ctx: context.Context
  - token: the member's bearer token
  - id: group.ID

Returns:
  - error: authorization or persistence failures
*/
func (s *Service) VisitGroup(ctx context.Context, token string, id group.ID) error {
	user, err := s.getUser(ctx, token)
	if err != nil {
		return err
	}
	g, err := s.loadGroupAuthorized(ctx, id)
	if err != nil {
		return err
	}
	if !g.IsMember(user) {
		return apperr.Unauthorized(unauthorizedMessage)
	}
	return s.storage.UpdateLastVisit(ctx, id, user, s.now())
}

// # Shared Internals

// loadGroupAuthorized loads a group for a mutating operation. A missing
// group surfaces the uniform unauthorized signal instead of not-found,
// so mutation endpoints never confirm non-existence.
func (s *Service) loadGroupAuthorized(ctx context.Context, id group.ID) (*group.Group, error) {
	g, err := s.storage.GetGroup(ctx, id)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, apperr.Unauthorized(unauthorizedMessage)
		}
		return nil, err
	}
	return g, nil
}

// resourceInfoForView fetches per-type resource information for a
// standard view, at the access level the viewer's role grants. Resources
// the handlers report missing are excluded and scheduled for
// best-effort removal.
func (s *Service) resourceInfoForView(
	ctx context.Context,
	g *group.Group,
	user *group.UserName,
	hasToken bool,
) (map[resource.Type]resource.InformationSet, error) {
	access := resource.AccessAdministrated
	switch {
	case user != nil && g.IsMember(*user):
		access = resource.AccessAll
	case hasToken && !g.IsPrivate():
		access = resource.AccessAdministratedAndPublic
	}
	username := ""
	if user != nil {
		username = user.String()
	}

	info := make(map[resource.Type]resource.InformationSet)
	for _, typ := range g.ResourceTypes() {
		handler, ok := s.resources.Handler(typ)
		if !ok {
			// A type can outlive its handler configuration. The view
			// still shows the count; the detail is unavailable.
			s.logger.WarnContext(ctx, "resource_handler_missing",
				slog.String("resource_type", typ.String()),
				slog.String("group_id", g.ID().String()),
			)
			continue
		}
		entries, err := g.Resources(typ)
		if err != nil {
			continue
		}
		ids := make([]resource.ID, len(entries))
		for i, entry := range entries {
			ids[i] = entry.Descriptor.ID
		}

		set, err := handler.GetResourceInformation(ctx, username, ids, access)
		if err != nil {
			return nil, apperr.Unavailable("A resource service could not be reached", err)
		}
		if missing := set.Nonexistent(); len(missing) > 0 {
			s.scheduleResourceCleanup(g.ID(), typ, missing)
		}
		info[typ] = set
	}
	return info, nil
}

// scheduleResourceCleanup removes resources a handler reported missing.
// Best effort: every failure, including "already removed", is swallowed
// after a log line.
func (s *Service) scheduleResourceCleanup(id group.ID, typ resource.Type, ids []resource.ID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.GlobalRequestTimeout)
		defer cancel()
		for _, rid := range ids {
			if err := s.storage.RemoveResource(ctx, id, typ, rid, s.now()); err != nil {
				s.logger.WarnContext(ctx, "resource_cleanup_failed",
					slog.String("group_id", id.String()),
					slog.String("resource_type", typ.String()),
					slog.String("resource_id", rid.String()),
					slog.Any("error", err),
				)
				continue
			}
			s.logger.InfoContext(ctx, "resource_cleanup_removed",
				slog.String("group_id", id.String()),
				slog.String("resource_type", typ.String()),
				slog.String("resource_id", rid.String()),
			)
		}
	}()
}

// notifyTargets drops the actor from a target set and deduplicates it.
func notifyTargets(actor group.UserName, targets ...[]group.UserName) []group.UserName {
	seen := make(map[group.UserName]struct{})
	var out []group.UserName
	for _, list := range targets {
		for _, t := range list {
			if t == actor {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
