// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/groups"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// # Fakes

// fakeStorage is an in-memory Storage honoring the conditional-write
// conflicts the orchestrator depends on.
type fakeStorage struct {
	groups   map[string]*group.Group
	requests map[string]request.Request

	updates    []groups.GroupUpdate
	lastVisits map[string]time.Time
	userFields []map[field.CustomField]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		groups:     make(map[string]*group.Group),
		requests:   make(map[string]request.Request),
		lastVisits: make(map[string]time.Time),
	}
}

func (s *fakeStorage) CreateGroup(_ context.Context, g *group.Group) error {
	if _, ok := s.groups[g.ID().String()]; ok {
		return apperr.Conflict("Group " + g.ID().String() + " already exists")
	}
	s.groups[g.ID().String()] = g
	return nil
}

func (s *fakeStorage) GetGroup(_ context.Context, id group.ID) (*group.Group, error) {
	g, ok := s.groups[id.String()]
	if !ok {
		return nil, apperr.NotFound("Group " + id.String())
	}
	return g, nil
}

func (s *fakeStorage) GroupExists(_ context.Context, id group.ID) (bool, error) {
	_, ok := s.groups[id.String()]
	return ok, nil
}

func (s *fakeStorage) GetGroups(_ context.Context, _ groups.GetGroupsParams, user *group.UserName) ([]*group.Group, error) {
	var out []*group.Group
	for _, g := range s.groups {
		if g.IsPrivate() && (user == nil || !g.IsMember(*user)) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (s *fakeStorage) UpdateGroup(_ context.Context, id group.ID, update groups.GroupUpdate, _ time.Time) error {
	if _, ok := s.groups[id.String()]; !ok {
		return apperr.NotFound("Group " + id.String())
	}
	s.updates = append(s.updates, update)
	return nil
}

func (s *fakeStorage) AddMember(_ context.Context, id group.ID, user group.GroupUser, modified time.Time) error {
	g, ok := s.groups[id.String()]
	if !ok {
		return apperr.NotFound("Group " + id.String())
	}
	if g.IsMember(user.Name()) {
		return apperr.Conflict("User " + user.Name().String() + " is already a member of group " + id.String())
	}
	rebuilt, err := rebuildGroup(g, modified, func(b *group.Builder) { b.WithMember(user) })
	if err != nil {
		return err
	}
	s.groups[id.String()] = rebuilt
	return nil
}

func (s *fakeStorage) RemoveMember(_ context.Context, id group.ID, user group.UserName, _ time.Time) error {
	g, ok := s.groups[id.String()]
	if !ok || g.Role(user) != group.RoleMember {
		return apperr.NotFound("Member " + user.String())
	}
	rebuilt, err := rebuildGroup(g, g.ModifiedAt(), nil, user)
	if err != nil {
		return err
	}
	s.groups[id.String()] = rebuilt
	return nil
}

func (s *fakeStorage) AddAdmin(_ context.Context, id group.ID, user group.UserName, modified time.Time) error {
	g, ok := s.groups[id.String()]
	if !ok {
		return apperr.NotFound("Group " + id.String())
	}
	record, isMember := g.Member(user)
	switch {
	case g.IsAdministrator(user):
		return apperr.Conflict("User " + user.String() + " is already an administrator")
	case !isMember:
		return apperr.NotFound("Member " + user.String())
	}
	rebuilt, err := rebuildGroup(g, modified, func(b *group.Builder) { b.WithAdministrator(record) }, user)
	if err != nil {
		return err
	}
	s.groups[id.String()] = rebuilt
	return nil
}

func (s *fakeStorage) DemoteAdmin(_ context.Context, id group.ID, user group.UserName, modified time.Time) error {
	g, ok := s.groups[id.String()]
	if !ok || g.Role(user) != group.RoleAdmin {
		return apperr.NotFound("Administrator " + user.String())
	}
	record, _ := g.Member(user)
	rebuilt, err := rebuildGroup(g, modified, func(b *group.Builder) { b.WithMember(record) }, user)
	if err != nil {
		return err
	}
	s.groups[id.String()] = rebuilt
	return nil
}

func (s *fakeStorage) UpdateUser(_ context.Context, _ group.ID, _ group.UserName, fields map[field.CustomField]string, _ time.Time) error {
	s.userFields = append(s.userFields, fields)
	return nil
}

func (s *fakeStorage) UpdateLastVisit(_ context.Context, id group.ID, user group.UserName, visited time.Time) error {
	s.lastVisits[id.String()+"/"+user.String()] = visited
	return nil
}

func (s *fakeStorage) AddResource(_ context.Context, id group.ID, typ resource.Type, entry group.ResourceEntry, modified time.Time) error {
	g, ok := s.groups[id.String()]
	if !ok {
		return apperr.NotFound("Group " + id.String())
	}
	if g.ContainsResource(typ, entry.Descriptor) {
		return apperr.Conflict("Resource is already in group " + id.String())
	}
	rebuilt, err := rebuildGroup(g, modified, func(b *group.Builder) { b.WithResource(typ, entry) })
	if err != nil {
		return err
	}
	s.groups[id.String()] = rebuilt
	return nil
}

func (s *fakeStorage) RemoveResource(_ context.Context, id group.ID, typ resource.Type, rid resource.ID, _ time.Time) error {
	g, ok := s.groups[id.String()]
	if !ok {
		return apperr.NotFound("Group " + id.String())
	}
	trimmed, err := g.RemoveResources(typ, []resource.ID{rid})
	if err != nil {
		return err
	}
	s.groups[id.String()] = trimmed
	return nil
}

func (s *fakeStorage) StoreRequest(_ context.Context, r request.Request) error {
	for _, existing := range s.requests {
		if existing.IsOpen() &&
			existing.GroupID() == r.GroupID() &&
			existing.Kind() == r.Kind() &&
			existing.ResourceType() == r.ResourceType() &&
			existing.Resource().ID == r.Resource().ID {
			return apperr.Conflict("An equivalent open request already exists")
		}
	}
	s.requests[r.ID().String()] = r
	return nil
}

func (s *fakeStorage) GetRequest(_ context.Context, id request.ID) (request.Request, error) {
	r, ok := s.requests[id.String()]
	if !ok {
		return request.Request{}, apperr.NotFound("Request " + id.String())
	}
	return r, nil
}

func (s *fakeStorage) GetRequestsByRequester(_ context.Context, user group.UserName, params request.GetRequestsParams) ([]request.Request, error) {
	return s.filter(params, func(r request.Request) bool {
		return r.Requester() == user
	}), nil
}

func (s *fakeStorage) GetRequestsByTarget(_ context.Context, user group.UserName, admined map[resource.Type][]resource.AdministrativeID, params request.GetRequestsParams) ([]request.Request, error) {
	return s.filter(params, func(r request.Request) bool {
		if r.Kind() == request.KindInvite && r.ResourceIsUser() {
			return r.Resource().ID.String() == user.String()
		}
		if r.Kind() == request.KindRequest && !r.ResourceIsUser() {
			for _, adminID := range admined[r.ResourceType()] {
				if adminID == r.Resource().AdministrativeID {
					return true
				}
			}
		}
		return false
	}), nil
}

func (s *fakeStorage) GetRequestsByGroup(_ context.Context, id group.ID, params request.GetRequestsParams) ([]request.Request, error) {
	return s.filter(params, func(r request.Request) bool {
		if r.GroupID() != id {
			return false
		}
		if r.ResourceIsUser() {
			return r.Kind() == request.KindRequest
		}
		return r.Kind() == request.KindInvite
	}), nil
}

func (s *fakeStorage) CloseRequest(_ context.Context, id request.ID, status request.Status, modified time.Time) error {
	r, ok := s.requests[id.String()]
	if !ok {
		return apperr.NotFound("Request " + id.String())
	}
	if !r.IsOpen() {
		return apperr.Conflict("The request is closed")
	}
	closed, err := request.New(r.ID(), r.GroupID(), r.Requester(), r.Kind(),
		r.ResourceType(), r.Resource(), status, request.Times{
			CreatedAt:  r.CreatedAt(),
			ModifiedAt: modified,
			ExpiresAt:  r.ExpiresAt(),
		})
	if err != nil {
		return err
	}
	s.requests[id.String()] = closed
	return nil
}

func (s *fakeStorage) ExpireRequests(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for id, r := range s.requests {
		if r.IsOpen() && now.After(r.ExpiresAt()) {
			rid, err := request.ParseID(id)
			if err != nil {
				return count, err
			}
			if err := s.CloseRequest(ctx, rid, request.StatusExpired(), now); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *fakeStorage) filter(params request.GetRequestsParams, keep func(request.Request) bool) []request.Request {
	var out []request.Request
	for _, r := range s.requests {
		if !params.IncludeClosed && !r.IsOpen() {
			continue
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out
}

// rebuildGroup reassembles a group with an extra builder step and an
// optional set of users to drop from their current role.
func rebuildGroup(g *group.Group, modified time.Time, step func(*group.Builder), drop ...group.UserName) (*group.Group, error) {
	dropped := make(map[group.UserName]struct{}, len(drop))
	for _, user := range drop {
		dropped[user] = struct{}{}
	}
	b := group.NewBuilder(g.ID(), g.Name(), g.Owner(), group.Times{
		CreatedAt:  g.CreatedAt(),
		ModifiedAt: modified,
	}).
		WithIsPrivate(g.IsPrivate()).
		WithPrivateMemberList(g.IsPrivateMemberList())
	for _, admin := range g.Administrators() {
		if _, ok := dropped[admin.Name()]; !ok {
			b.WithAdministrator(admin)
		}
	}
	for _, member := range g.Members() {
		if _, ok := dropped[member.Name()]; !ok {
			b.WithMember(member)
		}
	}
	for _, typ := range g.ResourceTypes() {
		entries, err := g.Resources(typ)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			b.WithResource(typ, entry)
		}
	}
	for f, value := range g.Fields() {
		b.WithCustomField(f, value)
	}
	if step != nil {
		step(b)
	}
	return b.Build()
}

// fakeUsers resolves tokens of the form "tok-<name>" and validates
// usernames against a fixed set.
type fakeUsers struct {
	tokens map[string]string
	valid  map[string]bool
}

func (u *fakeUsers) GetUser(_ context.Context, token string) (group.UserName, error) {
	name, ok := u.tokens[token]
	if !ok {
		return group.UserName{}, apperr.Unauthenticated("Invalid token")
	}
	return group.ParseUserName(name)
}

func (u *fakeUsers) IsValidUser(_ context.Context, name group.UserName) (bool, error) {
	return u.valid[name.String()], nil
}

// fakeNotifier records every outbound event.
type fakeNotifier struct {
	notified []notifyCall
	canceled []string
	denied   []notifyCall
	accepted []notifyCall
	added    []notifyCall
}

type notifyCall struct {
	requestID string
	targets   []string
}

func targetNames(targets []group.UserName) []string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

func (n *fakeNotifier) Notify(_ context.Context, targets []group.UserName, _ *group.Group, r request.Request) {
	n.notified = append(n.notified, notifyCall{requestID: r.ID().String(), targets: targetNames(targets)})
}

func (n *fakeNotifier) Cancel(_ context.Context, id request.ID) {
	n.canceled = append(n.canceled, id.String())
}

func (n *fakeNotifier) Deny(_ context.Context, targets []group.UserName, r request.Request) {
	n.denied = append(n.denied, notifyCall{requestID: r.ID().String(), targets: targetNames(targets)})
}

func (n *fakeNotifier) Accept(_ context.Context, targets []group.UserName, r request.Request) {
	n.accepted = append(n.accepted, notifyCall{requestID: r.ID().String(), targets: targetNames(targets)})
}

func (n *fakeNotifier) AddResource(_ context.Context, groupID group.ID, targets []group.UserName, _ resource.Type, id resource.ID) {
	n.added = append(n.added, notifyCall{requestID: groupID.String() + "/" + id.String(), targets: targetNames(targets)})
}

// fakeHandler serves one resource type from fixed administration maps.
type fakeHandler struct {
	admins       map[string][]string
	administered map[string][]string
	missing      map[string]bool
	permissions  []string
}

func (h *fakeHandler) descriptor(id resource.ID) (resource.Descriptor, error) {
	adminID, err := resource.ParseAdministrativeID(id.String())
	if err != nil {
		return resource.Descriptor{}, err
	}
	return resource.NewDescriptor(id, adminID), nil
}

func (h *fakeHandler) GetDescriptor(_ context.Context, id resource.ID) (resource.Descriptor, error) {
	if h.missing[id.String()] {
		return resource.Descriptor{}, resource.ErrNoSuchResource
	}
	return h.descriptor(id)
}

func (h *fakeHandler) IsAdministrator(_ context.Context, id resource.ID, user string) (bool, error) {
	for _, admin := range h.admins[id.String()] {
		if admin == user {
			return true, nil
		}
	}
	return false, nil
}

func (h *fakeHandler) IsPublic(context.Context, resource.ID) (bool, error) { return false, nil }

func (h *fakeHandler) GetAdministrators(_ context.Context, id resource.ID) ([]string, error) {
	return h.admins[id.String()], nil
}

func (h *fakeHandler) GetAdministratedResources(_ context.Context, user string) ([]resource.AdministrativeID, error) {
	var out []resource.AdministrativeID
	for _, raw := range h.administered[user] {
		adminID, err := resource.ParseAdministrativeID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, adminID)
	}
	return out, nil
}

func (h *fakeHandler) GetResourceInformation(_ context.Context, _ string, ids []resource.ID, _ resource.AccessLevel) (resource.InformationSet, error) {
	builder := resource.NewInformationSetBuilder()
	for _, id := range ids {
		if h.missing[id.String()] {
			builder.WithNonexistent(id)
			continue
		}
		builder.WithResource(id)
	}
	return builder.Build(), nil
}

func (h *fakeHandler) SetReadPermission(_ context.Context, id resource.ID, user string) error {
	h.permissions = append(h.permissions, user+"@"+id.String())
	return nil
}

// # Fixture

type fixture struct {
	service  *groups.Service
	storage  *fakeStorage
	notifier *fakeNotifier
	handler  *fakeHandler
	now      time.Time
}

func acceptAll(field.CustomField, string) error { return nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	groupFields, err := field.NewValidators(map[string]field.Configuration{
		"homepage": {IsPublic: true, IsMinimalView: true, Validator: acceptAll},
		"category": {Validator: acceptAll},
	})
	require.NoError(t, err)
	userFields, err := field.NewValidators(map[string]field.Configuration{
		"title":    {IsUserSettable: true, Validator: acceptAll},
		"internal": {Validator: acceptAll},
	})
	require.NoError(t, err)

	handler := &fakeHandler{
		admins:       make(map[string][]string),
		administered: make(map[string][]string),
		missing:      make(map[string]bool),
	}
	workspace, err := resource.ParseType("workspace")
	require.NoError(t, err)
	registry, err := resource.NewRegistry(map[resource.Type]resource.Handler{workspace: handler})
	require.NoError(t, err)

	storage := newFakeStorage()
	notifier := &fakeNotifier{}
	f := &fixture{storage: storage, notifier: notifier, handler: handler, now: testEpoch}

	sequence := 0
	f.service = groups.NewService(groups.Deps{
		Storage:     storage,
		Users:       &fakeUsers{tokens: defaultTokens(), valid: defaultUsers()},
		Resources:   registry,
		GroupFields: groupFields,
		UserFields:  userFields,
		Notifier:    notifier,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:       func() time.Time { return f.now },
		IDGenerator: func() string {
			sequence++
			return fmt.Sprintf("00000000-0000-4000-8000-%012d", sequence)
		},
	})
	return f
}

func defaultTokens() map[string]string {
	return map[string]string{
		"tok-owner":     "owner",
		"tok-admin":     "admin1",
		"tok-member":    "member1",
		"tok-applicant": "applicant",
		"tok-resadmin":  "resadmin",
		"tok-stranger":  "stranger",
	}
}

func defaultUsers() map[string]bool {
	return map[string]bool{
		"owner": true, "admin1": true, "member1": true,
		"applicant": true, "resadmin": true, "stranger": true,
	}
}

// seedGroup stores a group with owner "owner", admin "admin1", and
// member "member1".
func (f *fixture) seedGroup(t *testing.T, id string, private bool) group.ID {
	t.Helper()
	groupID, err := group.ParseID(id)
	require.NoError(t, err)
	name, err := group.ParseName("Group " + id)
	require.NoError(t, err)
	owner, err := group.ParseUserName("owner")
	require.NoError(t, err)
	admin, err := group.ParseUserName("admin1")
	require.NoError(t, err)
	member, err := group.ParseUserName("member1")
	require.NoError(t, err)

	g, err := group.NewBuilder(groupID, name, group.NewGroupUser(owner, testEpoch),
		group.Times{CreatedAt: testEpoch, ModifiedAt: testEpoch}).
		WithAdministrator(group.NewGroupUser(admin, testEpoch)).
		WithMember(group.NewGroupUser(member, testEpoch)).
		WithIsPrivate(private).
		Build()
	require.NoError(t, err)
	require.NoError(t, f.storage.CreateGroup(context.Background(), g))
	return groupID
}

func workspaceType(t *testing.T) resource.Type {
	t.Helper()
	typ, err := resource.ParseType("workspace")
	require.NoError(t, err)
	return typ
}

func resourceID(t *testing.T, id string) resource.ID {
	t.Helper()
	parsed, err := resource.ParseID(id)
	require.NoError(t, err)
	return parsed
}

func userName(t *testing.T, name string) group.UserName {
	t.Helper()
	parsed, err := group.ParseUserName(name)
	require.NoError(t, err)
	return parsed
}

// # Group CRUD

/*
TestCreateGroup verifies creation, the owner-view response, and the
duplicate-id conflict.
*/
func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	groupID, err := group.ParseID("newgroup")
	require.NoError(t, err)
	name, err := group.ParseName("New Group")
	require.NoError(t, err)
	homepage, err := field.ParseCustomField("homepage")
	require.NoError(t, err)

	params := groups.CreateGroupParams{
		ID:                groupID,
		Name:              name,
		PrivateMemberList: true,
		Fields:            map[field.CustomField]string{homepage: "https://example.com"},
	}

	view, err := f.service.CreateGroup(ctx, "tok-owner", params)
	require.NoError(t, err)
	assert.Equal(t, group.RoleOwner, view.Role)
	require.NotNil(t, view.Name)
	assert.Equal(t, "New Group", view.Name.String())
	require.NotNil(t, view.MemberCount)
	assert.Equal(t, 1, *view.MemberCount)

	stored, err := f.storage.GetGroup(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, "owner", stored.Owner().Name().String())
	assert.True(t, stored.IsPrivateMemberList())

	t.Run("duplicate_id_conflicts", func(t *testing.T) {
		_, err := f.service.CreateGroup(ctx, "tok-admin", params)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "CONFLICT"))
	})

	t.Run("requires_token", func(t *testing.T) {
		_, err := f.service.CreateGroup(ctx, "", params)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHENTICATED"))
	})

	t.Run("unconfigured_field_rejected", func(t *testing.T) {
		unknown, err := field.ParseCustomField("unknown")
		require.NoError(t, err)
		bad := params
		badID, err := group.ParseID("othergroup")
		require.NoError(t, err)
		bad.ID = badID
		bad.Fields = map[field.CustomField]string{unknown: "x"}
		_, err = f.service.CreateGroup(ctx, "tok-owner", bad)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})
}

/*
TestUpdateGroup verifies the administrator gate and the uniform
authorization answer for missing groups.
*/
func TestUpdateGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seedGroup(t, "g1", false)

	newName, err := group.ParseName("Renamed")
	require.NoError(t, err)
	update := groups.GroupUpdate{Name: &newName}

	t.Run("admin_updates", func(t *testing.T) {
		require.NoError(t, f.service.UpdateGroup(ctx, "tok-admin", id, update))
		require.Len(t, f.storage.updates, 1)
	})

	t.Run("noop_skips_storage", func(t *testing.T) {
		require.NoError(t, f.service.UpdateGroup(ctx, "tok-owner", id, groups.GroupUpdate{}))
		assert.Len(t, f.storage.updates, 1)
	})

	t.Run("member_rejected", func(t *testing.T) {
		err := f.service.UpdateGroup(ctx, "tok-member", id, update)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("missing_group_is_unauthorized", func(t *testing.T) {
		missing, err := group.ParseID("nosuchgroup")
		require.NoError(t, err)
		updateErr := f.service.UpdateGroup(ctx, "tok-owner", missing, update)
		require.Error(t, updateErr)
		assert.True(t, apperr.IsCode(updateErr, "UNAUTHORIZED"))
	})
}

/*
TestGetGroup verifies role projection and the private-group short
circuit for outsiders.
*/
func TestGetGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	open := f.seedGroup(t, "open1", false)
	secret := f.seedGroup(t, "secret1", true)

	t.Run("member_sees_full_view", func(t *testing.T) {
		view, err := f.service.GetGroup(ctx, "tok-member", secret)
		require.NoError(t, err)
		assert.Equal(t, group.RoleMember, view.Role)
		require.NotNil(t, view.Name)
	})

	t.Run("outsider_gets_private_view", func(t *testing.T) {
		view, err := f.service.GetGroup(ctx, "tok-stranger", secret)
		require.NoError(t, err)
		assert.True(t, view.IsPrivateView)
		assert.Nil(t, view.Name)
	})

	t.Run("anonymous_sees_public_group", func(t *testing.T) {
		view, err := f.service.GetGroup(ctx, "", open)
		require.NoError(t, err)
		assert.False(t, view.IsPrivateView)
		assert.Nil(t, view.Name)
		require.NotNil(t, view.MemberCount)
		assert.Equal(t, 3, *view.MemberCount)
	})
}

/*
TestGroupExistsAndList covers the existence probe and the role-filter
token requirement.
*/
func TestGroupExistsAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedGroup(t, "open1", false)
	f.seedGroup(t, "secret1", true)

	id, err := group.ParseID("open1")
	require.NoError(t, err)
	exists, err := f.service.GroupExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	missing, err := group.ParseID("nosuchgroup")
	require.NoError(t, err)
	exists, err = f.service.GroupExists(ctx, missing)
	require.NoError(t, err)
	assert.False(t, exists)

	t.Run("anonymous_sees_public_only", func(t *testing.T) {
		views, err := f.service.ListGroups(ctx, "", groups.GetGroupsParams{})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "open1", views[0].GroupID.String())
		assert.False(t, views[0].IsStandardView)
	})

	t.Run("member_sees_own_private_group", func(t *testing.T) {
		views, err := f.service.ListGroups(ctx, "tok-member", groups.GetGroupsParams{})
		require.NoError(t, err)
		assert.Len(t, views, 2)
	})

	t.Run("role_filter_needs_token", func(t *testing.T) {
		_, err := f.service.ListGroups(ctx, "", groups.GetGroupsParams{Role: group.RoleMember})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHENTICATED"))
	})
}

/*
TestVisitGroup verifies the member gate on visit stamping.
*/
func TestVisitGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seedGroup(t, "g1", false)

	require.NoError(t, f.service.VisitGroup(ctx, "tok-member", id))
	assert.Equal(t, f.now, f.storage.lastVisits["g1/member1"])

	err := f.service.VisitGroup(ctx, "tok-stranger", id)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestSuggestGroupID verifies id derivation from display names and the
numbered fallback when the slug is taken.
*/
func TestSuggestGroupID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.service.SuggestGroupID(ctx, "Héctor's Lab")
	require.NoError(t, err)
	assert.Equal(t, "hectors-lab", id)

	t.Run("taken_id_gets_suffix", func(t *testing.T) {
		f.seedGroup(t, "hectors-lab", false)
		id, err := f.service.SuggestGroupID(ctx, "Héctor's Lab")
		require.NoError(t, err)
		assert.Equal(t, "hectors-lab-2", id)

		f.seedGroup(t, "hectors-lab-2", false)
		id, err = f.service.SuggestGroupID(ctx, "Héctor's Lab")
		require.NoError(t, err)
		assert.Equal(t, "hectors-lab-3", id)
	})

	t.Run("unusable_name_rejected", func(t *testing.T) {
		_, err := f.service.SuggestGroupID(ctx, "1234 !!!")
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})
}

// # Membership Workflow

/*
TestRequestGroupMembership verifies request creation, admin
notification, and the member/duplicate conflicts.
*/
func TestRequestGroupMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seedGroup(t, "g1", false)

	r, err := f.service.RequestGroupMembership(ctx, "tok-applicant", id)
	require.NoError(t, err)
	assert.Equal(t, request.KindRequest, r.Kind())
	assert.True(t, r.ResourceIsUser())
	assert.Equal(t, "applicant", r.Requester().String())
	assert.True(t, r.IsOpen())

	require.Len(t, f.notifier.notified, 1)
	assert.Equal(t, []string{"admin1", "owner"}, f.notifier.notified[0].targets)

	t.Run("member_conflicts", func(t *testing.T) {
		_, err := f.service.RequestGroupMembership(ctx, "tok-member", id)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "CONFLICT"))
	})

	t.Run("duplicate_open_request_conflicts", func(t *testing.T) {
		_, err := f.service.RequestGroupMembership(ctx, "tok-applicant", id)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "CONFLICT"))
	})
}

/*
TestInviteUserToGroup verifies the administrator gate, the unknown-user
rejection, and invitee notification.
*/
func TestInviteUserToGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seedGroup(t, "g1", false)

	r, err := f.service.InviteUserToGroup(ctx, "tok-admin", id, userName(t, "applicant"))
	require.NoError(t, err)
	assert.Equal(t, request.KindInvite, r.Kind())
	assert.Equal(t, "applicant", r.Resource().ID.String())

	require.Len(t, f.notifier.notified, 1)
	assert.Equal(t, []string{"applicant"}, f.notifier.notified[0].targets)

	t.Run("member_cannot_invite", func(t *testing.T) {
		_, err := f.service.InviteUserToGroup(ctx, "tok-member", id, userName(t, "stranger"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("unknown_user_rejected", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g2", false)
		_, err := f.service.InviteUserToGroup(ctx, "tok-admin", id, userName(t, "nobody"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("existing_member_conflicts", func(t *testing.T) {
		_, err := f.service.InviteUserToGroup(ctx, "tok-owner", id, userName(t, "member1"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "CONFLICT"))
	})
}

/*
TestMemberAdministration covers removal, promotion, and demotion gates.
*/
func TestMemberAdministration(t *testing.T) {
	ctx := context.Background()

	t.Run("member_removes_self", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		require.NoError(t, f.service.RemoveMember(ctx, "tok-member", id, userName(t, "member1")))
		g, err := f.storage.GetGroup(ctx, id)
		require.NoError(t, err)
		assert.False(t, g.IsMember(userName(t, "member1")))
	})

	t.Run("admin_removes_member", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		require.NoError(t, f.service.RemoveMember(ctx, "tok-admin", id, userName(t, "member1")))
	})

	t.Run("member_cannot_remove_other", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		err := f.service.RemoveMember(ctx, "tok-member", id, userName(t, "admin1"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("owner_promotes_member", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		require.NoError(t, f.service.PromoteMember(ctx, "tok-owner", id, userName(t, "member1")))
		g, err := f.storage.GetGroup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, group.RoleAdmin, g.Role(userName(t, "member1")))
	})

	t.Run("admin_cannot_promote", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		err := f.service.PromoteMember(ctx, "tok-admin", id, userName(t, "member1"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("promoting_admin_rejected", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		err := f.service.PromoteMember(ctx, "tok-owner", id, userName(t, "admin1"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("admin_demotes_self", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		require.NoError(t, f.service.DemoteAdmin(ctx, "tok-admin", id, userName(t, "admin1")))
		g, err := f.storage.GetGroup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, group.RoleMember, g.Role(userName(t, "admin1")))
	})

	t.Run("member_cannot_demote", func(t *testing.T) {
		f := newFixture(t)
		id := f.seedGroup(t, "g1", false)
		err := f.service.DemoteAdmin(ctx, "tok-member", id, userName(t, "admin1"))
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})
}

/*
TestUpdateUserFields verifies the self/administrator split and the
user-settable gate.
*/
func TestUpdateUserFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seedGroup(t, "g1", false)

	title, err := field.ParseCustomField("title")
	require.NoError(t, err)
	internal, err := field.ParseCustomField("internal")
	require.NoError(t, err)

	t.Run("self_sets_settable_field", func(t *testing.T) {
		require.NoError(t, f.service.UpdateUserFields(ctx, "tok-member", id,
			userName(t, "member1"), map[field.CustomField]string{title: "dev"}))
		require.Len(t, f.storage.userFields, 1)
	})

	t.Run("self_cannot_set_restricted_field", func(t *testing.T) {
		err := f.service.UpdateUserFields(ctx, "tok-member", id,
			userName(t, "member1"), map[field.CustomField]string{internal: "x"})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("admin_sets_any_field", func(t *testing.T) {
		require.NoError(t, f.service.UpdateUserFields(ctx, "tok-admin", id,
			userName(t, "member1"), map[field.CustomField]string{internal: "x"}))
	})

	t.Run("non_member_target_is_unauthorized", func(t *testing.T) {
		err := f.service.UpdateUserFields(ctx, "tok-admin", id,
			userName(t, "stranger"), map[field.CustomField]string{title: "dev"})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})

	t.Run("stranger_actor_is_unauthorized", func(t *testing.T) {
		err := f.service.UpdateUserFields(ctx, "tok-stranger", id,
			userName(t, "member1"), map[field.CustomField]string{title: "dev"})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
	})
}
