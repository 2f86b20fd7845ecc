// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/resource"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustGroupID(t *testing.T, id string) group.ID {
	t.Helper()
	parsed, err := group.ParseID(id)
	require.NoError(t, err)
	return parsed
}

func mustUserName(t *testing.T, name string) group.UserName {
	t.Helper()
	parsed, err := group.ParseUserName(name)
	require.NoError(t, err)
	return parsed
}

func mustField(t *testing.T, name string) field.CustomField {
	t.Helper()
	parsed, err := field.ParseCustomField(name)
	require.NoError(t, err)
	return parsed
}

func mustResourceType(t *testing.T, name string) resource.Type {
	t.Helper()
	parsed, err := resource.ParseType(name)
	require.NoError(t, err)
	return parsed
}

func mustDescriptor(t *testing.T, id string) resource.Descriptor {
	t.Helper()
	parsedID, err := resource.ParseID(id)
	require.NoError(t, err)
	adminID, err := resource.ParseAdministrativeID(id)
	require.NoError(t, err)
	return resource.NewDescriptor(parsedID, adminID)
}

// buildTestGroup assembles a group with one admin, one member, and one
// attached resource.
func buildTestGroup(t *testing.T) *group.Group {
	t.Helper()
	owner := group.NewGroupUser(mustUserName(t, "owner"), testEpoch)
	g, err := group.NewBuilder(
		mustGroupID(t, "mygroup"),
		mustName(t, "My Group"),
		owner,
		group.Times{CreatedAt: testEpoch, ModifiedAt: testEpoch.Add(time.Hour)},
	).
		WithAdministrator(group.NewGroupUser(mustUserName(t, "admin1"), testEpoch.Add(time.Minute))).
		WithMember(group.NewGroupUser(mustUserName(t, "member1"), testEpoch.Add(2*time.Minute))).
		WithResource(mustResourceType(t, "workspace"), group.ResourceEntry{
			Descriptor: mustDescriptor(t, "ws-7"),
		}).
		Build()
	require.NoError(t, err)
	return g
}

func mustName(t *testing.T, name string) group.Name {
	t.Helper()
	parsed, err := group.ParseName(name)
	require.NoError(t, err)
	return parsed
}

/*
TestGroup_Roles verifies role resolution across the three membership
tiers.
*/
func TestGroup_Roles(t *testing.T) {
	g := buildTestGroup(t)

	assert.Equal(t, group.RoleOwner, g.Role(mustUserName(t, "owner")))
	assert.Equal(t, group.RoleAdmin, g.Role(mustUserName(t, "admin1")))
	assert.Equal(t, group.RoleMember, g.Role(mustUserName(t, "member1")))
	assert.Equal(t, group.RoleNone, g.Role(mustUserName(t, "stranger")))

	assert.True(t, g.IsAdministrator(mustUserName(t, "owner")))
	assert.True(t, g.IsAdministrator(mustUserName(t, "admin1")))
	assert.False(t, g.IsAdministrator(mustUserName(t, "member1")))

	assert.True(t, g.IsMember(mustUserName(t, "member1")))
	assert.False(t, g.IsMember(mustUserName(t, "stranger")))
}

/*
TestGroup_MemberCount checks that the count covers the owner, the
administrators, and the plain members.
*/
func TestGroup_MemberCount(t *testing.T) {
	g := buildTestGroup(t)
	assert.Equal(t, 3, g.MemberCount())
}

/*
TestGroup_AdministratorsAndOwner verifies the sorted administration
listing.
*/
func TestGroup_AdministratorsAndOwner(t *testing.T) {
	g := buildTestGroup(t)

	names := g.AdministratorsAndOwner()
	require.Len(t, names, 2)
	assert.Equal(t, "admin1", names[0].String())
	assert.Equal(t, "owner", names[1].String())
}

/*
TestBuilder_RoleDisjointness checks that a user cannot hold two roles.
*/
func TestBuilder_RoleDisjointness(t *testing.T) {
	owner := group.NewGroupUser(mustUserName(t, "owner"), testEpoch)
	times := group.Times{CreatedAt: testEpoch, ModifiedAt: testEpoch}

	t.Run("owner_as_member", func(t *testing.T) {
		_, err := group.NewBuilder(mustGroupID(t, "g1"), mustName(t, "G"), owner, times).
			WithMember(group.NewGroupUser(mustUserName(t, "owner"), testEpoch)).
			Build()
		require.Error(t, err)
	})

	t.Run("owner_as_admin", func(t *testing.T) {
		_, err := group.NewBuilder(mustGroupID(t, "g1"), mustName(t, "G"), owner, times).
			WithAdministrator(group.NewGroupUser(mustUserName(t, "owner"), testEpoch)).
			Build()
		require.Error(t, err)
	})

	t.Run("admin_and_member", func(t *testing.T) {
		_, err := group.NewBuilder(mustGroupID(t, "g1"), mustName(t, "G"), owner, times).
			WithAdministrator(group.NewGroupUser(mustUserName(t, "u1"), testEpoch)).
			WithMember(group.NewGroupUser(mustUserName(t, "u1"), testEpoch)).
			Build()
		require.Error(t, err)
	})
}

/*
TestBuilder_TimeOrdering rejects modification times before creation.
*/
func TestBuilder_TimeOrdering(t *testing.T) {
	owner := group.NewGroupUser(mustUserName(t, "owner"), testEpoch)
	_, err := group.NewBuilder(mustGroupID(t, "g1"), mustName(t, "G"), owner, group.Times{
		CreatedAt:  testEpoch,
		ModifiedAt: testEpoch.Add(-time.Second),
	}).Build()
	require.Error(t, err)
}

/*
TestBuilder_RejectsUserResourceType keeps the reserved user type out of
the resource map.
*/
func TestBuilder_RejectsUserResourceType(t *testing.T) {
	owner := group.NewGroupUser(mustUserName(t, "owner"), testEpoch)
	_, err := group.NewBuilder(mustGroupID(t, "g1"), mustName(t, "G"), owner,
		group.Times{CreatedAt: testEpoch, ModifiedAt: testEpoch}).
		WithResource(resource.TypeUser, group.ResourceEntry{Descriptor: mustDescriptor(t, "u1")}).
		Build()
	require.Error(t, err)
}

/*
TestGroup_Resources checks containment semantics: exact descriptor match
versus id-only match.
*/
func TestGroup_Resources(t *testing.T) {
	g := buildTestGroup(t)
	workspace := mustResourceType(t, "workspace")

	assert.True(t, g.ContainsResource(workspace, mustDescriptor(t, "ws-7")))
	assert.True(t, g.ContainsResourceID(workspace, mustDescriptor(t, "ws-7").ID))
	assert.False(t, g.ContainsResource(workspace, mustDescriptor(t, "ws-8")))

	// A matching id with a differing administrative id is not an exact
	// match but still an id-level match.
	otherAdmin := resource.NewDescriptor(mustDescriptor(t, "ws-7").ID, mustDescriptor(t, "other").AdministrativeID)
	assert.False(t, g.ContainsResource(workspace, otherAdmin))
	assert.True(t, g.ContainsResourceID(workspace, otherAdmin.ID))

	_, err := g.Resources(mustResourceType(t, "catalog"))
	require.Error(t, err)
}

/*
TestGroup_RemoveResources verifies copy-on-write removal: the original
group is untouched and unknown ids fail atomically.
*/
func TestGroup_RemoveResources(t *testing.T) {
	g := buildTestGroup(t)
	workspace := mustResourceType(t, "workspace")
	wsID := mustDescriptor(t, "ws-7").ID

	t.Run("removes_without_mutating_original", func(t *testing.T) {
		trimmed, err := g.RemoveResources(workspace, []resource.ID{wsID})
		require.NoError(t, err)

		assert.False(t, trimmed.ContainsResourceID(workspace, wsID))
		assert.True(t, g.ContainsResourceID(workspace, wsID))
	})

	t.Run("unknown_id_fails", func(t *testing.T) {
		_, err := g.RemoveResources(workspace, []resource.ID{mustDescriptor(t, "ws-9").ID})
		require.Error(t, err)
	})

	t.Run("unknown_type_fails", func(t *testing.T) {
		_, err := g.RemoveResources(mustResourceType(t, "catalog"), []resource.ID{wsID})
		require.Error(t, err)
	})

	t.Run("empty_ids_is_identity", func(t *testing.T) {
		same, err := g.RemoveResources(workspace, nil)
		require.NoError(t, err)
		assert.True(t, same.ContainsResourceID(workspace, wsID))
	})
}

/*
TestGroupUser_CopyOnWrite checks that membership record updates leave
the original value untouched.
*/
func TestGroupUser_CopyOnWrite(t *testing.T) {
	user := group.NewGroupUser(mustUserName(t, "u1"), testEpoch)
	f := mustField(t, "title")

	withField := user.WithField(f, "researcher")
	_, originalHas := user.Field(f)
	value, updatedHas := withField.Field(f)

	assert.False(t, originalHas)
	assert.True(t, updatedHas)
	assert.Equal(t, "researcher", value)

	// An empty value removes the field.
	cleared := withField.WithField(f, "")
	_, clearedHas := cleared.Field(f)
	assert.False(t, clearedHas)

	visited := user.WithLastVisit(testEpoch.Add(time.Hour))
	assert.Nil(t, user.LastVisit())
	require.NotNil(t, visited.LastVisit())
	assert.Equal(t, testEpoch.Add(time.Hour), *visited.LastVisit())
}
