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

// stubResolver answers field visibility questions from plain sets.
type stubResolver struct {
	public      map[string]bool
	minimal     map[string]bool
	userPublic  map[string]bool
	userMinimal map[string]bool
}

func (s stubResolver) IsPublic(f field.CustomField) bool      { return s.public[f.String()] }
func (s stubResolver) IsMinimalView(f field.CustomField) bool { return s.minimal[f.String()] }
func (s stubResolver) IsUserPublic(f field.CustomField) bool  { return s.userPublic[f.String()] }
func (s stubResolver) IsUserMinimalView(f field.CustomField) bool {
	return s.userMinimal[f.String()]
}

func emptyResolver() stubResolver {
	return stubResolver{
		public:      map[string]bool{},
		minimal:     map[string]bool{},
		userPublic:  map[string]bool{},
		userMinimal: map[string]bool{},
	}
}

// viewTestGroup builds a group with an admin, a member with a recorded
// visit, one resource, and one custom field per visibility class.
func viewTestGroup(t *testing.T, private, privateMemberList bool) *group.Group {
	t.Helper()
	owner := group.NewGroupUser(mustUserName(t, "owner"), testEpoch)
	member := group.NewGroupUser(mustUserName(t, "member1"), testEpoch.Add(2*time.Minute)).
		WithLastVisit(testEpoch.Add(time.Hour))
	g, err := group.NewBuilder(
		mustGroupID(t, "viewgroup"),
		mustName(t, "View Group"),
		owner,
		group.Times{CreatedAt: testEpoch, ModifiedAt: testEpoch.Add(time.Hour)},
	).
		WithAdministrator(group.NewGroupUser(mustUserName(t, "admin1"), testEpoch.Add(time.Minute))).
		WithMember(member).
		WithResource(mustResourceType(t, "workspace"), group.ResourceEntry{
			Descriptor: mustDescriptor(t, "ws-7"),
		}).
		WithCustomField(mustField(t, "homepage"), "https://example.com").
		WithCustomField(mustField(t, "notes"), "internal").
		WithIsPrivate(private).
		WithPrivateMemberList(privateMemberList).
		Build()
	require.NoError(t, err)
	return g
}

/*
TestViewGroup_Anonymous checks the public projection: counts and
timestamps are visible but the group's name and owner stay hidden.
*/
func TestViewGroup_Anonymous(t *testing.T) {
	g := viewTestGroup(t, false, false)

	view := group.ViewGroup(g, nil, true, emptyResolver(), nil)

	assert.Equal(t, group.RoleNone, view.Role)
	assert.False(t, view.IsPrivateView)
	assert.Nil(t, view.Name)
	assert.Nil(t, view.Owner)
	require.NotNil(t, view.MemberCount)
	assert.Equal(t, 3, *view.MemberCount)
	require.NotNil(t, view.CreatedAt)
	assert.Equal(t, g.CreatedAt(), *view.CreatedAt)
	assert.Equal(t, map[resource.Type]int{mustResourceType(t, "workspace"): 1}, view.ResourceCounts)
	assert.Nil(t, view.ResourceAddedAt)

	// The member list is open, so everyone is identified but join times
	// stay hidden from roleless viewers.
	require.Contains(t, view.MemberInfo, mustUserName(t, "member1"))
	assert.Nil(t, view.MemberInfo[mustUserName(t, "member1")].JoinedAt)
	assert.Nil(t, view.MemberInfo[mustUserName(t, "member1")].LastVisit)
}

/*
TestViewGroup_PrivateShortCircuit verifies that a private group viewed
without a role exposes nothing beyond its id.
*/
func TestViewGroup_PrivateShortCircuit(t *testing.T) {
	g := viewTestGroup(t, true, false)
	outsider := mustUserName(t, "stranger")

	for name, viewer := range map[string]*group.UserName{
		"anonymous": nil,
		"outsider":  &outsider,
	} {
		t.Run(name, func(t *testing.T) {
			view := group.ViewGroup(g, viewer, true, emptyResolver(), nil)

			assert.True(t, view.IsPrivateView)
			assert.True(t, view.IsPrivate)
			assert.Equal(t, g.ID(), view.GroupID)
			assert.Nil(t, view.Name)
			assert.Nil(t, view.Owner)
			assert.Nil(t, view.MemberCount)
			assert.Nil(t, view.CreatedAt)
			assert.Nil(t, view.ResourceCounts)
			assert.Nil(t, view.MemberInfo)
			assert.Empty(t, view.CustomFields)
		})
	}
}

/*
TestViewGroup_Member checks the projection for a plain member: identity
becomes visible, join times appear, visit times stay admin-only.
*/
func TestViewGroup_Member(t *testing.T) {
	g := viewTestGroup(t, true, false)
	viewer := mustUserName(t, "member1")

	view := group.ViewGroup(g, &viewer, true, emptyResolver(), nil)

	assert.Equal(t, group.RoleMember, view.Role)
	assert.False(t, view.IsPrivateView)
	require.NotNil(t, view.Name)
	assert.Equal(t, "View Group", view.Name.String())
	require.NotNil(t, view.Owner)
	assert.Equal(t, "owner", view.Owner.String())
	require.NotNil(t, view.LastVisit)
	assert.Equal(t, testEpoch.Add(time.Hour), *view.LastVisit)
	require.NotNil(t, view.ResourceAddedAt)

	assert.Equal(t, []group.UserName{mustUserName(t, "admin1")}, view.Admins)
	assert.Equal(t, []group.UserName{mustUserName(t, "member1")}, view.Members)

	memberRecord := view.MemberInfo[mustUserName(t, "member1")]
	require.NotNil(t, memberRecord.JoinedAt)
	assert.Equal(t, testEpoch.Add(2*time.Minute), *memberRecord.JoinedAt)
	assert.Nil(t, memberRecord.LastVisit)
}

/*
TestViewGroup_AdminSeesVisits checks that administrator viewers get the
per-member last-visit times.
*/
func TestViewGroup_AdminSeesVisits(t *testing.T) {
	g := viewTestGroup(t, false, false)
	viewer := mustUserName(t, "admin1")

	view := group.ViewGroup(g, &viewer, true, emptyResolver(), nil)

	assert.Equal(t, group.RoleAdmin, view.Role)
	memberRecord := view.MemberInfo[mustUserName(t, "member1")]
	require.NotNil(t, memberRecord.LastVisit)
	assert.Equal(t, testEpoch.Add(time.Hour), *memberRecord.LastVisit)
}

/*
TestViewGroup_PrivateMemberList hides plain members from roleless
viewers while keeping the administration identified.
*/
func TestViewGroup_PrivateMemberList(t *testing.T) {
	g := viewTestGroup(t, false, true)

	t.Run("roleless_sees_administration_only", func(t *testing.T) {
		view := group.ViewGroup(g, nil, true, emptyResolver(), nil)

		assert.Empty(t, view.Members)
		assert.Equal(t, []group.UserName{mustUserName(t, "admin1")}, view.Admins)
		assert.Contains(t, view.MemberInfo, mustUserName(t, "owner"))
		assert.Contains(t, view.MemberInfo, mustUserName(t, "admin1"))
		assert.NotContains(t, view.MemberInfo, mustUserName(t, "member1"))
	})

	t.Run("member_sees_everyone", func(t *testing.T) {
		viewer := mustUserName(t, "member1")
		view := group.ViewGroup(g, &viewer, true, emptyResolver(), nil)

		assert.Equal(t, []group.UserName{mustUserName(t, "member1")}, view.Members)
		assert.Contains(t, view.MemberInfo, mustUserName(t, "member1"))
	})
}

/*
TestViewGroup_Minimal checks the non-standard projection: no member
lists, no member detail, no member-list privacy flag.
*/
func TestViewGroup_Minimal(t *testing.T) {
	g := viewTestGroup(t, false, false)
	viewer := mustUserName(t, "member1")

	view := group.ViewGroup(g, &viewer, false, emptyResolver(), nil)

	assert.False(t, view.IsStandardView)
	assert.Nil(t, view.IsPrivateMemberList)
	assert.Nil(t, view.MemberInfo)
	assert.Empty(t, view.Admins)
	assert.Empty(t, view.Members)
	require.NotNil(t, view.MemberCount)
}

/*
TestViewGroup_FieldVisibility exercises the inclusion rule for custom
fields: a field appears iff it is public or the viewer holds a role, and
it is minimal-view-eligible or the view is standard.
*/
func TestViewGroup_FieldVisibility(t *testing.T) {
	g := viewTestGroup(t, false, false)
	resolver := emptyResolver()
	resolver.public["homepage"] = true
	resolver.minimal["homepage"] = true

	member := mustUserName(t, "member1")

	testCases := []struct {
		name     string
		viewer   *group.UserName
		standard bool
		want     map[string]string
	}{
		{
			name:     "anonymous_standard_gets_public_only",
			viewer:   nil,
			standard: true,
			want:     map[string]string{"homepage": "https://example.com"},
		},
		{
			name:     "member_standard_gets_all",
			viewer:   &member,
			standard: true,
			want:     map[string]string{"homepage": "https://example.com", "notes": "internal"},
		},
		{
			name:     "member_minimal_gets_minimal_eligible",
			viewer:   &member,
			standard: false,
			want:     map[string]string{"homepage": "https://example.com"},
		},
		{
			name:     "anonymous_minimal_gets_public_minimal",
			viewer:   nil,
			standard: false,
			want:     map[string]string{"homepage": "https://example.com"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			view := group.ViewGroup(g, testCase.viewer, testCase.standard, resolver, nil)

			got := make(map[string]string, len(view.CustomFields))
			for f, value := range view.CustomFields {
				got[f.String()] = value
			}
			assert.Equal(t, testCase.want, got)
		})
	}
}

/*
TestViewGroup_UserFieldsNeverMinimal checks that per-user custom fields
are confined to standard views.
*/
func TestViewGroup_UserFieldsNeverMinimal(t *testing.T) {
	owner := group.NewGroupUser(mustUserName(t, "owner"), testEpoch).
		WithField(mustField(t, "title"), "lead")
	g, err := group.NewBuilder(
		mustGroupID(t, "g1"), mustName(t, "G"), owner,
		group.Times{CreatedAt: testEpoch, ModifiedAt: testEpoch},
	).Build()
	require.NoError(t, err)

	resolver := emptyResolver()
	resolver.userPublic["title"] = true
	viewer := mustUserName(t, "owner")

	view := group.ViewGroup(g, &viewer, true, resolver, nil)
	ownerInfo := view.MemberInfo[mustUserName(t, "owner")]
	assert.Equal(t, "lead", ownerInfo.Fields[mustField(t, "title")])

	minimal := group.ViewGroup(g, &viewer, false, resolver, nil)
	assert.Nil(t, minimal.MemberInfo)
}
