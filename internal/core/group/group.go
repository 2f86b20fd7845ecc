// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package group defines the group aggregate and its derived views.

A [Group] is an immutable value: it is assembled once through a [Builder]
and every later change flows through storage, which hands back a fresh
value. The only in-memory mutator, [Group.RemoveResources], follows the
same rule by returning a new group and leaving its receiver untouched.

Core Responsibility:

  - Identity: validated ID, Name, and UserName parsers.
  - Hierarchy: owner, administrators, and members with disjointness
    enforced at build time.
  - Association: external resources grouped by type.
  - Projection: the role-aware [View] that filters what a given viewer
    is entitled to see.
*/
package group

import (
	"sort"
	"time"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

// # Aggregate

// ResourceEntry is one attached resource: its descriptor plus the
// optional time it was added to the group.
type ResourceEntry struct {
	Descriptor resource.Descriptor
	AddedAt    *time.Time
}

// Group is the aggregate root. All fields are private; reads go through
// the query methods and construction through [Builder].
type Group struct {
	id                ID
	name              Name
	owner             GroupUser
	admins            map[UserName]GroupUser
	members           map[UserName]GroupUser
	resources         map[resource.Type]map[resource.ID]ResourceEntry
	fields            map[field.CustomField]string
	isPrivate         bool
	privateMemberList bool
	createdAt         time.Time
	modifiedAt        time.Time
}

// # Scalar Queries

// ID returns the group identifier.
func (g *Group) ID() ID { return g.id }

// Name returns the group's display name.
func (g *Group) Name() Name { return g.name }

// Owner returns the owner's membership record.
func (g *Group) Owner() GroupUser { return g.owner }

// IsPrivate reports whether non-members may see the group at all.
func (g *Group) IsPrivate() bool { return g.isPrivate }

// IsPrivateMemberList reports whether the plain member list is hidden
// from standard views.
func (g *Group) IsPrivateMemberList() bool { return g.privateMemberList }

// CreatedAt returns the creation time.
func (g *Group) CreatedAt() time.Time { return g.createdAt }

// ModifiedAt returns the last modification time.
func (g *Group) ModifiedAt() time.Time { return g.modifiedAt }

// MemberCount returns the total number of users in the group, the owner
// and administrators included.
func (g *Group) MemberCount() int { return 1 + len(g.admins) + len(g.members) }

// Field returns one group-level custom field value.
func (g *Group) Field(f field.CustomField) (string, bool) {
	value, ok := g.fields[f]
	return value, ok
}

// Fields returns a copy of the group-level custom field map.
func (g *Group) Fields() map[field.CustomField]string {
	out := make(map[field.CustomField]string, len(g.fields))
	for k, v := range g.fields {
		out[k] = v
	}
	return out
}

// # Membership Queries

// IsMember reports whether the user belongs to the group in any role.
func (g *Group) IsMember(user UserName) bool {
	if g.owner.name == user {
		return true
	}
	if _, ok := g.admins[user]; ok {
		return true
	}
	_, ok := g.members[user]
	return ok
}

// IsAdministrator reports whether the user is the owner or an admin.
func (g *Group) IsAdministrator(user UserName) bool {
	if g.owner.name == user {
		return true
	}
	_, ok := g.admins[user]
	return ok
}

// Role resolves the user's authority level. Owner precedence over admin,
// admin over member.
func (g *Group) Role(user UserName) Role {
	switch {
	case g.owner.name == user:
		return RoleOwner
	case g.hasAdmin(user):
		return RoleAdmin
	case g.hasMember(user):
		return RoleMember
	default:
		return RoleNone
	}
}

func (g *Group) hasAdmin(user UserName) bool {
	_, ok := g.admins[user]
	return ok
}

func (g *Group) hasMember(user UserName) bool {
	_, ok := g.members[user]
	return ok
}

// Member returns the membership record for a user in any role. The
// second return is false for non-members.
func (g *Group) Member(user UserName) (GroupUser, bool) {
	if g.owner.name == user {
		return g.owner, true
	}
	if admin, ok := g.admins[user]; ok {
		return admin, true
	}
	member, ok := g.members[user]
	return member, ok
}

// AdministratorsAndOwner returns the owner plus every admin, sorted by
// username. This is the notification target set for group-side approvals.
func (g *Group) AdministratorsAndOwner() []UserName {
	names := make([]UserName, 0, 1+len(g.admins))
	names = append(names, g.owner.name)
	for name := range g.admins {
		names = append(names, name)
	}
	sortUserNames(names)
	return names
}

// Administrators returns the admin records, sorted by username. The
// owner is not included.
func (g *Group) Administrators() []GroupUser {
	return sortedRecords(g.admins)
}

// Members returns the plain member records, sorted by username.
func (g *Group) Members() []GroupUser {
	return sortedRecords(g.members)
}

// # Resource Queries

// ContainsResource reports whether the exact descriptor (id and
// administrative id both) is attached under the type.
func (g *Group) ContainsResource(typ resource.Type, desc resource.Descriptor) bool {
	entry, ok := g.resources[typ][desc.ID]
	return ok && entry.Descriptor.AdministrativeID == desc.AdministrativeID
}

// ContainsResourceID reports whether any resource with the id is
// attached under the type, regardless of administrative id.
func (g *Group) ContainsResourceID(typ resource.Type, id resource.ID) bool {
	_, ok := g.resources[typ][id]
	return ok
}

// Resource returns the entry for one resource id under a type.
func (g *Group) Resource(typ resource.Type, id resource.ID) (ResourceEntry, error) {
	entry, ok := g.resources[typ][id]
	if !ok {
		return ResourceEntry{}, noSuchResource(typ, id.String())
	}
	return entry, nil
}

// Resources returns every entry under a type, sorted by resource id.
// An absent type is an error, matching [Group.Resource].
func (g *Group) Resources(typ resource.Type) ([]ResourceEntry, error) {
	byID, ok := g.resources[typ]
	if !ok {
		return nil, noSuchResource(typ, "")
	}
	entries := make([]ResourceEntry, 0, len(byID))
	for _, entry := range byID {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Descriptor.ID.String() < entries[j].Descriptor.ID.String()
	})
	return entries, nil
}

// ResourceTypes returns the attached types, sorted by name.
func (g *Group) ResourceTypes() []resource.Type {
	types := make([]resource.Type, 0, len(g.resources))
	for typ := range g.resources {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

// RemoveResources returns a new group with the given ids removed from
// the type, dropping the type entirely when it becomes empty. The
// receiver is never modified. Removing a missing id or a missing type is
// a "no such resource" error; an empty id set returns an equal group.
func (g *Group) RemoveResources(typ resource.Type, ids []resource.ID) (*Group, error) {
	if len(ids) == 0 {
		return g, nil
	}
	byID, ok := g.resources[typ]
	if !ok {
		return nil, noSuchResource(typ, "")
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, noSuchResource(typ, id.String())
		}
	}

	copied := g.copy()
	remaining := copied.resources[typ]
	for _, id := range ids {
		delete(remaining, id)
	}
	if len(remaining) == 0 {
		delete(copied.resources, typ)
	}
	return copied, nil
}

func noSuchResource(typ resource.Type, id string) error {
	if id == "" {
		return apperr.NotFound("Resource type " + typ.String())
	}
	return apperr.NotFound("Resource " + typ.String() + "/" + id)
}

// # Internals

func (g *Group) copy() *Group {
	copied := &Group{
		id:                g.id,
		name:              g.name,
		owner:             g.owner.copy(),
		admins:            make(map[UserName]GroupUser, len(g.admins)),
		members:           make(map[UserName]GroupUser, len(g.members)),
		resources:         make(map[resource.Type]map[resource.ID]ResourceEntry, len(g.resources)),
		fields:            make(map[field.CustomField]string, len(g.fields)),
		isPrivate:         g.isPrivate,
		privateMemberList: g.privateMemberList,
		createdAt:         g.createdAt,
		modifiedAt:        g.modifiedAt,
	}
	for name, user := range g.admins {
		copied.admins[name] = user.copy()
	}
	for name, user := range g.members {
		copied.members[name] = user.copy()
	}
	for typ, byID := range g.resources {
		inner := make(map[resource.ID]ResourceEntry, len(byID))
		for id, entry := range byID {
			inner[id] = entry
		}
		copied.resources[typ] = inner
	}
	for f, value := range g.fields {
		copied.fields[f] = value
	}
	return copied
}

func sortUserNames(names []UserName) {
	sort.Slice(names, func(i, j int) bool { return names[i].name < names[j].name })
}

func sortedRecords(records map[UserName]GroupUser) []GroupUser {
	out := make([]GroupUser, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name.name < out[j].name.name })
	return out
}
