// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group

import (
	"time"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
)

// Times carries a group's creation and modification instants.
type Times struct {
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Builder assembles an immutable [Group]. It accumulates state through
// the With methods and validates all invariants once in [Builder.Build].
type Builder struct {
	group *Group
	errs  []error
}

// NewBuilder starts a group with the required fields. The owner arrives
// as a full membership record.
func NewBuilder(id ID, name Name, owner GroupUser, times Times) *Builder {
	return &Builder{
		group: &Group{
			id:         id,
			name:       name,
			owner:      owner.copy(),
			admins:     make(map[UserName]GroupUser),
			members:    make(map[UserName]GroupUser),
			resources:  make(map[resource.Type]map[resource.ID]ResourceEntry),
			fields:     make(map[field.CustomField]string),
			createdAt:  times.CreatedAt.UTC(),
			modifiedAt: times.ModifiedAt.UTC(),
		},
	}
}

// WithMember adds a plain member record.
func (b *Builder) WithMember(user GroupUser) *Builder {
	b.group.members[user.name] = user.copy()
	return b
}

// WithAdministrator adds an administrator record.
func (b *Builder) WithAdministrator(user GroupUser) *Builder {
	b.group.admins[user.name] = user.copy()
	return b
}

// WithResource attaches a resource entry under a type. The same id added
// twice keeps the last entry.
func (b *Builder) WithResource(typ resource.Type, entry ResourceEntry) *Builder {
	if typ.IsUser() {
		b.errs = append(b.errs, apperr.ValidationError(
			"The user resource type cannot be attached to a group"))
		return b
	}
	if b.group.resources[typ] == nil {
		b.group.resources[typ] = make(map[resource.ID]ResourceEntry)
	}
	b.group.resources[typ][entry.Descriptor.ID] = entry
	return b
}

// WithCustomField sets one group-level custom field.
func (b *Builder) WithCustomField(f field.CustomField, value string) *Builder {
	b.group.fields[f] = value
	return b
}

// WithIsPrivate sets the group privacy flag.
func (b *Builder) WithIsPrivate(private bool) *Builder {
	b.group.isPrivate = private
	return b
}

// WithPrivateMemberList hides the plain member list from standard views.
func (b *Builder) WithPrivateMemberList(private bool) *Builder {
	b.group.privateMemberList = private
	return b
}

// Build validates the accumulated state and freezes the group.
//
// Invariants checked here: the owner appears in no other role, the admin
// and member sets are disjoint, and creation does not postdate
// modification.
func (b *Builder) Build() (*Group, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	g := b.group

	if g.modifiedAt.Before(g.createdAt) {
		return nil, apperr.ValidationError("Group modification time predates creation")
	}
	if _, ok := g.admins[g.owner.name]; ok {
		return nil, apperr.ValidationError("The group owner cannot also be an administrator",
			apperr.FieldError{Field: "user", Message: g.owner.name.String()})
	}
	if _, ok := g.members[g.owner.name]; ok {
		return nil, apperr.ValidationError("The group owner cannot also be a member",
			apperr.FieldError{Field: "user", Message: g.owner.name.String()})
	}
	for name := range g.admins {
		if _, ok := g.members[name]; ok {
			return nil, apperr.ValidationError("A user cannot be both administrator and member",
				apperr.FieldError{Field: "user", Message: name.String()})
		}
	}

	// Detach the builder so later builder calls cannot reach the
	// published value.
	b.group = nil
	return g, nil
}
