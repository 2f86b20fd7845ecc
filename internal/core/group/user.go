// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group

import (
	"time"

	"github.com/collabry/groups/internal/core/field"
)

// GroupUser is one user's membership record within a single group:
// identity, join time, optional last-visit time, and per-user custom
// fields. Equality is structural.
type GroupUser struct {
	name      UserName
	joinedAt  time.Time
	lastVisit *time.Time
	fields    map[field.CustomField]string
}

// NewGroupUser builds a membership record with no custom fields.
func NewGroupUser(name UserName, joinedAt time.Time) GroupUser {
	return GroupUser{name: name, joinedAt: joinedAt.UTC()}
}

// Name returns the user's identity.
func (u GroupUser) Name() UserName { return u.name }

// JoinedAt returns the time the user entered the group.
func (u GroupUser) JoinedAt() time.Time { return u.joinedAt }

// LastVisit returns the user's last recorded visit to the group, or nil
// when no visit has been recorded.
func (u GroupUser) LastVisit() *time.Time { return u.lastVisit }

// Field returns one custom field value. The second return is false when
// the field is absent.
func (u GroupUser) Field(f field.CustomField) (string, bool) {
	value, ok := u.fields[f]
	return value, ok
}

// Fields returns a copy of the user's custom field map.
func (u GroupUser) Fields() map[field.CustomField]string {
	out := make(map[field.CustomField]string, len(u.fields))
	for k, v := range u.fields {
		out[k] = v
	}
	return out
}

// WithLastVisit returns a copy with the last-visit time set.
func (u GroupUser) WithLastVisit(at time.Time) GroupUser {
	visited := at.UTC()
	copied := u.copy()
	copied.lastVisit = &visited
	return copied
}

// WithField returns a copy with one custom field set. An empty value
// removes the field.
func (u GroupUser) WithField(f field.CustomField, value string) GroupUser {
	copied := u.copy()
	if value == "" {
		delete(copied.fields, f)
		if len(copied.fields) == 0 {
			copied.fields = nil
		}
		return copied
	}
	if copied.fields == nil {
		copied.fields = make(map[field.CustomField]string, 1)
	}
	copied.fields[f] = value
	return copied
}

// Equal reports structural equality between two membership records.
func (u GroupUser) Equal(other GroupUser) bool {
	if u.name != other.name || !u.joinedAt.Equal(other.joinedAt) {
		return false
	}
	if (u.lastVisit == nil) != (other.lastVisit == nil) {
		return false
	}
	if u.lastVisit != nil && !u.lastVisit.Equal(*other.lastVisit) {
		return false
	}
	if len(u.fields) != len(other.fields) {
		return false
	}
	for k, v := range u.fields {
		if ov, ok := other.fields[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (u GroupUser) copy() GroupUser {
	copied := GroupUser{name: u.name, joinedAt: u.joinedAt}
	if u.lastVisit != nil {
		visited := *u.lastVisit
		copied.lastVisit = &visited
	}
	if len(u.fields) > 0 {
		copied.fields = make(map[field.CustomField]string, len(u.fields))
		for k, v := range u.fields {
			copied.fields[k] = v
		}
	}
	return copied
}
