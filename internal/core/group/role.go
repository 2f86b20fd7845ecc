// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group

// Role is a viewer's authority level within one group. Higher roles
// subsume lower ones for comparison purposes.
type Role int

const (
	RoleNone Role = iota
	RoleMember
	RoleAdmin
	RoleOwner
)

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	default:
		return "none"
	}
}

// AtLeast reports whether the role grants at least the given authority.
func (r Role) AtLeast(other Role) bool { return r >= other }
