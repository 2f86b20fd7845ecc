// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package group

import (
	"time"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/resource"
)

// # Field Visibility

// FieldResolver answers the visibility questions for custom fields,
// separately for group-level and per-user fields. Implemented by the
// field validator configuration.
type FieldResolver interface {
	IsPublic(f field.CustomField) bool
	IsMinimalView(f field.CustomField) bool
	IsUserPublic(f field.CustomField) bool
	IsUserMinimalView(f field.CustomField) bool
}

// # View Projection

// MemberView is one member's record as exposed to a particular viewer.
// Join and visit times degrade with the viewer's role.
type MemberView struct {
	Name      UserName
	JoinedAt  *time.Time // nil for viewers without a role
	LastVisit *time.Time // only set for administrator viewers
	Fields    map[field.CustomField]string
}

// View is a role-aware projection of one group. It is built fresh per
// request by [ViewGroup] and never persisted. Nil pointer fields mean
// "absent for this viewer".
type View struct {
	GroupID        ID
	Role           Role
	IsPrivateView  bool
	IsStandardView bool
	IsPrivate      bool

	Name       *Name
	Owner      *UserName
	CreatedAt  *time.Time
	ModifiedAt *time.Time

	MemberCount *int
	LastVisit   *time.Time

	// IsPrivateMemberList is only populated in standard views.
	IsPrivateMemberList *bool

	CustomFields map[field.CustomField]string

	// Admins and Members carry identity lists for standard views.
	// MemberInfo holds the per-user detail records keyed by name.
	Admins     []UserName
	Members    []UserName
	MemberInfo map[UserName]MemberView

	// ResourceCounts covers every attached type; Resources carries the
	// handler-fetched information for the types the caller resolved.
	ResourceCounts map[resource.Type]int
	Resources      map[resource.Type]resource.InformationSet

	// ResourceAddedAt exposes attachment times, members only.
	ResourceAddedAt map[resource.Type]map[resource.ID]*time.Time
}

// ViewGroup projects a group for one viewer.
//
// A nil viewer is an anonymous request. resourceInfo arrives pre-fetched
// by the orchestrator with the access level already matching the
// viewer's role; it is attached verbatim.
//
// The private short-circuit comes first: a private group viewed without
// a role exposes nothing but the group id (and any administrated
// resources already present in resourceInfo).
func ViewGroup(
	g *Group,
	viewer *UserName,
	standard bool,
	fields FieldResolver,
	resourceInfo map[resource.Type]resource.InformationSet,
) View {
	role := RoleNone
	if viewer != nil {
		role = g.Role(*viewer)
	}

	view := View{
		GroupID:        g.ID(),
		Role:           role,
		IsStandardView: standard,
		IsPrivate:      g.IsPrivate(),
		Resources:      copyResourceInfo(resourceInfo),
	}

	if g.IsPrivate() && role == RoleNone {
		view.IsPrivateView = true
		return view
	}

	count := g.MemberCount()
	view.MemberCount = &count
	view.ResourceCounts = make(map[resource.Type]int)
	for _, typ := range g.ResourceTypes() {
		entries, err := g.Resources(typ)
		if err != nil {
			continue
		}
		view.ResourceCounts[typ] = len(entries)
	}

	createdAt := g.CreatedAt()
	modifiedAt := g.ModifiedAt()
	view.CreatedAt = &createdAt
	view.ModifiedAt = &modifiedAt

	// Group identity stays hidden from viewers without a role. Viewers
	// find groups through listings and counts; names and owners are
	// membership-gated.
	if role != RoleNone {
		name := g.Name()
		owner := g.Owner().Name()
		view.Name = &name
		view.Owner = &owner

		if record, ok := g.Member(*viewer); ok {
			view.LastVisit = record.LastVisit()
		}
		view.ResourceAddedAt = resourceAddedTimes(g)
	}

	view.CustomFields = filterFields(g.Fields(), role, standard,
		fields.IsPublic, fields.IsMinimalView)

	if !standard {
		return view
	}

	privateMembers := g.IsPrivateMemberList()
	view.IsPrivateMemberList = &privateMembers
	view.MemberInfo = make(map[UserName]MemberView)

	for _, admin := range g.Administrators() {
		view.Admins = append(view.Admins, admin.Name())
	}

	viewerIsAdmin := viewer != nil && g.IsAdministrator(*viewer)

	if role == RoleNone && privateMembers {
		// Hidden member list: only the administration is identified.
		for _, name := range g.AdministratorsAndOwner() {
			record, _ := g.Member(name)
			view.MemberInfo[name] = memberView(record, role, viewerIsAdmin, standard, fields)
		}
		return view
	}

	for _, member := range g.Members() {
		view.Members = append(view.Members, member.Name())
	}
	ownerRecord := g.Owner()
	view.MemberInfo[ownerRecord.Name()] = memberView(ownerRecord, role, viewerIsAdmin, standard, fields)
	for _, admin := range g.Administrators() {
		view.MemberInfo[admin.Name()] = memberView(admin, role, viewerIsAdmin, standard, fields)
	}
	for _, member := range g.Members() {
		view.MemberInfo[member.Name()] = memberView(member, role, viewerIsAdmin, standard, fields)
	}
	return view
}

// memberView filters one membership record for the viewer. Per-user
// fields never appear in minimal views.
func memberView(record GroupUser, role Role, viewerIsAdmin, standard bool, fields FieldResolver) MemberView {
	mv := MemberView{
		Name: record.Name(),
		Fields: filterFields(record.Fields(), role, standard,
			fields.IsUserPublic, fieldNever),
	}
	if role != RoleNone {
		joined := record.JoinedAt()
		mv.JoinedAt = &joined
	}
	if viewerIsAdmin {
		mv.LastVisit = record.LastVisit()
	}
	return mv
}

// filterFields applies the inclusion rule: a field appears iff it is
// public or the viewer has a role, and it is minimal-view-eligible or
// the view is standard.
func filterFields(
	all map[field.CustomField]string,
	role Role,
	standard bool,
	isPublic func(field.CustomField) bool,
	isMinimal func(field.CustomField) bool,
) map[field.CustomField]string {
	out := make(map[field.CustomField]string)
	for f, value := range all {
		if (isPublic(f) || role != RoleNone) && (isMinimal(f) || standard) {
			out[f] = value
		}
	}
	return out
}

func fieldNever(field.CustomField) bool { return false }

func copyResourceInfo(info map[resource.Type]resource.InformationSet) map[resource.Type]resource.InformationSet {
	out := make(map[resource.Type]resource.InformationSet, len(info))
	for typ, set := range info {
		out[typ] = set
	}
	return out
}

func resourceAddedTimes(g *Group) map[resource.Type]map[resource.ID]*time.Time {
	out := make(map[resource.Type]map[resource.ID]*time.Time)
	for _, typ := range g.ResourceTypes() {
		entries, err := g.Resources(typ)
		if err != nil {
			continue
		}
		inner := make(map[resource.ID]*time.Time, len(entries))
		for _, entry := range entries {
			inner[entry.Descriptor.ID] = entry.AddedAt
		}
		out[typ] = inner
	}
	return out
}
