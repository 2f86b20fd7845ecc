// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
PostgreSQL implementation of the [Storage] contract.

# Architecture

The repository is strictly separated from domain logic. It persists the
group aggregate across three tables (groups, group_members,
group_resources) and the approval workflow in a fourth (requests), and
rebuilds aggregates through the domain builders so every loaded value
passed validation.

# Error Mapping

Storage-specific errors (like pgx.ErrNoRows) are mapped to
domain-friendly [apperr.AppError] types to avoid leaking storage
implementation details. Unique violations on conditional writes are
business conflicts, not faults.
*/

package groups

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/constants"
	"github.com/collabry/groups/internal/platform/dberr"
)

// postgresStorage implements the [Storage] interface using pgx.
type postgresStorage struct {
	pool *pgxpool.Pool
}

// NewStorage constructs a PostgreSQL backed groups store.
func NewStorage(pool *pgxpool.Pool) Storage {
	return &postgresStorage{pool: pool}
}

// # Group Persistence

/*
CreateGroup stores a new group aggregate in one transaction: the group
row, the owner's membership record, and any initial custom fields.

Parameters:
  - ctx: Context for the database operation.
  - g: The validated group aggregate to persist.

Returns:
  - error: apperr.Conflict when the group id is already taken.
*/
func (repository *postgresStorage) CreateGroup(ctx context.Context, g *group.Group) error {
	const groupQuery = `
		INSERT INTO groups (
			id, name, owner, is_private, private_member_list, custom_fields, created_at, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	fieldsJSON, err := fieldsToJSON(g.Fields())
	if err != nil {
		return apperr.Internal(err)
	}

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, groupQuery,
		g.ID().String(),
		g.Name().String(),
		g.Owner().Name().String(),
		g.IsPrivate(),
		g.IsPrivateMemberList(),
		fieldsJSON,
		g.CreatedAt(),
		g.ModifiedAt(),
	)
	if err != nil {
		return dberr.Wrap(err, "Group "+g.ID().String()+" already exists")
	}

	if err := insertMemberRecord(ctx, tx, g.ID(), g.Owner(), "owner"); err != nil {
		return err
	}
	for _, admin := range g.Administrators() {
		if err := insertMemberRecord(ctx, tx, g.ID(), admin, "admin"); err != nil {
			return err
		}
	}
	for _, member := range g.Members() {
		if err := insertMemberRecord(ctx, tx, g.ID(), member, "member"); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

/*
GetGroup loads one group aggregate, membership and resources included.

Returns:
  - *group.Group: the rebuilt aggregate.
  - error: apperr.NotFound when no such group exists.
*/
func (repository *postgresStorage) GetGroup(ctx context.Context, id group.ID) (*group.Group, error) {
	const query = `
		SELECT id, name, owner, is_private, private_member_list, custom_fields, created_at, modified_at
		FROM groups
		WHERE id = $1`

	row := groupRow{}
	err := repository.pool.QueryRow(ctx, query, id.String()).Scan(
		&row.id,
		&row.name,
		&row.owner,
		&row.isPrivate,
		&row.privateMemberList,
		&row.fieldsJSON,
		&row.createdAt,
		&row.modifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Group " + id.String())
		}
		return nil, apperr.Internal(err)
	}

	loaded, err := repository.hydrateGroups(ctx, []groupRow{row})
	if err != nil {
		return nil, err
	}
	return loaded[0], nil
}

// GroupExists reports whether the group id is taken.
func (repository *postgresStorage) GroupExists(ctx context.Context, id group.ID) (bool, error) {
	const query = "SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)"

	var exists bool
	if err := repository.pool.QueryRow(ctx, query, id.String()).Scan(&exists); err != nil {
		return false, apperr.Internal(err)
	}
	return exists, nil
}

/*
GetGroups returns the page of groups visible to the user.

Visibility, role, resource containment, and cursor filters are composed
dynamically; the page is capped at the global list limit.

Parameters:
  - ctx: Context for the database operation.
  - params: GetGroupsParams (sort, cursor, role, resource filters).
  - user: the viewing user, nil for anonymous.

Returns:
  - []*group.Group: at most 100 rebuilt aggregates.
  - error: database execution errors.
*/
func (repository *postgresStorage) GetGroups(ctx context.Context, params GetGroupsParams, user *group.UserName) ([]*group.Group, error) {

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(`
		SELECT g.id, g.name, g.owner, g.is_private, g.private_member_list, g.custom_fields, g.created_at, g.modified_at
		FROM groups g
		WHERE TRUE`)

	// Visibility: public groups plus the user's own.
	if user != nil {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (NOT g.is_private OR EXISTS (SELECT 1 FROM group_members m WHERE m.group_id = g.id AND m.username = $%d))", argID))
		args = append(args, user.String())
		argID++
	} else {
		queryBuilder.WriteString(" AND NOT g.is_private")
	}

	// Role filtering
	if params.Role != group.RoleNone && user != nil {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM group_members m WHERE m.group_id = g.id AND m.username = $%d AND m.member_role = ANY($%d))",
			argID, argID+1))
		args = append(args, user.String(), rolesAtLeast(params.Role))
		argID += 2
	}

	// Resource containment filtering
	if params.ResourceType != nil && params.ResourceID != nil {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM group_resources r WHERE r.group_id = g.id AND r.resource_type = $%d AND r.resource_id = $%d)",
			argID, argID+1))
		args = append(args, params.ResourceType.String(), params.ResourceID.String())
		argID += 2
	}

	// Cursor pagination over the sort key
	direction := ">"
	order := "ASC"
	if !params.SortAscending {
		direction = "<"
		order = "DESC"
	}
	if params.ExcludeUpTo != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND g.id %s $%d", direction, argID))
		args = append(args, params.ExcludeUpTo)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY g.id %s LIMIT %d", order, constants.MaxListCount))

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var loaded []groupRow
	for rows.Next() {
		row := groupRow{}
		if err := rows.Scan(
			&row.id,
			&row.name,
			&row.owner,
			&row.isPrivate,
			&row.privateMemberList,
			&row.fieldsJSON,
			&row.createdAt,
			&row.modifiedAt,
		); err != nil {
			return nil, apperr.Internal(err)
		}
		loaded = append(loaded, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return repository.hydrateGroups(ctx, loaded)
}

/*
UpdateGroup applies the update in place. Custom field changes are a
jsonb merge: non-empty values overwrite, empty values strip the key.
*/
func (repository *postgresStorage) UpdateGroup(ctx context.Context, id group.ID, update GroupUpdate, modified time.Time) error {
	const query = `
		UPDATE groups SET
			name = COALESCE($2, name),
			is_private = COALESCE($3, is_private),
			private_member_list = COALESCE($4, private_member_list),
			custom_fields = (custom_fields || $5::jsonb) - $6::text[],
			modified_at = $7
		WHERE id = $1`

	var name *string
	if update.Name != nil {
		value := update.Name.String()
		name = &value
	}
	setJSON, removals, err := splitFieldUpdate(update.Fields)
	if err != nil {
		return apperr.Internal(err)
	}

	tag, err := repository.pool.Exec(ctx, query,
		id.String(),
		name,
		update.IsPrivate,
		update.PrivateMemberList,
		setJSON,
		removals,
		modified,
	)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Group " + id.String())
	}
	return nil
}

// # Membership Persistence

// AddMember stores a plain member. The primary key makes the insert
// conditional: a duplicate in any role is the membership conflict.
func (repository *postgresStorage) AddMember(ctx context.Context, id group.ID, user group.GroupUser, modified time.Time) error {
	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	if err := insertMemberRecord(ctx, tx, id, user, "member"); err != nil {
		return err
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// RemoveMember removes a plain member. Owners and administrators must be
// demoted first, so the delete is conditional on the role.
func (repository *postgresStorage) RemoveMember(ctx context.Context, id group.ID, user group.UserName, modified time.Time) error {
	const query = `
		DELETE FROM group_members
		WHERE group_id = $1 AND username = $2 AND member_role = 'member'`

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id.String(), user.String())
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User " + user.String() + " in group " + id.String())
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// AddAdmin promotes an existing plain member.
func (repository *postgresStorage) AddAdmin(ctx context.Context, id group.ID, user group.UserName, modified time.Time) error {
	const query = `
		UPDATE group_members SET member_role = 'admin'
		WHERE group_id = $1 AND username = $2 AND member_role = 'member'`

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id.String(), user.String())
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.classifyMissedPromotion(ctx, id, user)
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// DemoteAdmin moves an administrator back to plain membership.
func (repository *postgresStorage) DemoteAdmin(ctx context.Context, id group.ID, user group.UserName, modified time.Time) error {
	const query = `
		UPDATE group_members SET member_role = 'member'
		WHERE group_id = $1 AND username = $2 AND member_role = 'admin'`

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id.String(), user.String())
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Administrator " + user.String() + " in group " + id.String())
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UpdateUser merges custom field changes into a membership record.
func (repository *postgresStorage) UpdateUser(ctx context.Context, id group.ID, user group.UserName, fields map[field.CustomField]string, modified time.Time) error {
	const query = `
		UPDATE group_members SET custom_fields = (custom_fields || $3::jsonb) - $4::text[]
		WHERE group_id = $1 AND username = $2`

	setJSON, removals, err := splitFieldUpdate(fields)
	if err != nil {
		return apperr.Internal(err)
	}

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id.String(), user.String(), setJSON, removals)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User " + user.String() + " in group " + id.String())
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UpdateLastVisit stamps the visit without bumping the group
// modification time: visits are not content changes.
func (repository *postgresStorage) UpdateLastVisit(ctx context.Context, id group.ID, user group.UserName, visited time.Time) error {
	const query = `
		UPDATE group_members SET last_visit = $3
		WHERE group_id = $1 AND username = $2`

	tag, err := repository.pool.Exec(ctx, query, id.String(), user.String(), visited)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User " + user.String() + " in group " + id.String())
	}
	return nil
}

// # Resource Persistence

/*
AddResource attaches a resource. An exact duplicate is a conflict; a row
with a differing administrative id is overwritten, last write wins, so
re-homed resources converge to the current descriptor.
*/
func (repository *postgresStorage) AddResource(ctx context.Context, id group.ID, typ resource.Type, entry group.ResourceEntry, modified time.Time) error {
	const query = `
		INSERT INTO group_resources (group_id, resource_type, resource_id, administrative_id, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, resource_type, resource_id) DO UPDATE
			SET administrative_id = EXCLUDED.administrative_id, added_at = EXCLUDED.added_at
			WHERE group_resources.administrative_id IS DISTINCT FROM EXCLUDED.administrative_id`

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query,
		id.String(),
		typ.String(),
		entry.Descriptor.ID.String(),
		entry.Descriptor.AdministrativeID.String(),
		entry.AddedAt,
	)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("Resource " + typ.String() + "/" + entry.Descriptor.ID.String() +
			" is already in group " + id.String())
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// RemoveResource detaches a resource.
func (repository *postgresStorage) RemoveResource(ctx context.Context, id group.ID, typ resource.Type, rid resource.ID, modified time.Time) error {
	const query = `
		DELETE FROM group_resources
		WHERE group_id = $1 AND resource_type = $2 AND resource_id = $3`

	tx, err := repository.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, id.String(), typ.String(), rid.String())
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Resource " + typ.String() + "/" + rid.String())
	}
	if err := touchGroup(ctx, tx, id, modified); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// # Hydration

// groupRow is the flat groups table projection before hydration.
type groupRow struct {
	id                string
	name              string
	owner             string
	isPrivate         bool
	privateMemberList bool
	fieldsJSON        []byte
	createdAt         time.Time
	modifiedAt        time.Time
}

// memberRow is the flat group_members projection.
type memberRow struct {
	groupID    string
	username   string
	role       string
	joinedAt   time.Time
	lastVisit  *time.Time
	fieldsJSON []byte
}

/*
hydrateGroups rebuilds aggregates for a page of group rows using two
batched queries, one for memberships and one for resources, instead of
per-group round-trips.
*/
func (repository *postgresStorage) hydrateGroups(ctx context.Context, rows []groupRow) ([]*group.Group, error) {
	if len(rows) == 0 {
		return []*group.Group{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.id)
	}

	membersByGroup, err := repository.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	resourcesByGroup, err := repository.loadResources(ctx, ids)
	if err != nil {
		return nil, err
	}

	groups := make([]*group.Group, 0, len(rows))
	for _, row := range rows {
		g, err := buildGroup(row, membersByGroup[row.id], resourcesByGroup[row.id])
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (repository *postgresStorage) loadMembers(ctx context.Context, groupIDs []string) (map[string][]memberRow, error) {
	const query = `
		SELECT group_id, username, member_role, joined_at, last_visit, custom_fields
		FROM group_members
		WHERE group_id = ANY($1)`

	rows, err := repository.pool.Query(ctx, query, groupIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	byGroup := make(map[string][]memberRow)
	for rows.Next() {
		row := memberRow{}
		if err := rows.Scan(&row.groupID, &row.username, &row.role, &row.joinedAt, &row.lastVisit, &row.fieldsJSON); err != nil {
			return nil, apperr.Internal(err)
		}
		byGroup[row.groupID] = append(byGroup[row.groupID], row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return byGroup, nil
}

type resourceRow struct {
	groupID          string
	resourceType     string
	resourceID       string
	administrativeID string
	addedAt          *time.Time
}

func (repository *postgresStorage) loadResources(ctx context.Context, groupIDs []string) (map[string][]resourceRow, error) {
	const query = `
		SELECT group_id, resource_type, resource_id, administrative_id, added_at
		FROM group_resources
		WHERE group_id = ANY($1)`

	rows, err := repository.pool.Query(ctx, query, groupIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	byGroup := make(map[string][]resourceRow)
	for rows.Next() {
		row := resourceRow{}
		if err := rows.Scan(&row.groupID, &row.resourceType, &row.resourceID, &row.administrativeID, &row.addedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		byGroup[row.groupID] = append(byGroup[row.groupID], row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return byGroup, nil
}

// buildGroup runs the stored rows back through the domain builder so a
// corrupted row surfaces as an internal error instead of a bad value.
func buildGroup(row groupRow, members []memberRow, resources []resourceRow) (*group.Group, error) {
	id, err := group.ParseID(row.id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	name, err := group.ParseName(row.name)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var owner group.GroupUser
	ownerFound := false
	for _, m := range members {
		if m.role == "owner" {
			owner, err = buildGroupUser(m)
			if err != nil {
				return nil, err
			}
			ownerFound = true
			break
		}
	}
	if !ownerFound {
		return nil, apperr.Internal(fmt.Errorf("group %s has no owner record", row.id))
	}

	builder := group.NewBuilder(id, name, owner, group.Times{
		CreatedAt:  row.createdAt,
		ModifiedAt: row.modifiedAt,
	}).
		WithIsPrivate(row.isPrivate).
		WithPrivateMemberList(row.privateMemberList)

	for _, m := range members {
		if m.role == "owner" {
			continue
		}
		user, err := buildGroupUser(m)
		if err != nil {
			return nil, err
		}
		if m.role == "admin" {
			builder.WithAdministrator(user)
		} else {
			builder.WithMember(user)
		}
	}

	fields, err := fieldsFromJSON(row.fieldsJSON)
	if err != nil {
		return nil, err
	}
	for f, value := range fields {
		builder.WithCustomField(f, value)
	}

	for _, r := range resources {
		typ, err := resource.ParseType(r.resourceType)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		rid, err := resource.ParseID(r.resourceID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		adminID, err := resource.ParseAdministrativeID(r.administrativeID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		builder.WithResource(typ, group.ResourceEntry{
			Descriptor: resource.NewDescriptor(rid, adminID),
			AddedAt:    r.addedAt,
		})
	}

	g, err := builder.Build()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return g, nil
}

func buildGroupUser(row memberRow) (group.GroupUser, error) {
	name, err := group.ParseUserName(row.username)
	if err != nil {
		return group.GroupUser{}, apperr.Internal(err)
	}
	user := group.NewGroupUser(name, row.joinedAt)
	if row.lastVisit != nil {
		user = user.WithLastVisit(*row.lastVisit)
	}
	fields, err := fieldsFromJSON(row.fieldsJSON)
	if err != nil {
		return group.GroupUser{}, err
	}
	for f, value := range fields {
		user = user.WithField(f, value)
	}
	return user, nil
}

// # Helpers

func insertMemberRecord(ctx context.Context, tx pgx.Tx, id group.ID, user group.GroupUser, role string) error {
	const query = `
		INSERT INTO group_members (group_id, username, member_role, joined_at, last_visit, custom_fields)
		VALUES ($1, $2, $3, $4, $5, $6)`

	fieldsJSON, err := fieldsToJSON(user.Fields())
	if err != nil {
		return apperr.Internal(err)
	}
	_, err = tx.Exec(ctx, query,
		id.String(),
		user.Name().String(),
		role,
		user.JoinedAt(),
		user.LastVisit(),
		fieldsJSON,
	)
	return dberr.Wrap(err, "User "+user.Name().String()+" is already a member of group "+id.String())
}

// touchGroup stamps the aggregate modification time inside the caller's
// transaction.
func touchGroup(ctx context.Context, tx pgx.Tx, id group.ID, modified time.Time) error {
	const query = "UPDATE groups SET modified_at = $2 WHERE id = $1"

	tag, err := tx.Exec(ctx, query, id.String(), modified)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Group " + id.String())
	}
	return nil
}

// classifyMissedPromotion distinguishes "not a member" from "already an
// administrator" after a conditional promotion matched no row.
func (repository *postgresStorage) classifyMissedPromotion(ctx context.Context, id group.ID, user group.UserName) error {
	const query = `
		SELECT member_role FROM group_members
		WHERE group_id = $1 AND username = $2`

	var role string
	err := repository.pool.QueryRow(ctx, query, id.String(), user.String()).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("User " + user.String() + " in group " + id.String())
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return apperr.Conflict("User " + user.String() + " is already an administrator of group " + id.String())
}

// rolesAtLeast maps a minimum role to the stored role labels satisfying
// it.
func rolesAtLeast(role group.Role) []string {
	switch role {
	case group.RoleOwner:
		return []string{"owner"}
	case group.RoleAdmin:
		return []string{"owner", "admin"}
	default:
		return []string{"owner", "admin", "member"}
	}
}

func fieldsToJSON(fields map[field.CustomField]string) ([]byte, error) {
	flat := make(map[string]string, len(fields))
	for f, value := range fields {
		flat[f.String()] = value
	}
	return json.Marshal(flat)
}

func fieldsFromJSON(raw []byte) (map[field.CustomField]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	flat := make(map[string]string)
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, apperr.Internal(err)
	}
	fields := make(map[field.CustomField]string, len(flat))
	for name, value := range flat {
		f, err := field.ParseCustomField(name)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		fields[f] = value
	}
	return fields, nil
}

// splitFieldUpdate partitions a field update into the jsonb merge
// payload and the keys to strip.
func splitFieldUpdate(fields map[field.CustomField]string) ([]byte, []string, error) {
	set := make(map[string]string)
	removals := []string{}
	for f, value := range fields {
		if value == "" {
			removals = append(removals, f.String())
		} else {
			set[f.String()] = value
		}
	}
	setJSON, err := json.Marshal(set)
	if err != nil {
		return nil, nil, err
	}
	return setJSON, removals, nil
}
