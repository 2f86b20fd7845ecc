// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/constants"
	"github.com/collabry/groups/internal/platform/dberr"
)

const requestColumns = `id, group_id, requester, kind, resource_type, resource_id,
	resource_administrative_id, status, closed_by, reason, created_at, modified_at, expires_at`

// # Request Persistence

/*
StoreRequest stores a new request.

A partial unique index over the characteristic tuple (group, kind,
resource type, resource id) where the status is open makes the insert
conditional: an equivalent open request already in flight is a conflict.
*/
func (repository *postgresStorage) StoreRequest(ctx context.Context, r request.Request) error {
	const query = `
		INSERT INTO requests (
			id, group_id, requester, kind, resource_type, resource_id,
			resource_administrative_id, status, closed_by, reason, created_at, modified_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var closedBy *string
	if by := r.Status().ClosedBy(); by != nil {
		value := by.String()
		closedBy = &value
	}

	_, err := repository.pool.Exec(ctx, query,
		r.ID().String(),
		r.GroupID().String(),
		r.Requester().String(),
		r.Kind().String(),
		r.ResourceType().String(),
		r.Resource().ID.String(),
		r.Resource().AdministrativeID.String(),
		r.Status().Code().String(),
		closedBy,
		r.Status().Reason(),
		r.CreatedAt(),
		r.ModifiedAt(),
		r.ExpiresAt(),
	)
	return dberr.Wrap(err, "An equivalent open request already exists")
}

// GetRequest loads one request.
func (repository *postgresStorage) GetRequest(ctx context.Context, id request.ID) (request.Request, error) {
	query := fmt.Sprintf("SELECT %s FROM requests WHERE id = $1", requestColumns)

	row := repository.pool.QueryRow(ctx, query, id.String())
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.Request{}, apperr.NotFound("Request " + id.String())
		}
		return request.Request{}, err
	}
	return r, nil
}

/*
GetRequestsByRequester lists the requests a user created, open only by
default, capped at the global list limit.
*/
func (repository *postgresStorage) GetRequestsByRequester(ctx context.Context, user group.UserName, params request.GetRequestsParams) ([]request.Request, error) {

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf("SELECT %s FROM requests WHERE requester = $%d", requestColumns, argID))
	args = append(args, user.String())
	argID++

	appendRequestFilters(&queryBuilder, &args, &argID, params)
	return repository.queryRequests(ctx, queryBuilder.String(), args)
}

/*
GetRequestsByTarget lists the requests a user must act on: invites
addressed to them directly, plus approval requests against any of the
administrative ids they control.

Parameters:
  - ctx: Context for the database operation.
  - user: the target user.
  - admined: administrative ids the user controls, keyed by type.
  - params: request.GetRequestsParams.

Returns:
  - []request.Request: at most 100 requests.
  - error: database execution errors.
*/
func (repository *postgresStorage) GetRequestsByTarget(ctx context.Context, user group.UserName, admined map[resource.Type][]resource.AdministrativeID, params request.GetRequestsParams) ([]request.Request, error) {

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(
		"SELECT %s FROM requests WHERE ((kind = 'invite' AND resource_type = 'user' AND resource_id = $%d)",
		requestColumns, argID))
	args = append(args, user.String())
	argID++

	for typ, ids := range admined {
		flat := make([]string, 0, len(ids))
		for _, id := range ids {
			flat = append(flat, id.String())
		}
		queryBuilder.WriteString(fmt.Sprintf(
			" OR (kind = 'request' AND resource_type = $%d AND resource_administrative_id = ANY($%d))",
			argID, argID+1))
		args = append(args, typ.String(), flat)
		argID += 2
	}
	queryBuilder.WriteString(")")

	appendRequestFilters(&queryBuilder, &args, &argID, params)
	return repository.queryRequests(ctx, queryBuilder.String(), args)
}

// GetRequestsByGroup lists the requests targeting a group's
// administration: membership asks and resource offers.
func (repository *postgresStorage) GetRequestsByGroup(ctx context.Context, id group.ID, params request.GetRequestsParams) ([]request.Request, error) {

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(
		`SELECT %s FROM requests WHERE group_id = $%d
			AND ((kind = 'request' AND resource_type = 'user') OR (kind = 'invite' AND resource_type <> 'user'))`,
		requestColumns, argID))
	args = append(args, id.String())
	argID++

	appendRequestFilters(&queryBuilder, &args, &argID, params)
	return repository.queryRequests(ctx, queryBuilder.String(), args)
}

/*
CloseRequest transitions one open request to a terminal status.

The update is conditional on the open state, so concurrent transitions
collapse to exactly one winner; the losers observe the closed-request
conflict.
*/
func (repository *postgresStorage) CloseRequest(ctx context.Context, id request.ID, status request.Status, modified time.Time) error {
	const query = `
		UPDATE requests SET status = $2, closed_by = $3, reason = $4, modified_at = $5
		WHERE id = $1 AND status = 'open'`

	if status.IsOpen() {
		return apperr.Internal(errors.New("close requires a terminal status"))
	}
	var closedBy *string
	if by := status.ClosedBy(); by != nil {
		value := by.String()
		closedBy = &value
	}

	tag, err := repository.pool.Exec(ctx, query,
		id.String(),
		status.Code().String(),
		closedBy,
		status.Reason(),
		modified,
	)
	if err != nil {
		return apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.classifyMissedClose(ctx, id)
	}
	return nil
}

// ExpireRequests flips open requests whose horizon passed.
func (repository *postgresStorage) ExpireRequests(ctx context.Context, now time.Time) (int, error) {
	const query = `
		UPDATE requests SET status = 'expired', modified_at = $1
		WHERE status = 'open' AND expires_at < $1`

	tag, err := repository.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return int(tag.RowsAffected()), nil
}

// # Helpers

// appendRequestFilters composes the shared status, cursor, resource,
// order, and limit clauses of request listings.
func appendRequestFilters(queryBuilder *strings.Builder, args *[]any, argID *int, params request.GetRequestsParams) {
	if !params.IncludeClosed {
		queryBuilder.WriteString(" AND status = 'open'")
	}

	direction := ">"
	order := "ASC"
	if params.Sort == request.SortDescending {
		direction = "<"
		order = "DESC"
	}
	if params.ExcludeUpTo != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND created_at %s $%d", direction, *argID))
		*args = append(*args, *params.ExcludeUpTo)
		*argID++
	}

	if params.ResourceType != nil && params.ResourceID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND resource_type = $%d AND resource_id = $%d", *argID, *argID+1))
		*args = append(*args, params.ResourceType.String(), params.ResourceID.String())
		*argID += 2
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at %s, id LIMIT %d", order, constants.MaxListCount))
}

func (repository *postgresStorage) queryRequests(ctx context.Context, query string, args []any) ([]request.Request, error) {
	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	requests := []request.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return requests, nil
}

// scanRequest rebuilds a request through the domain constructors so a
// corrupted row surfaces as an internal error instead of a bad value.
func scanRequest(row pgx.Row) (request.Request, error) {
	var (
		id, groupID, requester, kind              string
		resourceType, resourceID, adminID, status string
		closedBy                                  *string
		reason                                    string
		createdAt, modifiedAt, expiresAt          time.Time
	)
	err := row.Scan(
		&id, &groupID, &requester, &kind,
		&resourceType, &resourceID, &adminID, &status,
		&closedBy, &reason, &createdAt, &modifiedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.Request{}, err
		}
		return request.Request{}, apperr.Internal(err)
	}

	parsedID, err := request.ParseID(id)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedGroupID, err := group.ParseID(groupID)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedRequester, err := group.ParseUserName(requester)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedKind, err := request.ParseKind(kind)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedType, err := resource.ParseType(resourceType)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedResourceID, err := resource.ParseID(resourceID)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedAdminID, err := resource.ParseAdministrativeID(adminID)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	parsedCode, err := request.ParseStatusCode(status)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	var parsedClosedBy *group.UserName
	if closedBy != nil {
		name, err := group.ParseUserName(*closedBy)
		if err != nil {
			return request.Request{}, apperr.Internal(err)
		}
		parsedClosedBy = &name
	}

	r, err := request.New(
		parsedID,
		parsedGroupID,
		parsedRequester,
		parsedKind,
		parsedType,
		resource.NewDescriptor(parsedResourceID, parsedAdminID),
		request.StatusFromParts(parsedCode, parsedClosedBy, reason),
		request.Times{CreatedAt: createdAt, ModifiedAt: modifiedAt, ExpiresAt: expiresAt},
	)
	if err != nil {
		return request.Request{}, apperr.Internal(err)
	}
	return r, nil
}

// classifyMissedClose distinguishes a missing request from one already
// closed after a conditional transition matched no row.
func (repository *postgresStorage) classifyMissedClose(ctx context.Context, id request.ID) error {
	const query = "SELECT status FROM requests WHERE id = $1"

	var status string
	err := repository.pool.QueryRow(ctx, query, id.String()).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Request " + id.String())
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return apperr.Conflict("The request is closed")
}
