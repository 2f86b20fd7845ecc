// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"net/http"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/constants"
	requestutil "github.com/collabry/groups/internal/platform/request"
	"github.com/collabry/groups/internal/platform/respond"
	"github.com/collabry/groups/pkg/pagination"
)

// # Group Endpoints

/*
GET /api/v1/groups.

Description: Lists groups visible to the caller as minimal views.
Anonymous callers see public groups only.

Request:
  - order: string (asc, desc)
  - excludeupto: string (group id cursor)
  - role: string (member, admin, owner; requires authentication)
  - resourcetype + resource: string pair (containment filter)

Response:
  - 200: []groupResponse plus paging meta: At most 100 minimal group views
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, httpRequest *http.Request) {
	query := httpRequest.URL.Query()

	role, err := parseRole(query.Get("role"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	typ, resID, err := parseResourceFilter(query.Get("resourcetype"), query.Get("resource"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	cursor := pagination.FromRequest(httpRequest)
	params := GetGroupsParams{
		SortAscending: cursor.SortAscending,
		ExcludeUpTo:   cursor.ExcludeUpTo,
		Role:          role,
		ResourceType:  typ,
		ResourceID:    resID,
	}

	views, err := handler.service.ListGroups(httpRequest.Context(), requestutil.Token(httpRequest), params)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	responses := make([]groupResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, viewToResponse(view))
	}

	next := ""
	if len(views) > 0 {
		next = views[len(views)-1].GroupID.String()
	}
	respond.Paginated(writer, responses, pagination.NewMeta(len(responses), constants.MaxListCount, next))
}

// createGroupRequest defines the inbound JSON schema for group creation.
type createGroupRequest struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Private           bool              `json:"private"`
	PrivateMemberList *bool             `json:"private_member_list"`
	Fields            map[string]string `json:"fields"`
}

/*
POST /api/v1/groups.

Description: Creates a new group owned by the caller.

Request (Body):
  - createGroupRequest: JSON object

Response:
  - 201: groupResponse: The owner's standard view of the new group
  - 400: Validation: Illegal id, name, or custom field
  - 401: Unauthenticated: Missing or invalid token
  - 409: Conflict: Group id already taken
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	var input createGroupRequest
	if err := requestutil.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	id, err := group.ParseID(input.ID)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	name, err := group.ParseName(input.Name)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	fields, err := parseFieldMap(input.Fields)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	params := CreateGroupParams{
		ID:                id,
		Name:              name,
		IsPrivate:         input.Private,
		PrivateMemberList: true,
		Fields:            fields,
	}
	if input.PrivateMemberList != nil {
		params.PrivateMemberList = *input.PrivateMemberList
	}

	view, err := handler.service.CreateGroup(httpRequest.Context(), token, params)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.Created(writer, viewToResponse(view))
}

/*
GET /api/v1/groups/{groupID}.

Description: Retrieves the caller's role-aware standard view of a group.
Private groups expose only their id to callers without a role.

Response:
  - 200: groupResponse: Success
  - 400: Validation: Illegal group id
  - 404: NotFound: Group not found
*/
func (handler *Handler) getGroup(writer http.ResponseWriter, httpRequest *http.Request) {
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	view, err := handler.service.GetGroup(httpRequest.Context(), requestutil.Token(httpRequest), id)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, viewToResponse(view))
}

// updateGroupRequest defines the inbound JSON schema for partial group
// updates. Absent fields are left unchanged; an empty custom field
// value removes the field.
type updateGroupRequest struct {
	Name              *string           `json:"name"`
	Private           *bool             `json:"private"`
	PrivateMemberList *bool             `json:"private_member_list"`
	Fields            map[string]string `json:"fields"`
}

/*
PATCH /api/v1/groups/{groupID}.

Description: Applies partial updates to a group. Administrators only.

Response:
  - 204: No Content: Success (including no-op updates)
  - 400: Validation: Illegal name or custom field
  - 403: Unauthorized: Caller does not administrate the group
*/
func (handler *Handler) updateGroup(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	var input updateGroupRequest
	if err := requestutil.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	update := GroupUpdate{
		IsPrivate:         input.Private,
		PrivateMemberList: input.PrivateMemberList,
	}
	if input.Name != nil {
		name, err := group.ParseName(*input.Name)
		if err != nil {
			respond.Error(writer, httpRequest, err)
			return
		}
		update.Name = &name
	}
	fields, err := parseFieldMap(input.Fields)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	update.Fields = fields

	if err := handler.service.UpdateGroup(httpRequest.Context(), token, id, update); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}

/*
GET /api/v1/groups/{groupID}/exists.

Description: Reports whether a group id is taken. Public; existence is
not confidential, only content is.

Response:
  - 200: {"exists": bool}
*/
func (handler *Handler) groupExists(writer http.ResponseWriter, httpRequest *http.Request) {
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	exists, err := handler.service.GroupExists(httpRequest.Context(), id)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, map[string]bool{"exists": exists})
}

/*
GET /api/v1/groups/suggestid.

Description: Derives an available group id from a display name. Public
for the same reason as the exists probe.

Request:
  - name: string (the display name to derive from)

Response:
  - 200: {"id": string}
  - 400: Validation: No id can be derived from the name
*/
func (handler *Handler) suggestGroupID(writer http.ResponseWriter, httpRequest *http.Request) {
	id, err := handler.service.SuggestGroupID(httpRequest.Context(), httpRequest.URL.Query().Get("name"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, map[string]string{"id": id})
}

/*
POST /api/v1/groups/{groupID}/visit.

Description: Stamps the caller's last visit to the group. Members only.

Response:
  - 204: No Content: Success
  - 403: Unauthorized: Caller is not a member
*/
func (handler *Handler) visitGroup(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.VisitGroup(httpRequest.Context(), token, id); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}

// # Membership Endpoints

/*
POST /api/v1/groups/{groupID}/membership.

Description: Asks to join the group on the caller's own behalf, opening
an approval request targeting the group's administrators.

Response:
  - 201: requestResponse: The open membership request
  - 409: Conflict: Already a member, or an equivalent open request exists
*/
func (handler *Handler) requestMembership(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	r, err := handler.service.RequestGroupMembership(httpRequest.Context(), token, id)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.Created(writer, requestToResponse(r, []string{ActionCancel}))
}

/*
POST /api/v1/groups/{groupID}/members/{member}.

Description: Invites a user into the group. Administrators only; the
invite must be accepted by the invited user.

Response:
  - 201: requestResponse: The open invite
  - 400: Validation: No such user
  - 403: Unauthorized: Caller does not administrate the group
  - 409: Conflict: Already a member, or an equivalent open invite exists
*/
func (handler *Handler) inviteUser(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	invitee, err := group.ParseUserName(requestutil.Param(httpRequest, "member"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	r, err := handler.service.InviteUserToGroup(httpRequest.Context(), token, id, invitee)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.Created(writer, requestToResponse(r, []string{ActionCancel}))
}

/*
DELETE /api/v1/groups/{groupID}/members/{member}.

Description: Removes a plain member. Members may remove themselves;
administrators may remove any plain member.

Response:
  - 204: No Content: Success
  - 403: Unauthorized: Caller may not remove this member
  - 404: NotFound: User is not a plain member
*/
func (handler *Handler) removeMember(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	member, err := group.ParseUserName(requestutil.Param(httpRequest, "member"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.RemoveMember(httpRequest.Context(), token, id, member); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}

// updateUserFieldsRequest defines the inbound JSON schema for per-user
// custom field updates.
type updateUserFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

/*
PATCH /api/v1/groups/{groupID}/members/{member}.

Description: Updates a membership record's custom fields. Members may
update their own user-settable fields; administrators may update any
member's fields.

Response:
  - 204: No Content: Success
  - 400: Validation: Illegal field or value
  - 403: Unauthorized: Caller may not update this member's fields
*/
func (handler *Handler) updateUserFields(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	member, err := group.ParseUserName(requestutil.Param(httpRequest, "member"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	var input updateUserFieldsRequest
	if err := requestutil.DecodeJSON(httpRequest, &input); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	fields, err := parseFieldMap(input.Fields)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.UpdateUserFields(httpRequest.Context(), token, id, member, fields); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}

/*
PUT /api/v1/groups/{groupID}/members/{member}/admin.

Description: Promotes a plain member to administrator. Owner only.

Response:
  - 204: No Content: Success
  - 400: Validation: Target is not a plain member
  - 403: Unauthorized: Caller is not the owner
*/
func (handler *Handler) promoteMember(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	member, err := group.ParseUserName(requestutil.Param(httpRequest, "member"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.PromoteMember(httpRequest.Context(), token, id, member); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}

/*
DELETE /api/v1/groups/{groupID}/members/{member}/admin.

Description: Demotes an administrator to plain membership. The owner may
demote any administrator; administrators may demote themselves.

Response:
  - 204: No Content: Success
  - 403: Unauthorized: Caller may not demote this administrator
  - 404: NotFound: User is not an administrator
*/
func (handler *Handler) demoteAdmin(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	admin, err := group.ParseUserName(requestutil.Param(httpRequest, "member"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.DemoteAdmin(httpRequest.Context(), token, id, admin); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}

// # Resource Endpoints

/*
POST /api/v1/groups/{groupID}/resources/{type}/{resourceID}.

Description: Attaches a resource to the group, or opens an approval
request when the caller administrates only one side.

Response:
  - 201: requestResponse: The open request, when approval is needed
  - 204: No Content: Immediate attachment (caller administrates both sides)
  - 403: Unauthorized: Caller administrates neither side
  - 404: NotFound: No such resource or resource type
  - 409: Conflict: Resource already attached, or an open request exists
*/
func (handler *Handler) addResource(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	typ, err := resource.ParseType(requestutil.Param(httpRequest, "type"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	resID, err := resource.ParseID(requestutil.Param(httpRequest, "resourceID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	r, err := handler.service.AddResource(httpRequest.Context(), token, id, typ, resID)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	if r == nil {
		respond.NoContent(writer)
		return
	}
	respond.Created(writer, requestToResponse(*r, []string{ActionCancel}))
}

/*
DELETE /api/v1/groups/{groupID}/resources/{type}/{resourceID}.

Description: Detaches a resource. A group administrator or an
administrator of the resource itself may remove it.

Response:
  - 204: No Content: Success
  - 403: Unauthorized: Caller administrates neither side
  - 404: NotFound: Resource is not attached
*/
func (handler *Handler) removeResource(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := group.ParseID(requestutil.Param(httpRequest, "groupID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	typ, err := resource.ParseType(requestutil.Param(httpRequest, "type"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	resID, err := resource.ParseID(requestutil.Param(httpRequest, "resourceID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.RemoveResource(httpRequest.Context(), token, id, typ, resID); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}
