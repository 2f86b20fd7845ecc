// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package groups

import (
	"net/http"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	requestutil "github.com/collabry/groups/internal/platform/request"
	"github.com/collabry/groups/internal/platform/respond"
)

// # Request Endpoints

/*
GET /api/v1/requests/{requestID}.

Description: Retrieves one workflow request with the caller's permitted
actions. Only the creator and the target may view a request.

Response:
  - 200: requestResponse: Success
  - 403: Unauthorized: Caller is neither creator nor target
  - 404: NotFound: Request not found
*/
func (handler *Handler) getRequest(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := request.ParseID(requestutil.Param(httpRequest, "requestID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	loaded, err := handler.service.GetRequest(httpRequest.Context(), token, id)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, requestToResponse(loaded.Request, loaded.Actions))
}

/*
GET /api/v1/requests/created.

Description: Lists the requests the caller created, open only by
default.

Request:
  - order: string (asc, desc)
  - closed: flag (include terminal requests)
  - excludeupto: string (RFC 3339 creation time cursor)
  - resourcetype + resource: string pair (target filter)

Response:
  - 200: []requestResponse plus paging meta: At most 100 requests
*/
func (handler *Handler) listCreatedRequests(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	params, err := parseRequestListParams(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	loaded, err := handler.service.ListRequestsForRequester(httpRequest.Context(), token, params)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respondRequestList(writer, loaded)
}

/*
GET /api/v1/requests/targeted.

Description: Lists the requests the caller must act on: invites
addressed to them plus requests touching resources they administrate.

Response:
  - 200: []requestResponse plus paging meta: At most 100 requests
  - 502: Unavailable: A resource service could not be reached
*/
func (handler *Handler) listTargetedRequests(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	params, err := parseRequestListParams(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	loaded, err := handler.service.ListRequestsForTarget(httpRequest.Context(), token, params)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respondRequestList(writer, loaded)
}

/*
GET /api/v1/groups/{groupID}/requests.

Description: Lists the requests targeting a group's administration.
Administrators only.

Response:
  - 200: []requestResponse plus paging meta: At most 100 requests
  - 403: Unauthorized: Caller does not administrate the group
*/
func (handler *Handler) listGroupRequests(writer http.ResponseWriter, httpRequest *http.Request) {
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
	params, err := parseRequestListParams(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	loaded, err := handler.service.ListRequestsForGroup(httpRequest.Context(), token, id, params)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respondRequestList(writer, loaded)
}

// # Transition Endpoints

/*
PUT /api/v1/requests/{requestID}/accept.

Description: Accepts an open request, applying its effect. Target only.

Response:
  - 200: requestResponse: The closed request
  - 403: Unauthorized: Caller is not the target
  - 409: Conflict: Request is closed or expired
*/
func (handler *Handler) acceptRequest(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := request.ParseID(requestutil.Param(httpRequest, "requestID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	r, err := handler.service.AcceptRequest(httpRequest.Context(), token, id)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, requestToResponse(r, nil))
}

// denyRequestBody carries the optional denial reason.
type denyRequestBody struct {
	Reason string `json:"reason"`
}

/*
PUT /api/v1/requests/{requestID}/deny.

Description: Denies an open request with an optional bounded reason.
Target only.

Request (Body):
  - reason: string (optional, at most 500 characters)

Response:
  - 200: requestResponse: The closed request
  - 400: Validation: Reason too long
  - 403: Unauthorized: Caller is not the target
  - 409: Conflict: Request is closed or expired
*/
func (handler *Handler) denyRequest(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := request.ParseID(requestutil.Param(httpRequest, "requestID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	// The body is optional; a missing or empty body means no reason.
	var input denyRequestBody
	if httpRequest.Body != nil && httpRequest.ContentLength != 0 {
		if err := requestutil.DecodeJSON(httpRequest, &input); err != nil {
			respond.Error(writer, httpRequest, err)
			return
		}
	}

	r, err := handler.service.DenyRequest(httpRequest.Context(), token, id, input.Reason)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, requestToResponse(r, nil))
}

/*
PUT /api/v1/requests/{requestID}/cancel.

Description: Cancels an open request. Creator only.

Response:
  - 200: requestResponse: The closed request
  - 403: Unauthorized: Caller is not the creator
  - 409: Conflict: Request is closed or expired
*/
func (handler *Handler) cancelRequest(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := request.ParseID(requestutil.Param(httpRequest, "requestID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	r, err := handler.service.CancelRequest(httpRequest.Context(), token, id)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.OK(writer, requestToResponse(r, nil))
}

/*
POST /api/v1/requests/{requestID}/perm.

Description: Grants the caller read access to the resource named by an
open approval request so they can evaluate it. Group administrators
only; non-user resources only.

Response:
  - 204: No Content: Success
  - 400: Validation: Request does not name an approvable resource
  - 403: Unauthorized: Caller does not administrate the group
  - 409: Conflict: Request is closed
*/
func (handler *Handler) setReadPermission(writer http.ResponseWriter, httpRequest *http.Request) {
	token, err := requestutil.RequiredToken(httpRequest)
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	id, err := request.ParseID(requestutil.Param(httpRequest, "requestID"))
	if err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}

	if err := handler.service.SetReadPermission(httpRequest.Context(), token, id); err != nil {
		respond.Error(writer, httpRequest, err)
		return
	}
	respond.NoContent(writer)
}
