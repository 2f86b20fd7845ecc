// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
HTTP interface for the groups service.

The handler translates between the web/JSON layer and the domain
[Service]. Authorization is not decided here: every endpoint forwards
the raw bearer token and the core resolves it, so anonymous and
authenticated requests flow through the same paths.

# Routing Strategy

  - /groups: discovery plus group, membership, and resource management.
  - /requests: the approval workflow inbox and transitions.
*/

package groups

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/constants"
	"github.com/collabry/groups/internal/platform/respond"
	"github.com/collabry/groups/pkg/pagination"
	"github.com/collabry/groups/pkg/pointer"
	"github.com/collabry/groups/pkg/slice"
)

// # Handler Implementation

// Handler implements the HTTP layer for group management and the
// approval workflow.
type Handler struct {
	service *Service
}

// NewHandler constructs a new groups [Handler] with its service
// dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GroupRoutes returns a [chi.Router] with the /groups endpoints.
func (handler *Handler) GroupRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Discovery
	router.Get("/", handler.listGroups)
	router.Post("/", handler.createGroup)
	router.Get("/suggestid", handler.suggestGroupID)
	router.Get("/{groupID}", handler.getGroup)
	router.Patch("/{groupID}", handler.updateGroup)
	router.Get("/{groupID}/exists", handler.groupExists)
	router.Post("/{groupID}/visit", handler.visitGroup)

	// ## Membership
	router.Post("/{groupID}/membership", handler.requestMembership)
	router.Post("/{groupID}/members/{member}", handler.inviteUser)
	router.Delete("/{groupID}/members/{member}", handler.removeMember)
	router.Patch("/{groupID}/members/{member}", handler.updateUserFields)
	router.Put("/{groupID}/members/{member}/admin", handler.promoteMember)
	router.Delete("/{groupID}/members/{member}/admin", handler.demoteAdmin)

	// ## Resources
	router.Post("/{groupID}/resources/{type}/{resourceID}", handler.addResource)
	router.Delete("/{groupID}/resources/{type}/{resourceID}", handler.removeResource)

	// ## Workflow
	router.Get("/{groupID}/requests", handler.listGroupRequests)

	return router
}

// RequestRoutes returns a [chi.Router] with the /requests endpoints.
func (handler *Handler) RequestRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/created", handler.listCreatedRequests)
	router.Get("/targeted", handler.listTargetedRequests)

	router.Get("/{requestID}", handler.getRequest)
	router.Put("/{requestID}/accept", handler.acceptRequest)
	router.Put("/{requestID}/deny", handler.denyRequest)
	router.Put("/{requestID}/cancel", handler.cancelRequest)
	router.Post("/{requestID}/perm", handler.setReadPermission)

	return router
}

// # Wire Projections

// memberResponse is one membership record as exposed to the caller.
type memberResponse struct {
	Name      string            `json:"name"`
	JoinedAt  *time.Time        `json:"joined_at,omitempty"`
	LastVisit *time.Time        `json:"last_visit,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// attachedResource is one resource entry merged with any
// handler-provided information fields.
type attachedResource struct {
	ID      string         `json:"id"`
	AddedAt *time.Time     `json:"added_at,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// groupResponse is the role-aware JSON projection of a group view. Nil
// pointers marshal as absent, mirroring the view's "absent for this
// viewer" semantics.
type groupResponse struct {
	ID          string `json:"id"`
	Private     bool   `json:"private"`
	Role        string `json:"role"`
	PrivateView bool   `json:"private_view,omitempty"`

	Name  *string `json:"name,omitempty"`
	Owner *string `json:"owner,omitempty"`

	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`

	MemberCount *int       `json:"member_count,omitempty"`
	LastVisit   *time.Time `json:"last_visit,omitempty"`

	PrivateMemberList *bool `json:"private_member_list,omitempty"`

	Fields map[string]string `json:"fields,omitempty"`

	Admins  []string                  `json:"admins,omitempty"`
	Members []string                  `json:"members,omitempty"`
	People  map[string]memberResponse `json:"people,omitempty"`

	ResourceCounts map[string]int                `json:"resource_counts,omitempty"`
	Resources      map[string][]attachedResource `json:"resources,omitempty"`
}

// requestResponse is the JSON projection of a workflow request plus the
// caller's permitted actions.
type requestResponse struct {
	ID           string     `json:"id"`
	GroupID      string     `json:"group_id"`
	Requester    string     `json:"requester"`
	Kind         string     `json:"kind"`
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	Status       string     `json:"status"`
	ClosedBy     *string    `json:"closed_by,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Actions      []string   `json:"actions,omitempty"`
}

func viewToResponse(view group.View) groupResponse {
	response := groupResponse{
		ID:          view.GroupID.String(),
		Private:     view.IsPrivate,
		Role:        view.Role.String(),
		PrivateView: view.IsPrivateView,
		CreatedAt:   view.CreatedAt,
		ModifiedAt:  view.ModifiedAt,
		MemberCount: view.MemberCount,
		LastVisit:   view.LastVisit,

		PrivateMemberList: view.IsPrivateMemberList,
	}
	if view.Name != nil {
		response.Name = pointer.To(view.Name.String())
	}
	if view.Owner != nil {
		response.Owner = pointer.To(view.Owner.String())
	}

	if len(view.CustomFields) > 0 {
		response.Fields = make(map[string]string, len(view.CustomFields))
		for f, value := range view.CustomFields {
			response.Fields[f.String()] = value
		}
	}

	response.Admins = slice.Map(view.Admins, group.UserName.String)
	response.Members = slice.Map(view.Members, group.UserName.String)
	if len(view.MemberInfo) > 0 {
		response.People = make(map[string]memberResponse, len(view.MemberInfo))
		for name, info := range view.MemberInfo {
			entry := memberResponse{
				Name:      info.Name.String(),
				JoinedAt:  info.JoinedAt,
				LastVisit: info.LastVisit,
			}
			if len(info.Fields) > 0 {
				entry.Fields = make(map[string]string, len(info.Fields))
				for f, value := range info.Fields {
					entry.Fields[f.String()] = value
				}
			}
			response.People[name.String()] = entry
		}
	}

	if len(view.ResourceCounts) > 0 {
		response.ResourceCounts = make(map[string]int, len(view.ResourceCounts))
		for typ, count := range view.ResourceCounts {
			response.ResourceCounts[typ.String()] = count
		}
	}
	if len(view.Resources) > 0 {
		response.Resources = make(map[string][]attachedResource, len(view.Resources))
		for typ, set := range view.Resources {
			var added map[resource.ID]*time.Time
			if view.ResourceAddedAt != nil {
				added = view.ResourceAddedAt[typ]
			}
			var entries []attachedResource
			for _, id := range set.Resources() {
				entry := attachedResource{ID: id.String()}
				if fields, ok := set.Fields(id); ok && len(fields) > 0 {
					entry.Fields = fields
				}
				if added != nil {
					entry.AddedAt = added[id]
				}
				entries = append(entries, entry)
			}
			response.Resources[typ.String()] = entries
		}
	}
	return response
}

func requestToResponse(r request.Request, actions []string) requestResponse {
	response := requestResponse{
		ID:           r.ID().String(),
		GroupID:      r.GroupID().String(),
		Requester:    r.Requester().String(),
		Kind:         r.Kind().String(),
		ResourceType: r.ResourceType().String(),
		ResourceID:   r.Resource().ID.String(),
		Status:       r.Status().Code().String(),
		Reason:       r.Status().Reason(),
		CreatedAt:    r.CreatedAt(),
		ModifiedAt:   r.ModifiedAt(),
		ExpiresAt:    r.ExpiresAt(),
		Actions:      actions,
	}
	if by := r.Status().ClosedBy(); by != nil {
		response.ClosedBy = pointer.To(by.String())
	}
	return response
}

func requestsToResponse(loaded []RequestWithActions) []requestResponse {
	responses := make([]requestResponse, 0, len(loaded))
	for _, item := range loaded {
		responses = append(responses, requestToResponse(item.Request, item.Actions))
	}
	return responses
}

// respondRequestList writes a request window with its paging metadata.
// The cursor key is the creation time of the last request in the window.
func respondRequestList(writer http.ResponseWriter, loaded []RequestWithActions) {
	next := ""
	if len(loaded) > 0 {
		next = loaded[len(loaded)-1].Request.CreatedAt().Format(time.RFC3339)
	}
	respond.Paginated(writer, requestsToResponse(loaded),
		pagination.NewMeta(len(loaded), constants.MaxListCount, next))
}

// # Parameter Parsing

func parseFieldMap(raw map[string]string) (map[field.CustomField]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	fields := make(map[field.CustomField]string, len(raw))
	for name, value := range raw {
		f, err := field.ParseCustomField(name)
		if err != nil {
			return nil, err
		}
		fields[f] = value
	}
	return fields, nil
}

func parseRole(role string) (group.Role, error) {
	switch role {
	case "", "none":
		return group.RoleNone, nil
	case "member":
		return group.RoleMember, nil
	case "admin":
		return group.RoleAdmin, nil
	case "owner":
		return group.RoleOwner, nil
	default:
		return group.RoleNone, apperr.ValidationError("Illegal role",
			apperr.FieldError{Field: "role", Message: "must be none, member, admin or owner"})
	}
}

// parseRequestListParams reads the shared request listing query
// parameters: order, closed, the creation time cursor, and the optional
// resource filter.
func parseRequestListParams(httpRequest *http.Request) (request.GetRequestsParams, error) {
	query := httpRequest.URL.Query()
	params := request.GetRequestsParams{}

	cursor := pagination.FromRequest(httpRequest)
	if !cursor.SortAscending {
		params.Sort = request.SortDescending
	}
	if query.Has("closed") {
		params.IncludeClosed = true
	}
	if cursor.ExcludeUpTo != "" {
		at, err := time.Parse(time.RFC3339, cursor.ExcludeUpTo)
		if err != nil {
			return params, apperr.ValidationError("Illegal cursor",
				apperr.FieldError{Field: "excludeupto", Message: "must be an RFC 3339 instant"})
		}
		params.ExcludeUpTo = &at
	}

	typ, id, err := parseResourceFilter(query.Get("resourcetype"), query.Get("resource"))
	if err != nil {
		return params, err
	}
	params.ResourceType = typ
	params.ResourceID = id
	return params, nil
}

// parseResourceFilter validates the (type, id) filter pair; both or
// neither must be present.
func parseResourceFilter(rawType, rawID string) (*resource.Type, *resource.ID, error) {
	if rawType == "" && rawID == "" {
		return nil, nil, nil
	}
	if rawType == "" || rawID == "" {
		return nil, nil, apperr.ValidationError("Resource filters require both a type and an id",
			apperr.FieldError{Field: "resource", Message: "resourcetype and resource must be set together"})
	}
	typ, err := resource.ParseType(rawType)
	if err != nil {
		return nil, nil, err
	}
	id, err := resource.ParseID(rawID)
	if err != nil {
		return nil, nil, err
	}
	return &typ, &id, nil
}
