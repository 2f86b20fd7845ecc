// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package remote adapts a JSON-over-HTTP resource service to the
[resource.Handler] contract.

One adapter instance serves one resource type against one base URL. The
wire convention is small and uniform, so any conforming service (the
workspace service, the catalog, future ones) plugs in through
configuration alone:

	GET  {base}/resources/{id}                → descriptor + public flag
	GET  {base}/resources/{id}/administrators → administrator list
	GET  {base}/administrated?user={u}        → administrative ids
	POST {base}/resources/{id}/permissions    → grant read
	POST {base}/information                   → bulk resource information

A 404 maps to [resource.ErrNoSuchResource], a 400 to
[resource.IllegalIDError], anything else unexpected to
[resource.UnreachableError].
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/collabry/groups/internal/core/resource"
)

const (
	requestTimeout  = 10 * time.Second
	maxResponseSize = 10 << 20 // 10 MiB
)

// Handler implements [resource.Handler] over HTTP.
type Handler struct {
	typ        resource.Type
	baseURL    string
	httpClient *http.Client
}

// NewHandler builds an adapter for one resource type.
func NewHandler(typ resource.Type, baseURL string) *Handler {
	return &Handler{
		typ:        typ,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

var _ resource.Handler = (*Handler)(nil)

// # Wire Types

type descriptorPayload struct {
	ID               string `json:"id"`
	AdministrativeID string `json:"administrative_id"`
	Public           bool   `json:"public"`
}

type administratorsPayload struct {
	Administrators []string `json:"administrators"`
}

type administratedPayload struct {
	IDs []string `json:"ids"`
}

type informationRequest struct {
	User   string   `json:"user,omitempty"`
	IDs    []string `json:"ids"`
	Access string   `json:"access"`
}

type informationPayload struct {
	Resources []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"resources"`
	Nonexistent []string `json:"nonexistent"`
}

type permissionRequest struct {
	User string `json:"user"`
	Read bool   `json:"read"`
}

// # Contract Implementation

// GetDescriptor implements [resource.Handler].
func (h *Handler) GetDescriptor(ctx context.Context, id resource.ID) (resource.Descriptor, error) {
	var payload descriptorPayload
	err := h.getJSON(ctx, h.resourcePath(id), &payload)
	if err != nil {
		return resource.Descriptor{}, err
	}
	return h.toDescriptor(payload)
}

// IsAdministrator implements [resource.Handler].
func (h *Handler) IsAdministrator(ctx context.Context, id resource.ID, user string) (bool, error) {
	admins, err := h.GetAdministrators(ctx, id)
	if err != nil {
		return false, err
	}
	for _, admin := range admins {
		if admin == user {
			return true, nil
		}
	}
	return false, nil
}

// IsPublic implements [resource.Handler].
func (h *Handler) IsPublic(ctx context.Context, id resource.ID) (bool, error) {
	var payload descriptorPayload
	if err := h.getJSON(ctx, h.resourcePath(id), &payload); err != nil {
		return false, err
	}
	return payload.Public, nil
}

// GetAdministrators implements [resource.Handler].
func (h *Handler) GetAdministrators(ctx context.Context, id resource.ID) ([]string, error) {
	var payload administratorsPayload
	if err := h.getJSON(ctx, h.resourcePath(id)+"/administrators", &payload); err != nil {
		return nil, err
	}
	return payload.Administrators, nil
}

// GetAdministratedResources implements [resource.Handler].
func (h *Handler) GetAdministratedResources(ctx context.Context, user string) ([]resource.AdministrativeID, error) {
	var payload administratedPayload
	path := "/administrated?user=" + url.QueryEscape(user)
	if err := h.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	ids := make([]resource.AdministrativeID, 0, len(payload.IDs))
	for _, raw := range payload.IDs {
		id, err := resource.ParseAdministrativeID(raw)
		if err != nil {
			return nil, &resource.UnreachableError{Type: h.typ, Cause: fmt.Errorf("malformed administrative id %q", raw)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetResourceInformation implements [resource.Handler].
func (h *Handler) GetResourceInformation(
	ctx context.Context,
	user string,
	ids []resource.ID,
	access resource.AccessLevel,
) (resource.InformationSet, error) {
	rawIDs := make([]string, len(ids))
	for i, id := range ids {
		rawIDs[i] = id.String()
	}

	var payload informationPayload
	err := h.postJSON(ctx, "/information", informationRequest{
		User:   user,
		IDs:    rawIDs,
		Access: accessName(access),
	}, &payload)
	if err != nil {
		return resource.InformationSet{}, err
	}

	builder := resource.NewInformationSetBuilder()
	for _, res := range payload.Resources {
		id, parseErr := resource.ParseID(res.ID)
		if parseErr != nil {
			return resource.InformationSet{}, &resource.UnreachableError{
				Type: h.typ, Cause: fmt.Errorf("malformed resource id %q", res.ID)}
		}
		builder.WithResource(id)
		for name, value := range res.Fields {
			builder.WithField(id, name, value)
		}
	}
	for _, raw := range payload.Nonexistent {
		id, parseErr := resource.ParseID(raw)
		if parseErr != nil {
			continue
		}
		builder.WithNonexistent(id)
	}
	return builder.Build(), nil
}

// SetReadPermission implements [resource.Handler].
func (h *Handler) SetReadPermission(ctx context.Context, id resource.ID, user string) error {
	return h.postJSON(ctx, h.resourcePath(id)+"/permissions", permissionRequest{
		User: user,
		Read: true,
	}, nil)
}

// # HTTP Plumbing

func (h *Handler) resourcePath(id resource.ID) string {
	return "/resources/" + url.PathEscape(id.String())
}

func (h *Handler) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return &resource.UnreachableError{Type: h.typ, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	return h.do(req, out)
}

func (h *Handler) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &resource.UnreachableError{Type: h.typ, Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &resource.UnreachableError{Type: h.typ, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return h.do(req, out)
}

func (h *Handler) do(req *http.Request, out any) error {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return &resource.UnreachableError{Type: h.typ, Cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resource.ErrNoSuchResource
	case resp.StatusCode == http.StatusBadRequest:
		return &resource.IllegalIDError{ID: req.URL.Path, Reason: "rejected by the backing service"}
	case resp.StatusCode >= 300:
		return &resource.UnreachableError{
			Type:  h.typ,
			Cause: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err := decoder.Decode(out); err != nil {
		return &resource.UnreachableError{Type: h.typ, Cause: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func (h *Handler) toDescriptor(payload descriptorPayload) (resource.Descriptor, error) {
	id, err := resource.ParseID(payload.ID)
	if err != nil {
		return resource.Descriptor{}, &resource.UnreachableError{
			Type: h.typ, Cause: fmt.Errorf("malformed resource id %q", payload.ID)}
	}
	adminRaw := payload.AdministrativeID
	if adminRaw == "" {
		adminRaw = payload.ID
	}
	adminID, err := resource.ParseAdministrativeID(adminRaw)
	if err != nil {
		return resource.Descriptor{}, &resource.UnreachableError{
			Type: h.typ, Cause: fmt.Errorf("malformed administrative id %q", adminRaw)}
	}
	return resource.NewDescriptor(id, adminID), nil
}

func accessName(access resource.AccessLevel) string {
	switch access {
	case resource.AccessAdministrated:
		return "administrated"
	case resource.AccessAdministratedAndPublic:
		return "administrated_and_public"
	default:
		return "all"
	}
}
