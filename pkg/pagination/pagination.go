// Copyright (c) 2026 Collabry, Inc. All rights reserved.

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// Listings do not use page/offset navigation. Each listing is sorted by a
// single key, capped server-side, and resumed by handing the last seen key
// back as the "excludeupto" query parameter. This package parses the shared
// cursor parameters and builds the paging metadata delivered in the API
// response envelope.
package pagination

import "net/http"

// Cursor holds the parsed shared listing parameters.
type Cursor struct {
	// SortAscending orders the window by ascending sort key.
	SortAscending bool

	// ExcludeUpTo resumes the listing after the given sort key. Empty
	// starts from the beginning. The key format (an id, an RFC 3339
	// instant) is the endpoint's to interpret.
	ExcludeUpTo string
}

// FromRequest parses the "order" and "excludeupto" query parameters.
// Ascending order is the default; any value other than "desc" keeps it.
func FromRequest(r *http.Request) Cursor {
	query := r.URL.Query()
	return Cursor{
		SortAscending: query.Get("order") != "desc",
		ExcludeUpTo:   query.Get("excludeupto"),
	}
}

// Meta is the paging metadata included in API list responses.
type Meta struct {
	// Count is the number of records in this window.
	Count int `json:"count"`

	// Complete is true when the window held fewer records than the
	// server-side cap, so no further window exists.
	Complete bool `json:"complete"`

	// NextCursor is the "excludeupto" value resuming after this window.
	// Omitted when the listing is complete.
	NextCursor string `json:"next_cursor,omitempty"`
}

// NewMeta builds paging metadata for a window of count records under the
// given server-side cap. next is the last sort key of the window and is
// only surfaced when another window may exist.
func NewMeta(count, limit int, next string) Meta {
	meta := Meta{Count: count, Complete: count < limit}
	if !meta.Complete {
		meta.NextCursor = next
	}
	return meta
}
