// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package resource

import "sort"

// # Resource Information

// InformationSet holds per-resource metadata fetched from a handler for
// one resource type, plus the set of requested ids the handler reported
// as nonexistent. It is an immutable value built via [InformationSetBuilder].
type InformationSet struct {
	fields      map[ID]map[string]any
	nonexistent map[ID]struct{}
}

// Resources returns the ids with information, sorted for stable output.
func (s InformationSet) Resources() []ID {
	ids := make([]ID, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id < ids[j].id })
	return ids
}

// Fields returns the metadata map for one resource. The second return is
// false when the id carries no information.
func (s InformationSet) Fields(id ID) (map[string]any, bool) {
	fields, ok := s.fields[id]
	if !ok {
		return nil, false
	}
	// Shallow copy keeps the set immutable to callers.
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, true
}

// Nonexistent returns the requested ids the handler reported missing,
// sorted for stable output.
func (s InformationSet) Nonexistent() []ID {
	ids := make([]ID, 0, len(s.nonexistent))
	for id := range s.nonexistent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id < ids[j].id })
	return ids
}

// # Builder

// InformationSetBuilder accumulates handler results into an InformationSet.
type InformationSetBuilder struct {
	fields      map[ID]map[string]any
	nonexistent map[ID]struct{}
}

// NewInformationSetBuilder returns an empty builder.
func NewInformationSetBuilder() *InformationSetBuilder {
	return &InformationSetBuilder{
		fields:      make(map[ID]map[string]any),
		nonexistent: make(map[ID]struct{}),
	}
}

// WithField records one metadata field for a resource. Calling it moves
// the id out of the nonexistent set if it was there.
func (b *InformationSetBuilder) WithField(id ID, field string, value any) *InformationSetBuilder {
	delete(b.nonexistent, id)
	if b.fields[id] == nil {
		b.fields[id] = make(map[string]any)
	}
	b.fields[id][field] = value
	return b
}

// WithResource records a resource that exists but has no metadata fields.
func (b *InformationSetBuilder) WithResource(id ID) *InformationSetBuilder {
	delete(b.nonexistent, id)
	if b.fields[id] == nil {
		b.fields[id] = make(map[string]any)
	}
	return b
}

// WithNonexistent records a requested id the handler reported missing.
// An id with fields already recorded stays existent.
func (b *InformationSetBuilder) WithNonexistent(id ID) *InformationSetBuilder {
	if _, ok := b.fields[id]; !ok {
		b.nonexistent[id] = struct{}{}
	}
	return b
}

// Build freezes the accumulated state into an InformationSet.
func (b *InformationSetBuilder) Build() InformationSet {
	fields := make(map[ID]map[string]any, len(b.fields))
	for id, m := range b.fields {
		copied := make(map[string]any, len(m))
		for k, v := range m {
			copied[k] = v
		}
		fields[id] = copied
	}
	nonexistent := make(map[ID]struct{}, len(b.nonexistent))
	for id := range b.nonexistent {
		nonexistent[id] = struct{}{}
	}
	return InformationSet{fields: fields, nonexistent: nonexistent}
}
