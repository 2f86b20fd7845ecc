// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package resource

import "fmt"

// Registry maps resource types to their handlers. It is assembled once at
// startup and read-only afterwards, so it needs no locking.
type Registry struct {
	handlers map[Type]Handler
}

// NewRegistry builds a registry from the given handler map.
//
// Registering the reserved "user" type fails, as does a nil handler.
func NewRegistry(handlers map[Type]Handler) (*Registry, error) {
	registered := make(map[Type]Handler, len(handlers))
	for typ, handler := range handlers {
		if typ.IsUser() {
			return nil, fmt.Errorf("resource: the %q type is reserved and cannot have a handler", TypeUser)
		}
		if handler == nil {
			return nil, fmt.Errorf("resource: nil handler for type %q", typ)
		}
		registered[typ] = handler
	}
	return &Registry{handlers: registered}, nil
}

// Handler returns the handler for a type. The second return is false for
// unregistered types, including "user".
func (r *Registry) Handler(typ Type) (Handler, bool) {
	handler, ok := r.handlers[typ]
	return handler, ok
}

// Types returns every registered type.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.handlers))
	for typ := range r.handlers {
		types = append(types, typ)
	}
	return types
}
