// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package field

import (
	"sort"

	"github.com/collabry/groups/internal/platform/apperr"
)

// # Validator Registry

// Validators holds the configured custom fields for one scope (group
// fields and per-user fields are separate registries). Assembled at
// startup, read-only afterwards.
type Validators struct {
	fields map[string]Configuration
}

// NewValidators builds a registry from root name to configuration.
// Every root must parse as an unnumbered [CustomField] and carry a
// validator function.
func NewValidators(fields map[string]Configuration) (*Validators, error) {
	registered := make(map[string]Configuration, len(fields))
	for root, cfg := range fields {
		parsed, err := ParseCustomField(root)
		if err != nil {
			return nil, err
		}
		if parsed.IsNumbered() {
			return nil, apperr.ValidationError("Field configuration keys cannot be numbered",
				apperr.FieldError{Field: root, Message: "configure the unnumbered root"})
		}
		if cfg.Validator == nil {
			return nil, apperr.ValidationError("Field configuration is missing a validator",
				apperr.FieldError{Field: root, Message: "a validator is required"})
		}
		registered[parsed.Root()] = cfg
	}
	return &Validators{fields: registered}, nil
}

// Validate checks a candidate value against the field's configured
// validator. An unconfigured root is a validation error.
func (v *Validators) Validate(field CustomField, value string) error {
	cfg, ok := v.fields[field.Root()]
	if !ok {
		return apperr.ValidationError("No such custom field",
			apperr.FieldError{Field: field.String(), Message: "field is not configured"})
	}
	return cfg.Validator(field, value)
}

// Configuration returns the configuration for a field's root. The second
// return is false for unconfigured roots.
func (v *Validators) Configuration(field CustomField) (Configuration, bool) {
	cfg, ok := v.fields[field.Root()]
	return cfg, ok
}

// IsPublic reports whether the field is visible without a role.
// Unconfigured fields are never public.
func (v *Validators) IsPublic(field CustomField) bool {
	return v.fields[field.Root()].IsPublic
}

// IsMinimalView reports whether the field appears in minimal views.
func (v *Validators) IsMinimalView(field CustomField) bool {
	return v.fields[field.Root()].IsMinimalView
}

// IsUserSettable reports whether members may set the field themselves.
func (v *Validators) IsUserSettable(field CustomField) bool {
	return v.fields[field.Root()].IsUserSettable
}

// Fields returns the configured roots, sorted.
func (v *Validators) Fields() []string {
	roots := make([]string, 0, len(v.fields))
	for root := range v.fields {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}
