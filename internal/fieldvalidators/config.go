// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package fieldvalidators

import (
	"strings"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/platform/apperr"
)

/*
ParseConfig builds the group and per-user field registries from the
FIELD_CONFIG string.

The string is a comma-separated list of entries of the form

	name:validator[:flag...][:param=value...]

where the flags are:

  - public: visible without a role
  - minimal: included in minimal views
  - user: configures a per-user field instead of a group field
  - settable: members may set the field on themselves (user fields only)

and any segment containing '=' is passed to the named validator factory
as a parameter, e.g. "title:simple:public:minimal:max-length=200".

Parameters:
  - config: the raw FIELD_CONFIG value, may be empty

Returns:
  - *field.Validators: the group field registry
  - *field.Validators: the per-user field registry
  - error: validation errors for malformed entries
*/
func ParseConfig(config string) (*field.Validators, *field.Validators, error) {
	groupFields := make(map[string]field.Configuration)
	userFields := make(map[string]field.Configuration)

	for _, entry := range strings.Split(config, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		segments := strings.Split(entry, ":")
		if len(segments) < 2 {
			return nil, nil, apperr.ValidationError("Illegal field configuration",
				apperr.FieldError{Field: entry, Message: "entries need at least a name and a validator"})
		}
		name := segments[0]
		validatorName := segments[1]

		cfg := field.Configuration{}
		isUserField := false
		params := make(map[string]string)
		for _, segment := range segments[2:] {
			if key, value, isParam := strings.Cut(segment, "="); isParam {
				params[key] = value
				continue
			}
			switch segment {
			case "public":
				cfg.IsPublic = true
			case "minimal":
				cfg.IsMinimalView = true
			case "user":
				isUserField = true
			case "settable":
				cfg.IsUserSettable = true
			default:
				return nil, nil, apperr.ValidationError("Illegal field configuration flag",
					apperr.FieldError{Field: name, Message: "unknown flag " + segment})
			}
		}

		validator, err := Build(validatorName, params)
		if err != nil {
			return nil, nil, err
		}
		cfg.Validator = validator

		if isUserField {
			userFields[name] = cfg
		} else {
			groupFields[name] = cfg
		}
	}

	groupRegistry, err := field.NewValidators(groupFields)
	if err != nil {
		return nil, nil, err
	}
	userRegistry, err := field.NewValidators(userFields)
	if err != nil {
		return nil, nil, err
	}
	return groupRegistry, userRegistry, nil
}
