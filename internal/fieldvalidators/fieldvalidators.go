// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package fieldvalidators provides the built-in custom field validators.

Three families ship: simple free-text checks, closed enumerations, and a
gravatar hash probe. Each factory returns a [field.Validator] suitable
for a [field.Configuration], and [Build] maps configuration names to
factories for env-driven wiring.
*/
package fieldvalidators

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/collabry/groups/internal/core/field"
	"github.com/collabry/groups/internal/platform/apperr"
)

// # Simple

// Simple validates free text: well-formed UTF-8, no control characters,
// and at most maxLength characters. A maxLength of 0 means unbounded.
func Simple(maxLength int) field.Validator {
	return func(f field.CustomField, value string) error {
		if !utf8.ValidString(value) {
			return apperr.ValidationError("Field value is not valid UTF-8",
				apperr.FieldError{Field: f.String(), Message: "must be well-formed UTF-8"})
		}
		for _, r := range value {
			if unicode.IsControl(r) {
				return apperr.ValidationError("Field value contains control characters",
					apperr.FieldError{Field: f.String(), Message: "control characters are not allowed"})
			}
		}
		if maxLength > 0 && utf8.RuneCountInString(value) > maxLength {
			return apperr.ValidationError("Field value exceeds maximum length",
				apperr.FieldError{Field: f.String(), Message: "must be at most " + strconv.Itoa(maxLength) + " characters"})
		}
		return nil
	}
}

// # Enum

// Enum validates the value against a fixed allowed set.
func Enum(allowed []string) field.Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return func(f field.CustomField, value string) error {
		if _, ok := set[value]; !ok {
			return apperr.ValidationError("Field value is not an allowed option",
				apperr.FieldError{Field: f.String(), Message: "value is not in the allowed set"})
		}
		return nil
	}
}

// # Gravatar

const gravatarProbeTimeout = 5 * time.Second

// Gravatar validates that the value is a gravatar hash with an existing
// image, probing the gravatar service with d=404 so missing images
// answer with a 404. The gravatar protocol keys images by md5 hex, so a
// candidate must look like one before the probe.
func Gravatar(client *http.Client) field.Validator {
	if client == nil {
		client = &http.Client{Timeout: gravatarProbeTimeout}
	}
	return func(f field.CustomField, value string) error {
		if !looksLikeMD5(value) {
			return apperr.ValidationError("Field value is not a gravatar hash",
				apperr.FieldError{Field: f.String(), Message: "must be a 32-character hex hash"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), gravatarProbeTimeout)
		defer cancel()

		url := "https://www.gravatar.com/avatar/" + value + "?d=404"
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return apperr.Internal(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return apperr.Unavailable("The gravatar service could not be reached", err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return apperr.ValidationError("No gravatar image exists for the given hash",
				apperr.FieldError{Field: f.String(), Message: "no image registered for this hash"})
		default:
			return apperr.Unavailable(
				fmt.Sprintf("Unexpected gravatar response %d", resp.StatusCode), nil)
		}
	}
}

// HashFor returns the gravatar hash for an email address, exposed for
// clients building field values.
func HashFor(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func looksLikeMD5(value string) bool {
	if len(value) != 32 {
		return false
	}
	for _, r := range value {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			return false
		}
	}
	return true
}

// # Factory Wiring

// Build maps a configured validator name to its factory.
//
// Supported names: "simple" (param "max-length"), "enum" (param
// "values", pipe separated since commas delimit config entries), and
// "gravatar" (no params).
func Build(name string, params map[string]string) (field.Validator, error) {
	switch name {
	case "simple":
		maxLength := 0
		if raw, ok := params["max-length"]; ok {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				return nil, fmt.Errorf("fieldvalidators: illegal max-length %q", raw)
			}
			maxLength = parsed
		}
		return Simple(maxLength), nil
	case "enum":
		raw, ok := params["values"]
		if !ok || raw == "" {
			return nil, fmt.Errorf("fieldvalidators: enum requires a values parameter")
		}
		values := strings.Split(raw, "|")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		return Enum(values), nil
	case "gravatar":
		return Gravatar(nil), nil
	default:
		return nil, fmt.Errorf("fieldvalidators: unknown validator %q", name)
	}
}
