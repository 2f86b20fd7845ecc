// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/ctxutil"
	"github.com/collabry/groups/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Token extracts the raw bearer token from the request context.

Returns an empty string if the request is anonymous.
*/
func Token(request *http.Request) string {
	return ctxutil.GetToken(request.Context())
}

/*
RequiredToken ensures the request carries a bearer token and returns it.

The token is not verified here. The groups core resolves it against the
identity handler as part of each operation.

Returns:
  - string: The raw bearer token
  - error: apperr.Unauthenticated if the request is anonymous
*/
func RequiredToken(request *http.Request) (string, error) {

	// Get raw token from the context
	token := ctxutil.GetToken(request.Context())

	// If the request is anonymous, return an error
	if token == "" {
		return "", apperr.Unauthenticated("Authentication required")
	}

	return token, nil
}
