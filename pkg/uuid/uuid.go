// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package uuid provides unique identifiers for approval requests.

It wraps the standard UUID library behind a tiny generator type so that
components which mint request IDs can take the generator as a dependency
and swap in a deterministic sequence under test.

This is the mandatory ID type for all request records in the Collabry ecosystem.
*/
package uuid

import "github.com/google/uuid"

// Generator produces a new unique identifier string on each call.
type Generator func() string

// # Generators

// New generates a new random (version 4) UUID string.
func New() string {
	return uuid.NewString()
}

// Default returns the production [Generator].
func Default() Generator {
	return New
}
