// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package sec

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// TokenDigest returns a short hex digest of a bearer token.
//
// Raw tokens are credentials and must never appear in cache keys or logs;
// callers use the digest instead. BLAKE2b-256 keeps the digest collision
// resistant at a fraction of the cost of the cgo-free SHA implementations.
func TokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
