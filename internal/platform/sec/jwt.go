// Copyright (c) 2026 Collabry, Inc. All rights reserved.

// Package sec provides cryptographic primitives and token verification.
//
// # Architecture
//
// This package isolates security-sensitive code (JWT parsing, token digests)
// from the domain logic. The groups service never mints tokens (they are
// issued by the Collabry auth service), so only the verification half of the
// RS256 scheme lives here.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a bearer token.
//
// The claim set is minimal on purpose: the groups core only needs a stable
// account name; everything else (roles, group membership) is derived from
// its own storage, never trusted from the token.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Username is the immutable account name of the token holder.
	Username string `json:"unm"`
}

// TokenService verifies bearer tokens signed with RS256 by the auth service.
type TokenService struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewTokenService creates a new TokenService.
// It reads the auth service's RSA public key from the provided filesystem path.
func NewTokenService(publicKeyPath, issuer string) (*TokenService, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{
		publicKey: publicKey,
		issuer:    issuer,
	}, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
