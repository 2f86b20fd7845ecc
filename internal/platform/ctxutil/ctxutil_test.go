// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/collabry/groups/internal/platform/ctxutil"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Token verifies that the raw bearer token can be stored in
context and that anonymous contexts yield an empty token.
*/
func TestContext_Token(t *testing.T) {
	ctx := context.Background()

	// 1. Initially should be empty (anonymous)
	assert.Empty(t, ctxutil.GetToken(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithToken(ctx, "bearer-abc123")
	assert.Equal(t, "bearer-abc123", ctxutil.GetToken(ctx))
}
