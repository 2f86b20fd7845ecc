// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Workflow: Approval request expiration horizon and listing caps.
  - Rate Limiting: Burst capacities and IP tracking TTLs.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "collabry-groups"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout bounds how long reading the request headers may take.
	DefaultReadHeaderTimeout = 5 * time.Second

	// GlobalRequestTimeout bounds the full handler chain for one request.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long in-flight requests get to finish on SIGTERM.
	ShutdownTimeout = 15 * time.Second
)

// # Approval Workflow

const (
	// RequestExpiry is the horizon after which an open approval request
	// may no longer be acted upon.
	RequestExpiry = 14 * 24 * time.Hour

	// RequestExpirySweepInterval is how often the background sweeper flips
	// stale open requests to the expired state.
	RequestExpirySweepInterval = time.Hour

	// MaxListCount is the hard cap on records returned by any group or
	// request listing, regardless of the requested page size.
	MaxListCount = 100

	// MaxReasonLength bounds the optional free-text reason attached to a
	// request denial.
	MaxReasonLength = 500

	// MaxGroupIDLength is the longest legal group id, shared with the
	// id suggestion logic.
	MaxGroupIDLength = 100
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the sustained request rate allowed per client IP.
	DefaultRateLimitRPS = 20

	// DefaultRateLimitBurst is the instantaneous burst allowed per client IP.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often stale per-IP limiters are evicted.
	RateLimitCleanupInterval = 5 * time.Minute

	// RateLimitClientTTL is how long an idle client's limiter is retained.
	RateLimitClientTTL = 10 * time.Minute
)

// # HTTP Headers

const (
	// HeaderXRequestID carries the correlation ID for log tracing.
	HeaderXRequestID = "X-Request-ID"

	// HeaderAuthorization carries the bearer token of the acting user.
	HeaderAuthorization = "Authorization"
)
