// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package identity resolves bearer tokens and usernames against the
Collabry auth stack.

Token resolution verifies the RS256 signature locally, then caches the
token-digest to username mapping in Redis so hot tokens skip the
signature check. Username existence checks go to the remote user
directory with a positive/negative Redis cache in front.

Raw tokens never appear as cache keys; they are digested first.
*/
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/platform/apperr"
	"github.com/collabry/groups/internal/platform/sec"
)

const (
	tokenCachePrefix = "identity:token:"
	userCachePrefix  = "identity:user:"

	// tokenCacheTTL caps how long a verified token stays cached,
	// regardless of the token's own expiry.
	tokenCacheTTL = 5 * time.Minute

	// userCachePositiveTTL retains confirmed usernames.
	userCachePositiveTTL = 5 * time.Minute

	// userCacheNegativeTTL retains rejections briefly, so a user created
	// moments ago becomes visible quickly.
	userCacheNegativeTTL = 30 * time.Second

	directoryTimeout = 5 * time.Second
)

// Handler resolves users for the groups core.
type Handler struct {
	tokens     *sec.TokenService
	cache      *redis.Client
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewHandler builds an identity handler.
//
// Parameters:
//   - tokens: verifier for locally-checkable bearer tokens.
//   - cache: Redis client for token and username caches.
//   - baseURL: user directory base URL, e.g. "https://auth.collabry.dev".
//   - logger: structured logger for cache and directory events.
func NewHandler(tokens *sec.TokenService, cache *redis.Client, baseURL string, logger *slog.Logger) *Handler {
	return &Handler{
		tokens:     tokens,
		cache:      cache,
		httpClient: &http.Client{Timeout: directoryTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// GetUser resolves a bearer token to a username.
//
// An invalid or expired token is an authentication error. Cache outages
// degrade to plain verification rather than failing the request.
func (h *Handler) GetUser(ctx context.Context, token string) (group.UserName, error) {
	if token == "" {
		return group.UserName{}, apperr.Unauthenticated("Missing token")
	}

	digest := sec.TokenDigest(token)
	cacheKey := tokenCachePrefix + digest

	if cached, err := h.cache.Get(ctx, cacheKey).Result(); err == nil {
		name, parseErr := group.ParseUserName(cached)
		if parseErr == nil {
			return name, nil
		}
		// A corrupt entry falls through to verification.
		h.cache.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		h.logger.WarnContext(ctx, "identity_token_cache_read_failed", slog.Any("error", err))
	}

	claims, err := h.tokens.VerifyToken(token)
	if err != nil {
		h.logger.DebugContext(ctx, "identity_token_rejected", slog.Any("error", err))
		return group.UserName{}, apperr.Unauthenticated("Invalid token")
	}
	name, err := group.ParseUserName(claims.Username)
	if err != nil {
		return group.UserName{}, apperr.Unauthenticated("Token carries an illegal username")
	}

	ttl := tokenCacheTTL
	if claims.ExpiresAt != nil {
		if untilExpiry := time.Until(claims.ExpiresAt.Time); untilExpiry < ttl {
			ttl = untilExpiry
		}
	}
	if ttl > 0 {
		if err := h.cache.Set(ctx, cacheKey, name.String(), ttl).Err(); err != nil {
			h.logger.WarnContext(ctx, "identity_token_cache_write_failed", slog.Any("error", err))
		}
	}
	return name, nil
}

// IsValidUser reports whether the username exists in the user directory.
func (h *Handler) IsValidUser(ctx context.Context, name group.UserName) (bool, error) {
	cacheKey := userCachePrefix + name.String()

	if cached, err := h.cache.Get(ctx, cacheKey).Result(); err == nil {
		return cached == "1", nil
	} else if !errors.Is(err, redis.Nil) {
		h.logger.WarnContext(ctx, "identity_user_cache_read_failed", slog.Any("error", err))
	}

	exists, err := h.lookupUser(ctx, name)
	if err != nil {
		return false, err
	}

	value, ttl := "0", userCacheNegativeTTL
	if exists {
		value, ttl = "1", userCachePositiveTTL
	}
	if err := h.cache.Set(ctx, cacheKey, value, ttl).Err(); err != nil {
		h.logger.WarnContext(ctx, "identity_user_cache_write_failed", slog.Any("error", err))
	}
	return exists, nil
}

func (h *Handler) lookupUser(ctx context.Context, name group.UserName) (bool, error) {
	endpoint := h.baseURL + "/api/v1/users/" + url.PathEscape(name.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, apperr.Internal(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, apperr.Unavailable("The user directory could not be reached", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apperr.Unavailable(
			fmt.Sprintf("Unexpected user directory response %d", resp.StatusCode), nil)
	}
}
