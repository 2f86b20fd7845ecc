// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package notify delivers best-effort notifications about workflow events.

Delivery is fire-and-forget: the orchestrator never learns about a
failed notification, implementations log and move on. Two notifiers
ship: a structured-log notifier for development and a Redis pub/sub
publisher for downstream consumers.
*/
package notify

import (
	"context"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
)

// Notifications is the outbound event contract. No method returns an
// error; failures stay inside the implementation.
type Notifications interface {
	// Notify announces a newly created request to its target users.
	Notify(ctx context.Context, targets []group.UserName, g *group.Group, r request.Request)

	// Cancel announces that a request was canceled by its creator.
	Cancel(ctx context.Context, id request.ID)

	// Deny announces a denial to the interested users.
	Deny(ctx context.Context, targets []group.UserName, r request.Request)

	// Accept announces an acceptance to the interested users.
	Accept(ctx context.Context, targets []group.UserName, r request.Request)

	// AddResource announces a resource added to a group without a
	// workflow round trip.
	AddResource(ctx context.Context, groupID group.ID, targets []group.UserName, typ resource.Type, id resource.ID)
}
