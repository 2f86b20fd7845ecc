// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package notify

import (
	"context"
	"log/slog"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
)

// SlogNotifier writes every event to the structured log. It is the
// default notifier and the fallback for environments without a broker.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier builds a log-backed notifier.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

var _ Notifications = (*SlogNotifier)(nil)

// Notify implements [Notifications].
func (n *SlogNotifier) Notify(ctx context.Context, targets []group.UserName, g *group.Group, r request.Request) {
	n.logger.InfoContext(ctx, "notification_request_created",
		slog.String("request_id", r.ID().String()),
		slog.String("group_id", g.ID().String()),
		slog.String("kind", r.Kind().String()),
		slog.String("resource_type", r.ResourceType().String()),
		slog.String("resource_id", r.Resource().ID.String()),
		slog.Any("targets", userNames(targets)),
	)
}

// Cancel implements [Notifications].
func (n *SlogNotifier) Cancel(ctx context.Context, id request.ID) {
	n.logger.InfoContext(ctx, "notification_request_canceled",
		slog.String("request_id", id.String()),
	)
}

// Deny implements [Notifications].
func (n *SlogNotifier) Deny(ctx context.Context, targets []group.UserName, r request.Request) {
	n.logger.InfoContext(ctx, "notification_request_denied",
		slog.String("request_id", r.ID().String()),
		slog.String("group_id", r.GroupID().String()),
		slog.Any("targets", userNames(targets)),
	)
}

// Accept implements [Notifications].
func (n *SlogNotifier) Accept(ctx context.Context, targets []group.UserName, r request.Request) {
	n.logger.InfoContext(ctx, "notification_request_accepted",
		slog.String("request_id", r.ID().String()),
		slog.String("group_id", r.GroupID().String()),
		slog.Any("targets", userNames(targets)),
	)
}

// AddResource implements [Notifications].
func (n *SlogNotifier) AddResource(ctx context.Context, groupID group.ID, targets []group.UserName, typ resource.Type, id resource.ID) {
	n.logger.InfoContext(ctx, "notification_resource_added",
		slog.String("group_id", groupID.String()),
		slog.String("resource_type", typ.String()),
		slog.String("resource_id", id.String()),
		slog.Any("targets", userNames(targets)),
	)
}

func userNames(targets []group.UserName) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	return names
}
