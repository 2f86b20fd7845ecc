// Copyright (c) 2026 Collabry, Inc. All rights reserved.

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/collabry/groups/internal/core/group"
	"github.com/collabry/groups/internal/core/request"
	"github.com/collabry/groups/internal/core/resource"
)

// publishTimeout bounds one pub/sub publish so a slow broker cannot
// stall the request that triggered the event.
const publishTimeout = 2 * time.Second

// event is the JSON payload published to the notification channel.
type event struct {
	Action       string   `json:"action"`
	RequestID    string   `json:"request_id,omitempty"`
	GroupID      string   `json:"group_id,omitempty"`
	Kind         string   `json:"kind,omitempty"`
	ResourceType string   `json:"resource_type,omitempty"`
	ResourceID   string   `json:"resource_id,omitempty"`
	Targets      []string `json:"targets,omitempty"`
}

// RedisNotifier publishes workflow events as JSON messages on a Redis
// pub/sub channel. Publish failures are logged at WARN and dropped.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisNotifier builds a pub/sub-backed notifier.
func NewRedisNotifier(client *redis.Client, channel string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

var _ Notifications = (*RedisNotifier)(nil)

// Notify implements [Notifications].
func (n *RedisNotifier) Notify(ctx context.Context, targets []group.UserName, g *group.Group, r request.Request) {
	n.publish(ctx, event{
		Action:       "notify",
		RequestID:    r.ID().String(),
		GroupID:      g.ID().String(),
		Kind:         r.Kind().String(),
		ResourceType: r.ResourceType().String(),
		ResourceID:   r.Resource().ID.String(),
		Targets:      userNames(targets),
	})
}

// Cancel implements [Notifications].
func (n *RedisNotifier) Cancel(ctx context.Context, id request.ID) {
	n.publish(ctx, event{Action: "cancel", RequestID: id.String()})
}

// Deny implements [Notifications].
func (n *RedisNotifier) Deny(ctx context.Context, targets []group.UserName, r request.Request) {
	n.publish(ctx, event{
		Action:    "deny",
		RequestID: r.ID().String(),
		GroupID:   r.GroupID().String(),
		Targets:   userNames(targets),
	})
}

// Accept implements [Notifications].
func (n *RedisNotifier) Accept(ctx context.Context, targets []group.UserName, r request.Request) {
	n.publish(ctx, event{
		Action:    "accept",
		RequestID: r.ID().String(),
		GroupID:   r.GroupID().String(),
		Targets:   userNames(targets),
	})
}

// AddResource implements [Notifications].
func (n *RedisNotifier) AddResource(ctx context.Context, groupID group.ID, targets []group.UserName, typ resource.Type, id resource.ID) {
	n.publish(ctx, event{
		Action:       "add_resource",
		GroupID:      groupID.String(),
		ResourceType: typ.String(),
		ResourceID:   id.String(),
		Targets:      userNames(targets),
	})
}

func (n *RedisNotifier) publish(ctx context.Context, evt event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		n.logger.WarnContext(ctx, "notification_marshal_failed",
			slog.String("action", evt.Action),
			slog.Any("error", err),
		)
		return
	}

	// Detach from the request context so cancellation of the triggering
	// request does not lose the event.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := n.client.Publish(publishCtx, n.channel, payload).Err(); err != nil {
		n.logger.WarnContext(ctx, "notification_publish_failed",
			slog.String("action", evt.Action),
			slog.String("channel", n.channel),
			slog.Any("error", err),
		)
	}
}
