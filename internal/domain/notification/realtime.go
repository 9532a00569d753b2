package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RealtimePublisher publishes in-app notification realtime events.
type RealtimePublisher interface {
	NotifyNew(ctx context.Context, userID uuid.UUID, item *Item, unreadCount int) error
}

// ChannelName is the Redis pub/sub channel for a user's notifications.
func ChannelName(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// RedisPublisher publishes notification:new events over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher returns nil when client is nil.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	if client == nil {
		return nil
	}
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) NotifyNew(ctx context.Context, userID uuid.UUID, item *Item, unreadCount int) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type": "notification:new",
		"data": map[string]interface{}{
			"notification": item,
			"unread_count": unreadCount,
		},
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, ChannelName(userID), payload).Err()
}
