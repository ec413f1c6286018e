package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InboxKey is the Redis list holding a user's notifications, newest first.
func InboxKey(userID string) string {
	return "notifications:" + userID
}

// RedisInbox keeps the most recent notifications of each user in a capped Redis list.
type RedisInbox struct {
	client redis.Cmdable
	size   int
	ttl    time.Duration
}

func NewRedisInbox(client redis.Cmdable, size int, ttl time.Duration) *RedisInbox {
	return &RedisInbox{client: client, size: size, ttl: ttl}
}

func (s *RedisInbox) Deliver(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := InboxKey(n.RecipientID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.size > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.size-1))
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store notification in redis: %w", err)
	}
	return nil
}

// Inbox returns up to limit notifications of userID, newest first.
func (s *RedisInbox) Inbox(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = s.size
	}
	raw, err := s.client.LRange(ctx, InboxKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notification inbox: %w", err)
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
