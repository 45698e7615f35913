package whatsapp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper tells the webhook whether a provider message ID was seen before.
type Deduper interface {
	Seen(ctx context.Context, messageID string) (bool, error)
}

// RedisDeduper remembers wamids in Redis with a TTL. Meta redelivers
// webhooks for up to a day, so the window comfortably covers that.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if client == nil {
		panic("whatsapp: redis client required for dedupe")
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

// Seen atomically records the ID and reports whether it already existed.
func (d *RedisDeduper) Seen(ctx context.Context, messageID string) (bool, error) {
	fresh, err := d.client.SetNX(ctx, "wa:msg:"+messageID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("whatsapp: dedupe check for %s: %w", messageID, err)
	}
	return !fresh, nil
}
