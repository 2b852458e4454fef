package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DedupCache implements ports.DedupCache using SET NX with a TTL. It
// observes provider redeliveries; it never gates processing, which must
// stay idempotent regardless.
type DedupCache struct {
	client *goredis.Client
	prefix string
}

// NewDedupCache creates a Redis-backed webhook dedup cache.
func NewDedupCache(client *goredis.Client) *DedupCache {
	return &DedupCache{
		client: client,
		prefix: "webhook:seen:",
	}
}

// Seen atomically marks the fingerprint and reports whether it was
// already present within the TTL window.
func (c *DedupCache) Seen(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	isNew, err := c.client.SetNX(ctx, c.prefix+fingerprint, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedup setnx: %w", err)
	}
	return !isNew, nil
}
