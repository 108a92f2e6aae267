// Package idempotency provides an optional Redis-backed dedup cache for
// batch request ids. A client can consult it before resending a batch
// whose ids were already observed -- a reasonable extension of the id
// generator machinery, not part of the core JSON-RPC contract.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache remembers which request ids have already been submitted, with a
// TTL so the set doesn't grow unbounded.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New wraps an existing Redis client. ttl controls how long an id is
// remembered; zero means the default of 24 hours.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl, prefix: "barrister:batch-id:"}
}

// Seen reports whether id has already been recorded.
func (c *Cache) Seen(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency: check %s: %w", id, err)
	}
	return n > 0, nil
}

// Mark records id as submitted, refreshing its TTL.
func (c *Cache) Mark(ctx context.Context, id string) error {
	if err := c.client.Set(ctx, c.key(id), 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: mark %s: %w", id, err)
	}
	return nil
}

// FilterUnseen returns the subset of ids not already recorded, preserving
// order, and marks all of them as seen in one pipeline so a concurrent
// caller racing on the same ids cannot double-submit.
func (c *Cache) FilterUnseen(ctx context.Context, ids []string) ([]string, error) {
	pipe := c.client.Pipeline()
	cmds := make([]*redis.BoolCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.SetNX(ctx, c.key(id), 1, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("idempotency: filter unseen: %w", err)
	}

	unseen := make([]string, 0, len(ids))
	for i, id := range ids {
		wasSet, err := cmds[i].Result()
		if err != nil {
			return nil, fmt.Errorf("idempotency: read result for %s: %w", id, err)
		}
		if wasSet {
			unseen = append(unseen, id)
		}
	}
	return unseen, nil
}

func (c *Cache) key(id string) string {
	return c.prefix + id
}
