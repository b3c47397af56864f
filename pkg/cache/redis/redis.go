// Package redis backs the apimanager Cache capability with Redis, letting
// independent processes share one response cache for the same remote API.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "apimanager:response:"

// Cache stores cached responses under a shared key prefix.
type Cache struct {
	client *redis.Client
	prefix string

	// TTL is applied to every written entry. Zero keeps entries until
	// overwritten or evicted by Redis itself.
	TTL time.Duration
}

// New wraps an existing client. An empty prefix uses the package default.
func New(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to GET key %s: %w", c.key(key), err)
	}
	return data, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.key(key), value, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to SET key %s: %w", c.key(key), err)
	}
	return nil
}
