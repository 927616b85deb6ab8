// Package keyval wraps redis as a best-effort TTL cache. A missing or
// unreachable redis degrades every operation to a cache miss or no-op;
// callers never fail because the cache did.
package keyval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	rdb *redis.Client
}

// NewClient connects to redis at addr. addr may be empty, in which case
// the returned client is a functional no-op.
func NewClient(ctx context.Context, addr, password string) Client {
	if addr == "" {
		slog.Info("cache disabled, no redis address configured")
		return Client{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, extraction cache disabled", "addr", addr, "err", err)
		return Client{}
	}
	return Client{rdb: rdb}
}

// NewClientFromRedis wraps an existing redis client, mostly for tests.
func NewClientFromRedis(rdb *redis.Client) Client {
	return Client{rdb: rdb}
}

func (c Client) Get(ctx context.Context, key string) (string, bool) {
	if c.rdb == nil {
		return "", false
	}
	value, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		return "", false
	}
	return value, true
}

func (c Client) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (c Client) Delete(ctx context.Context, key string) {
	if c.rdb == nil {
		return
	}
	err := c.rdb.Del(ctx, key).Err()
	if err != nil {
		slog.WarnContext(ctx, "cache delete failed", "key", key, "err", err)
	}
}
