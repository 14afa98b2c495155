// Package cache keeps the last space list the API returned successfully, so
// the list view can fall back to it when the API is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"spacebook/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

const spacesKeyPrefix = "spacebook:spaces:last_good:"

// HitCounter is told about every lookup.
type HitCounter interface {
	CacheHit()
	CacheMiss()
}

// SpaceCache stores one list per user. A nil client turns every call into a
// miss, which is how the service runs without Redis.
type SpaceCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	counter HitCounter
}

func NewSpaceCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, counter HitCounter) *SpaceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpaceCache{client: client, ttl: ttl, logger: logger, counter: counter}
}

func (c *SpaceCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *SpaceCache) Get(ctx context.Context, userID int64) ([]domain.Space, error) {
	if !c.Enabled() {
		return nil, ErrCacheMiss
	}

	key := spacesKey(userID)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		c.miss()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var spaces []domain.Space
	if err := json.Unmarshal(raw, &spaces); err != nil {
		c.miss()
		return nil, fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	if c.counter != nil {
		c.counter.CacheHit()
	}
	return spaces, nil
}

// Set remembers spaces as the last good list of the user. Failures are logged
// and swallowed: the cache never fails a request that already succeeded.
func (c *SpaceCache) Set(ctx context.Context, userID int64, spaces []domain.Space) {
	if !c.Enabled() {
		return
	}

	key := spacesKey(userID)
	payload, err := json.Marshal(spaces)
	if err != nil {
		c.logger.Warn("marshal space cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll drops every cached list, used after spaces change.
func (c *SpaceCache) InvalidateAll(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	iter := c.client.Scan(ctx, 0, spacesKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s*: %w", spacesKeyPrefix, err)
	}
	return nil
}

func (c *SpaceCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

func (c *SpaceCache) miss() {
	if c.counter != nil {
		c.counter.CacheMiss()
	}
}

func spacesKey(userID int64) string {
	return fmt.Sprintf("%s%d", spacesKeyPrefix, userID)
}
