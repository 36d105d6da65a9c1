package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// RedisOptionCache stores generated resolution options per conflict together
// with the schedule data version they were computed from. A read against a
// newer version is a miss, so any assignment change invalidates the entry
// without waiting for the TTL. The TTL only bounds storage of stale keys.
type RedisOptionCache struct {
	client *redis.Client
}

// NewRedisOptionCache creates the option cache adapter.
func NewRedisOptionCache(client *redis.Client) *RedisOptionCache {
	return &RedisOptionCache{client: client}
}

type cachedOptions struct {
	Version string                    `json:"version"`
	Options []domain.ResolutionOption `json:"options"`
}

func (c *RedisOptionCache) Get(ctx context.Context, conflictID uuid.UUID, version string) ([]domain.ResolutionOption, bool, error) {
	raw, err := c.client.Get(ctx, optionCacheKey(conflictID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entry cachedOptions
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, nil
	}
	if entry.Version != version {
		return nil, false, nil
	}
	return entry.Options, true, nil
}

func (c *RedisOptionCache) Put(ctx context.Context, conflictID uuid.UUID, version string, options []domain.ResolutionOption, ttl time.Duration) error {
	raw, err := json.Marshal(cachedOptions{Version: version, Options: options})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, optionCacheKey(conflictID), raw, ttl).Err()
}

func (c *RedisOptionCache) Invalidate(ctx context.Context, conflictID uuid.UUID) error {
	return c.client.Del(ctx, optionCacheKey(conflictID)).Err()
}

func optionCacheKey(conflictID uuid.UUID) string {
	return "resolution:options:" + conflictID.String()
}
