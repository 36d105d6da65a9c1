package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Connect initializes the Redis client shared by the week-lock store and the
// option cache. URL and bare host:port forms are both accepted so local/dev
// and container config paths stay simple. Lease acquisition sits on the swap
// execution path, so idle connections are kept warm and reachability is
// verified up front instead of surfacing as a mid-swap lock failure.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var opt *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: redisURL}
	}

	opt.ClientName = "conflict-resolution-service"
	if opt.MinIdleConns == 0 {
		opt.MinIdleConns = 2
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}
	return client, nil
}
