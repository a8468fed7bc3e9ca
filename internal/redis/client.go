package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scheduling-service/internal/config"
)

// Key prefixes
const (
	RateLimitKeyPrefix = "ratelimit:"
)

// Client wraps the Redis client with application-specific methods. It backs
// the rate limiting of the public candidate endpoints; the service degrades
// gracefully when Redis is unavailable.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Allow implements a fixed-window counter: at most limit hits per window for
// the given key. Errors fail open so a Redis outage never blocks candidates.
func (c *Client) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	fullKey := RateLimitKeyPrefix + key

	count, err := c.rdb.Incr(ctx, fullKey).Result()
	if err != nil {
		return true, fmt.Errorf("rate limit incr failed: %w", err)
	}

	if count == 1 {
		if err := c.rdb.Expire(ctx, fullKey, window).Err(); err != nil {
			return true, fmt.Errorf("rate limit expire failed: %w", err)
		}
	}

	return count <= limit, nil
}
