package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Close closes the Redis connection
func (c *redisImpl) Close() error {
	return c.client.Close()
}

// Ping checks if the connection is alive and returns latency
func (c *redisImpl) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// IsConnected checks if the client is connected to Redis
func (c *redisImpl) IsConnected(ctx context.Context) bool {
	_, err := c.Ping(ctx)
	return err == nil
}

// GetClient exposes the underlying go-redis client for callers that need
// transactions or pipelines.
func (c *redisImpl) GetClient() *goredis.Client {
	return c.client
}
