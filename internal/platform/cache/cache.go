// Package cache connects to the Redis instance that holds worksheet sessions
// and cached question sets.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the client.
type Options struct {
	URL        string
	PoolSize   int    // 0 keeps the go-redis default
	ClientName string // reported by CLIENT LIST; defaults to "worksheet"
}

// Cache wraps a Redis client.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a client and verifies it with a ping.
func New(ctx context.Context, o Options) (*Cache, error) {
	opts, err := ParseURL(o.URL)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	if o.PoolSize > 0 {
		opts.PoolSize = o.PoolSize
	}
	opts.ClientName = o.ClientName
	if opts.ClientName == "" {
		opts.ClientName = "worksheet"
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
