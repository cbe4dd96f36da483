package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 15 * time.Minute

// CachedStore is a read-through Redis cache in front of another Store.
// Cache failures are logged and fall back to the backing store.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps next with a Redis cache. A zero ttl uses the default.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration) (*CachedStore, error) {
	if next == nil {
		return nil, fmt.Errorf("backing store is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{next: next, client: client, ttl: ttl}, nil
}

func (c *CachedStore) FetchRecords(ctx context.Context, topicID, difficulty string) ([]Record, error) {
	key := cacheKey(topicID, difficulty)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []Record
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
		slog.Warn("discarding corrupt cached question set", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("question cache read failed", "key", key, "error", err)
	}

	records, err := c.next.FetchRecords(ctx, topicID, difficulty)
	if err != nil {
		return nil, err
	}
	// Empty sets are not cached so a fresh import shows up immediately.
	if len(records) == 0 {
		return records, nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return records, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.Warn("question cache write failed", "key", key, "error", err)
	}
	return records, nil
}

// Invalidate drops the cached set for a topic and difficulty.
func (c *CachedStore) Invalidate(ctx context.Context, topicID, difficulty string) error {
	if err := c.client.Del(ctx, cacheKey(topicID, difficulty)).Err(); err != nil {
		return fmt.Errorf("invalidate question cache: %w", err)
	}
	return nil
}

func cacheKey(topicID, difficulty string) string {
	return "questions:" + topicID + ":" + strings.ToLower(difficulty)
}
