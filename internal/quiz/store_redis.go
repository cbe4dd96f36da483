package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "quiz:session:"
	defaultSessionTTL = 6 * time.Hour
)

// RedisStore keeps sessions as JSON documents with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. A zero ttl uses six hours.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Create(ctx context.Context, s *Session) (string, error) {
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, sessionKeyPrefix+s.ID, data, r.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("session id collision: %s", s.ID)
	}
	return s.ID, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := r.client.SetXX(ctx, sessionKeyPrefix+s.ID, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
