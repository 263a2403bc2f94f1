package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore implements SessionStore using Redis. Sessions expire
// through the TTL passed to Set.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Get retrieves the operator behind a session token.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (*Operator, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.Unauthorized("unknown or expired session")
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var op Operator
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &op, nil
}

// Set persists a session with the given TTL.
func (s *RedisSessionStore) Set(ctx context.Context, token string, op *Operator, ttl time.Duration) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
