package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hospitalcms/backend/internal/session"
)

// redisStore keeps sessions as JSON documents with an idle TTL
type redisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *redisStore {
	return &redisStore{
		redis: client,
		ttl:   ttl,
	}
}

// Get loads and restores a session by id
func (s *redisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return session.Restore(st)
}

// Save writes the session state and refreshes its TTL
func (s *redisStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess.State())
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID(), err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID()), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", sess.ID(), err)
	}
	return nil
}

// Delete removes a session
func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}
