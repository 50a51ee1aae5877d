package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps per-user conversation state as JSON with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(c *RedisCache, ttl time.Duration) *SessionStore {
	return &SessionStore{client: c.Client, ttl: ttl}
}

func (s *SessionStore) key(userID uint64) string {
	return fmt.Sprintf("leomatch:session:%d", userID)
}

// Save overwrites the user's session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, userID uint64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key(userID), data, s.ttl).Err()
}

// Load decodes the user's session into dst. ok is false when none is stored.
func (s *SessionStore) Load(ctx context.Context, userID uint64, dst any) (ok bool, err error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return true, nil
}

// Delete ends the user's session.
func (s *SessionStore) Delete(ctx context.Context, userID uint64) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
