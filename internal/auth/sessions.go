package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks issued refresh tokens in Redis, keyed by jti. A
// refresh token outside the registry (logged out, already rotated, or aged
// out) is rejected even when its signature is still valid. Access tokens are
// never registered; their verification stays a pure in-memory check.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore with the refresh-token TTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(jti string) string {
	return "refresh_session:" + jti
}

// Register records a freshly issued refresh token.
func (s *SessionStore) Register(ctx context.Context, jti, userID string) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: register session: %w", err)
	}
	return nil
}

// Consume removes a refresh token from the registry, reporting whether it
// was present. Rotation is consume-then-register so a refresh token can be
// redeemed exactly once.
func (s *SessionStore) Consume(ctx context.Context, jti string) (bool, error) {
	removed, err := s.client.Del(ctx, sessionKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: consume session: %w", err)
	}
	return removed > 0, nil
}

// Remove drops a refresh token from the registry, ignoring absence.
func (s *SessionStore) Remove(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, sessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("auth: remove session: %w", err)
	}
	return nil
}
