// internal/store/sessions.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps login sessions in Redis. A session is an opaque token
// mapped to a user id with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSessionStore(client *redis.Client, ttl time.Duration, log logger.Logger) *SessionStore {
	return &SessionStore{client: client, ttl: ttl, logger: log}
}

// Create issues a new session token for a user.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", errors.NewDatabaseError(fmt.Errorf("failed to store session: %w", err))
	}
	return token, nil
}

// Get resolves a token to its user id and refreshes the TTL. Returns ("", nil)
// for unknown or expired tokens.
func (s *SessionStore) Get(ctx context.Context, token string) (string, error) {
	key := sessionKeyPrefix + token
	userID, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.NewDatabaseError(fmt.Errorf("failed to read session: %w", err))
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to refresh session ttl", map[string]interface{}{"error": err.Error()})
	}
	return userID, nil
}

// Delete invalidates a session token. Unknown tokens are ignored.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return errors.NewDatabaseError(fmt.Errorf("failed to delete session: %w", err))
	}
	return nil
}
