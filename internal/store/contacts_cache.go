// internal/store/contacts_cache.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"evocrm/internal/common/logger"
)

const contactsKeyPrefix = "contacts:"

// ContactCache keeps each user's contact list in Redis for a short while so
// repeated list views do not hammer the gateway. Misses and Redis failures
// both fall through to a live fetch.
type ContactCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewContactCache(client *redis.Client, ttl time.Duration, log logger.Logger) *ContactCache {
	return &ContactCache{client: client, ttl: ttl, logger: log}
}

// Get returns the cached contact payload for a user, or (nil, false) on miss.
func (c *ContactCache) Get(ctx context.Context, userID string) (interface{}, bool) {
	raw, err := c.client.Get(ctx, contactsKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("contact cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false
	}
	return payload, true
}

// Set stores a contact payload. Failures are logged, not returned.
func (c *ContactCache) Set(ctx context.Context, userID string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, contactsKeyPrefix+userID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("contact cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Invalidate drops a user's cached contacts.
func (c *ContactCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, contactsKeyPrefix+userID).Err(); err != nil {
		c.logger.Warn("contact cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}
