package tweetcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/db"
	"github.com/kailas-cloud/tweetdex/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "fx:"

// store is the consumer interface for the payload cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache keeps tweet embed payloads in the key-value store.
// Cache failures are logged and never surface to callers.
type Cache struct {
	store  store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a payload cache. A non-positive ttl disables writes.
func New(s store, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, logger: logger}
}

// Get returns the cached payload for a tweet.
func (c *Cache) Get(ctx context.Context, id string) (json.RawMessage, bool) {
	data, err := c.store.Get(ctx, keyPrefix+id)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached tweet", zap.String("tweet_id", id), zap.Error(err))
		}
		return nil, false
	}
	if !json.Valid(data) {
		return nil, false
	}
	return data, true
}

// Put caches a payload for the configured TTL.
func (c *Cache) Put(ctx context.Context, id string, payload json.RawMessage) {
	if c.ttl <= 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, keyPrefix+id, payload, c.ttl); err != nil {
		c.logger.Warn("Failed to cache tweet", zap.String("tweet_id", id), zap.Error(err))
	}
}
