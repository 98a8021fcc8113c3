package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/internal/profile"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/ClareAI/astra-personalization-bridge/pkg/redis"
	"go.uber.org/zap"
)

// ProfileCache is a Redis read-through cache in front of a profile directory.
// Cache failures degrade to a direct directory lookup.
type ProfileCache struct {
	next  profile.Directory
	redis redis.RedisServiceInterface
	ttl   time.Duration
}

var _ profile.Directory = (*ProfileCache)(nil)

// NewProfileCache wraps next with a cache whose entries live for ttl.
func NewProfileCache(next profile.Directory, redisSvc redis.RedisServiceInterface, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		next:  next,
		redis: redisSvc,
		ttl:   ttl,
	}
}

// Lookup implements profile.Directory.
func (c *ProfileCache) Lookup(ctx context.Context, callerID string) (domain.CustomerProfile, error) {
	key := c.redis.GenerateKey(redis.CUSTOMER_PROFILE, callerID)

	raw, err := c.redis.GetValue(ctx, key)
	switch {
	case err == nil:
		var p domain.CustomerProfile
		if jsonErr := json.Unmarshal([]byte(raw), &p); jsonErr == nil {
			return p, nil
		}
		logger.Warn(ctx, "discarding unreadable cached profile", zap.String("key", key))
	case !redis.IsNotExist(err):
		logger.Warn(ctx, "profile cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.Lookup(ctx, callerID)
	if err != nil {
		return p, err
	}

	data, err := json.Marshal(p)
	if err == nil {
		err = c.redis.SetValue(ctx, key, string(data), c.ttl)
	}
	if err != nil {
		logger.Warn(ctx, "profile cache write failed", zap.String("key", key), zap.Error(err))
	}

	return p, nil
}
