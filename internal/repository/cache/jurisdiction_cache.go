package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sanitation-complaints/internal/domain"
	"github.com/sanitation-complaints/internal/domain/repository"
	"github.com/sanitation-complaints/internal/pkg/errors"
	"go.uber.org/zap"
)

const (
	jurisdictionKeyFmt   = "jurisdiction:%d:%d"
	jurisdictionEpochFmt = "jurisdiction:epoch:%d"
)

type jurisdictionCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewJurisdictionCache(r *Redis) repository.JurisdictionCache {
	return &jurisdictionCache{
		client: r.Client(),
		logger: r.logger,
	}
}

func (c *jurisdictionCache) cacheError(operation string, actorID int64, err error) error {
	c.logger.Error("Jurisdiction cache operation failed",
		zap.String("operation", operation),
		zap.Int64("actor_id", actorID),
		zap.Error(err))
	return errors.ErrCacheError.WithDetails(map[string]interface{}{
		"operation": operation,
	})
}

func (c *jurisdictionCache) epoch(ctx context.Context, actorID int64) (int64, error) {
	epoch, err := c.client.Get(ctx, fmt.Sprintf(jurisdictionEpochFmt, actorID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, c.cacheError("jurisdiction.epoch", actorID, err)
	}
	return epoch, nil
}

func (c *jurisdictionCache) Get(ctx context.Context, actorID int64) (*domain.Jurisdiction, int64, error) {
	epoch, err := c.epoch(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}

	key := fmt.Sprintf(jurisdictionKeyFmt, actorID, epoch)
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, epoch, nil
	}
	if err != nil {
		return nil, epoch, c.cacheError("jurisdiction.get", actorID, err)
	}

	var j domain.Jurisdiction
	if err := json.Unmarshal(data, &j); err != nil {
		// unreadable entry is treated as a miss and overwritten by the next Set
		c.logger.Warn("Dropping malformed jurisdiction cache entry", zap.String("key", key), zap.Error(err))
		return nil, epoch, nil
	}

	c.logger.Debug("Jurisdiction cache hit", zap.String("key", key))
	return &j, epoch, nil
}

func (c *jurisdictionCache) Set(ctx context.Context, j *domain.Jurisdiction, epoch int64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(j)
	if err != nil {
		return c.cacheError("jurisdiction.marshal", j.ActorID, err)
	}

	key := fmt.Sprintf(jurisdictionKeyFmt, j.ActorID, epoch)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return c.cacheError("jurisdiction.set", j.ActorID, err)
	}

	c.logger.Debug("Jurisdiction cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *jurisdictionCache) Invalidate(ctx context.Context, actorID int64) error {
	epoch, err := c.client.Incr(ctx, fmt.Sprintf(jurisdictionEpochFmt, actorID)).Result()
	if err != nil {
		return c.cacheError("jurisdiction.invalidate", actorID, err)
	}

	c.logger.Debug("Jurisdiction cache invalidated",
		zap.Int64("actor_id", actorID),
		zap.Int64("epoch", epoch))
	return nil
}
