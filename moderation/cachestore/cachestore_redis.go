package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// key prefix namespaces this service's entries on a shared redis
const redisKeyPrefix = "escoba/ban/"

// RedisBanCache backs the cache with redis plus a small in-process TinyLFU layer, for
// deployments running more than one daemon instance.
type RedisBanCache struct {
	data *cache.Cache
	ttl  time.Duration
}

var _ BanCache = (*RedisBanCache)(nil)

func NewRedisBanCache(redisURL string, ttl time.Duration) (*RedisBanCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisBanCache{
		data: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(10_000, ttl),
		}),
		ttl: ttl,
	}, nil
}

func (c *RedisBanCache) GetBanStatus(ctx context.Context, userID string) (BanStatus, error) {
	var status BanStatus
	err := c.data.Get(ctx, redisKeyPrefix+userID, &status)
	if errors.Is(err, cache.ErrCacheMiss) {
		return BanStatusUnknown, nil
	}
	if err != nil {
		return BanStatusUnknown, err
	}
	return status, nil
}

func (c *RedisBanCache) SetBanStatus(ctx context.Context, userID string, status BanStatus) error {
	return c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKeyPrefix + userID,
		Value: status,
		TTL:   c.ttl,
	})
}

func (c *RedisBanCache) Purge(ctx context.Context, userID string) error {
	err := c.data.Delete(ctx, redisKeyPrefix+userID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
