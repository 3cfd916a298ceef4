package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemBanCache is the single-process backend, suitable when one daemon instance owns
// all event processing.
type MemBanCache struct {
	data *expirable.LRU[string, BanStatus]
}

var _ BanCache = (*MemBanCache)(nil)

func NewMemBanCache(capacity int, ttl time.Duration) *MemBanCache {
	return &MemBanCache{
		data: expirable.NewLRU[string, BanStatus](capacity, nil, ttl),
	}
}

func (c *MemBanCache) GetBanStatus(ctx context.Context, userID string) (BanStatus, error) {
	status, ok := c.data.Get(userID)
	if !ok {
		return BanStatusUnknown, nil
	}
	return status, nil
}

func (c *MemBanCache) SetBanStatus(ctx context.Context, userID string, status BanStatus) error {
	c.data.Add(userID, status)
	return nil
}

func (c *MemBanCache) Purge(ctx context.Context, userID string) error {
	c.data.Remove(userID)
	return nil
}
