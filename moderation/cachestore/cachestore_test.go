package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemBanCacheBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	c := NewMemBanCache(10, time.Hour)

	status, err := c.GetBanStatus(ctx, "u1")
	assert.NoError(err)
	assert.Equal(BanStatusUnknown, status)

	assert.NoError(c.SetBanStatus(ctx, "u1", BanStatusBanned))
	status, err = c.GetBanStatus(ctx, "u1")
	assert.NoError(err)
	assert.Equal(BanStatusBanned, status)

	// a different user is still a miss
	status, err = c.GetBanStatus(ctx, "u2")
	assert.NoError(err)
	assert.Equal(BanStatusUnknown, status)

	assert.NoError(c.SetBanStatus(ctx, "u1", BanStatusClear))
	status, err = c.GetBanStatus(ctx, "u1")
	assert.NoError(err)
	assert.Equal(BanStatusClear, status)

	// a purged entry goes back to unknown, not clear
	assert.NoError(c.Purge(ctx, "u1"))
	status, err = c.GetBanStatus(ctx, "u1")
	assert.NoError(err)
	assert.Equal(BanStatusUnknown, status)
}

func TestBanStatusString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("unknown", BanStatusUnknown.String())
	assert.Equal("clear", BanStatusClear.String())
	assert.Equal("banned", BanStatusBanned.String())
	assert.Equal("unknown", BanStatus(99).String())
}
