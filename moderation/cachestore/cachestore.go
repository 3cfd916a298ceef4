// TTL cache fronting the user ban-status read the pipeline does on every upload. Ban
// state changes rarely but gets consulted constantly; a short TTL plus an explicit
// purge on ban writes keeps the window for stale reads small.
//
// Includes an interface and implementations using redis and in-process memory.
package cachestore

import (
	"context"
	"time"
)

// DefaultTTL bounds how stale a cached status can get when a purge is missed, for
// example after a ban written by a different process.
const DefaultTTL = 30 * time.Minute

// BanStatus is the cached verdict for one user. Unknown is a miss; callers fall
// through to the user store.
type BanStatus int

const (
	BanStatusUnknown BanStatus = iota
	BanStatusClear
	BanStatusBanned
)

func (s BanStatus) String() string {
	switch s {
	case BanStatusClear:
		return "clear"
	case BanStatusBanned:
		return "banned"
	}
	return "unknown"
}

type BanCache interface {
	GetBanStatus(ctx context.Context, userID string) (BanStatus, error)
	SetBanStatus(ctx context.Context, userID string, status BanStatus) error
	Purge(ctx context.Context, userID string) error
}
