package moderation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/resenapp/escoba/moderation/cachestore"
	"github.com/resenapp/escoba/moderation/visual"
	"github.com/resenapp/escoba/objstore"
	"github.com/resenapp/escoba/store"
)

// Engine is the runtime for the moderation pipeline, the infraction ledger, and the
// ban cleanup sweep. All collaborators are injected; substituting in-memory fakes is
// how the tests run.
//
// Each Process* invocation is an isolated unit of work; the engine keeps no mutable
// state of its own between events.
type Engine struct {
	Logger    *slog.Logger
	Reviews   store.ReviewStore
	Users     store.UserStore
	Notices   store.NoticeStore
	BannedIPs store.BannedIPStore
	Objects   objstore.ObjectStore

	// Classifier may be nil; OraclePolicy then decides every verdict. Production
	// wiring refuses that combination unless fail-open was asked for explicitly.
	Classifier   visual.Classifier
	OraclePolicy visual.FailurePolicy

	// optional TTL cache fronting user ban-status reads
	Cache cachestore.BanCache
}

// userIsBanned consults the cache (when configured) before the user store. A missing
// user is simply not banned.
func (eng *Engine) userIsBanned(ctx context.Context, userID string) (bool, error) {
	if eng.Cache != nil {
		status, err := eng.Cache.GetBanStatus(ctx, userID)
		if err != nil {
			eng.Logger.Warn("user-ban cache read failed", "usuarioId", userID, "err", err)
		}
		switch status {
		case cachestore.BanStatusBanned:
			return true, nil
		case cachestore.BanStatusClear:
			return false, nil
		}
	}
	u, err := eng.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if eng.Cache != nil {
		status := cachestore.BanStatusClear
		if u.Baneado {
			status = cachestore.BanStatusBanned
		}
		if err := eng.Cache.SetBanStatus(ctx, userID, status); err != nil {
			eng.Logger.Warn("user-ban cache write failed", "usuarioId", userID, "err", err)
		}
	}
	return u.Baneado, nil
}

func (eng *Engine) purgeUserBanCache(ctx context.Context, userID string) {
	if eng.Cache == nil {
		return
	}
	if err := eng.Cache.Purge(ctx, userID); err != nil {
		eng.Logger.Warn("user-ban cache purge failed", "usuarioId", userID, "err", err)
	}
}

// deleteObject is the shared best-effort object removal; absent objects are fine
// under at-least-once delivery.
func (eng *Engine) deleteObject(ctx context.Context, path string) error {
	err := eng.Objects.Delete(ctx, path, true)
	if err == nil {
		objectDeleteCount.WithLabelValues("ok").Inc()
	} else {
		objectDeleteCount.WithLabelValues("error").Inc()
	}
	return err
}
