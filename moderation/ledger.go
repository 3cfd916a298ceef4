package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resenapp/escoba/store"
)

// RecordImageInfraction appends an imagen_inadecuada notice against the user and
// auto-bans once the active-notice threshold is reached. A review with no resolved
// author cannot be escalated; empty userID is a no-op.
//
// The ban is monotonic: this path only ever sets baneado, never clears it, and the
// write is a field merge so moderator-written fields survive.
func (eng *Engine) RecordImageInfraction(ctx context.Context, userID, reviewID string) error {
	if userID == "" {
		return nil
	}
	now := time.Now()
	_, err := eng.Notices.Add(ctx, &store.Notice{
		UsuarioID: userID,
		Tipo:      NoticeTypeImage,
		Motivo:    noticeMotiveImage,
		ResenaID:  reviewID,
		Fecha:     now,
		ExpiraEn:  now.Add(NoticeWindow),
		Estado:    NoticeActive,
	})
	if err != nil {
		return fmt.Errorf("adding notice: %w", err)
	}
	noticeCreatedCount.WithLabelValues(NoticeTypeImage).Inc()

	active, err := eng.Notices.CountActive(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("counting active notices: %w", err)
	}
	if active < MaxActiveNotices {
		return nil
	}
	if err := eng.Users.Patch(ctx, userID, store.Patch{
		"baneado":      true,
		"baneadoDesde": now,
	}); err != nil {
		return fmt.Errorf("banning user %s: %w", userID, err)
	}
	eng.purgeUserBanCache(ctx, userID)
	userBannedCount.Inc()
	eng.Logger.Warn("user auto-banned after repeated infractions", "usuarioId", userID, "avisosActivos", active)
	return nil
}

// RecordIPInfraction upserts a banned-IP ledger record. It does not itself block
// anything; admission checks elsewhere consult the ledger. Empty ip is a no-op.
func (eng *Engine) RecordIPInfraction(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	err := eng.BannedIPs.Upsert(ctx, &store.BannedIP{
		ID:           SanitizeIPDocID(ip),
		IP:           ip,
		BaneadaDesde: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("upserting banned IP: %w", err)
	}
	return nil
}

// SanitizeIPDocID derives a deterministic document id from an IP string so repeat
// infractions land on the same record: non-alphanumerics become '-', bounded length.
func SanitizeIPDocID(ip string) string {
	var b strings.Builder
	for _, r := range ip {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	id := b.String()
	if len(id) > 120 {
		id = id[:120]
	}
	return id
}
