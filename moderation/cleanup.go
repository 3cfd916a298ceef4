package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resenapp/escoba/store"
)

// ProcessUserUpdate is the ban cleanup sweep. It only acts on the transition into the
// banned state; every other user update is a no-op. Per-review and per-path failures
// are logged and skipped, but a failure of the review listing itself is fatal so the
// trigger source retries the whole sweep.
func (eng *Engine) ProcessUserUpdate(ctx context.Context, evt UserStateEvent) error {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("moderation event execution exception", "err", r, "usuarioId", evt.UserID)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("user").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("user").Inc()

	if !evt.NewlyBanned() {
		return nil
	}
	logger := eng.Logger.With("usuarioId", evt.UserID)
	logger.Info("user newly banned, sweeping reviews")
	eng.purgeUserBanCache(ctx, evt.UserID)

	reviews, err := eng.Reviews.ListByUser(ctx, evt.UserID)
	if err != nil {
		return fmt.Errorf("listing reviews for banned user %s: %w", evt.UserID, err)
	}

	for _, review := range reviews {
		paths := collectReviewPaths(review)

		if err := eng.Reviews.Patch(ctx, review.ID, store.Patch{
			"estado":           EstadoRechazada,
			"motivoRechazo":    RejectReasonBannedAccount,
			"visibleParaAutor": false,
			"actualizado":      time.Now(),
		}); err != nil {
			logger.Error("hiding review failed", "resenaId", review.ID, "err", err)
			continue
		}
		reviewRejectedCount.WithLabelValues("ban_sweep").Inc()

		for _, path := range paths {
			if err := eng.deleteObject(ctx, path); err != nil {
				logger.Error("deleting review image failed", "resenaId", review.ID, "path", path, "err", err)
			}
		}
	}

	motivo := defaultBanMotive
	if evt.After != nil && evt.After.MotivoBaneo != "" {
		motivo = evt.After.MotivoBaneo
	}
	now := time.Now()
	if _, err := eng.Notices.Add(ctx, &store.Notice{
		UsuarioID: evt.UserID,
		Tipo:      NoticeTypeBan,
		Motivo:    motivo,
		Fecha:     now,
		ExpiraEn:  now.Add(NoticeWindow),
		Estado:    NoticeActive,
	}); err != nil {
		return fmt.Errorf("adding ban notice: %w", err)
	}
	noticeCreatedCount.WithLabelValues(NoticeTypeBan).Inc()
	logger.Info("ban sweep complete", "resenas", len(reviews))
	return nil
}

// collectReviewPaths gathers every storage path associated with a review, across the
// three formats clients have written over time: the processed-image sequence, the raw
// pending-path list, and bare paths in the flat image list. Deduplicated, unordered.
func collectReviewPaths(r *store.Review) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, img := range r.ImagenesProcesadas {
		add(img.Path)
	}
	for _, p := range r.ImagenesPendientes {
		add(p)
	}
	for _, entry := range r.Imagenes {
		// flat list mixes public URLs with raw paths; only raw namespace paths are
		// deletable objects
		if !strings.HasPrefix(entry, "http") && strings.Contains(entry, ReviewImagePrefix) {
			add(entry)
		}
	}
	return out
}
