package moderation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/resenapp/escoba/moderation/visual"
	"github.com/resenapp/escoba/objstore"
	"github.com/resenapp/escoba/store"
)

// ProcessObjectFinalize is the per-upload moderation pipeline. Events outside the
// review-image namespace are ignored. For review images, in strict order: orphan
// check, banned-author check, classification, then either rejection bookkeeping or
// aggregation toward approval.
func (eng *Engine) ProcessObjectFinalize(ctx context.Context, evt StorageObjectEvent) error {
	// recover any panics from rule execution, as an HTTP server would
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("moderation event execution exception", "err", r, "path", evt.Name)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("storage").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("storage").Inc()

	if !strings.HasPrefix(evt.Name, ReviewImagePrefix) {
		return nil
	}
	logger := eng.Logger.With("path", evt.Name)

	reviewID := evt.ReviewID()
	if reviewID == "" {
		logger.Warn("could not determine review for uploaded image")
		return nil
	}
	logger = logger.With("resenaId", reviewID)

	review, err := eng.Reviews.Get(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// orphaned upload, nothing to attach it to
			logger.Warn("review does not exist for uploaded image, deleting object")
			if err := eng.deleteObject(ctx, evt.Name); err != nil {
				return fmt.Errorf("deleting orphaned object: %w", err)
			}
			return nil
		}
		return fmt.Errorf("loading review %s: %w", reviewID, err)
	}

	if review.UsuarioID != "" {
		banned, err := eng.userIsBanned(ctx, review.UsuarioID)
		if err != nil {
			// this lookup alone fails open: classification still gates the content
			logger.Error("could not check user ban state", "usuarioId", review.UsuarioID, "err", err)
			banned = false
		}
		if banned {
			logger.Warn("image blocked for banned account", "usuarioId", review.UsuarioID)
			if err := eng.deleteObject(ctx, evt.Name); err != nil {
				logger.Error("deleting blocked object failed", "err", err)
			}
			if err := eng.Reviews.Patch(ctx, reviewID, store.Patch{
				"estado":           EstadoRechazada,
				"motivoRechazo":    RejectReasonBannedAccount,
				"visibleParaAutor": false,
				"actualizado":      time.Now(),
			}); err != nil {
				return fmt.Errorf("rejecting review for banned account: %w", err)
			}
			reviewRejectedCount.WithLabelValues("banned_author").Inc()
			return nil
		}
	}

	// the configured bucket is the source of truth here, not the event: the approval
	// path builds the public URL from it, and the two must never diverge
	imageURI := fmt.Sprintf("gs://%s/%s", eng.Objects.Bucket(), evt.Name)
	verdict, err := visual.Moderate(ctx, eng.Classifier, imageURI, eng.OraclePolicy)
	if err != nil {
		logger.Warn("image classification failed, applying failure policy", "err", err, "approved", verdict.Approved)
	}

	if !verdict.Approved {
		if err := eng.deleteObject(ctx, evt.Name); err != nil {
			logger.Error("deleting rejected object failed", "err", err)
		}
		if err := eng.Reviews.Patch(ctx, reviewID, store.Patch{
			"estado":           EstadoRechazada,
			"motivoRechazo":    RejectReasonImage,
			"visibleParaAutor": false,
			"actualizado":      time.Now(),
		}); err != nil {
			return fmt.Errorf("rejecting review: %w", err)
		}
		reviewRejectedCount.WithLabelValues("content").Inc()
		if err := eng.RecordImageInfraction(ctx, review.UsuarioID, reviewID); err != nil {
			return fmt.Errorf("recording infraction: %w", err)
		}
		if err := eng.RecordIPInfraction(ctx, review.IPCreacion); err != nil {
			return fmt.Errorf("recording IP infraction: %w", err)
		}
		logger.Info("review image rejected", "detalles", verdict.Details)
		return nil
	}

	publicURL := objstore.PublicURL(eng.Objects.Bucket(), evt.Name)
	var approved bool
	err = eng.Reviews.Update(ctx, reviewID, func(r *store.Review) (store.Patch, error) {
		// a rejected review stays rejected; a late approval for a sibling image must
		// not resurrect it
		if r.Estado == EstadoRechazada {
			return nil, nil
		}
		// at-least-once delivery: the same object may arrive twice
		for _, img := range r.ImagenesProcesadas {
			if img.Path == evt.Name {
				return nil, nil
			}
		}
		procesadas := append(slices.Clone(r.ImagenesProcesadas), store.ProcessedImage{
			URL:         publicURL,
			Path:        evt.Name,
			Moderacion:  verdict.Details,
			ProcesadaEn: time.Now(),
		})
		estado := EstadoPendiente
		if len(procesadas) >= r.ExpectedImages() {
			estado = EstadoAprobada
			approved = true
		}
		urls := make([]string, len(procesadas))
		for i, img := range procesadas {
			urls[i] = img.URL
		}
		return store.Patch{
			"imagenesProcesadas": procesadas,
			"estado":             estado,
			"imagenes":           urls,
			"actualizado":        time.Now(),
		}, nil
	})
	if err != nil {
		return fmt.Errorf("appending processed image: %w", err)
	}
	if approved {
		logger.Info("review approved automatically after moderation")
		reviewApprovedCount.Inc()
	}
	return nil
}
