// Moderation and cleanup rules for the review-publishing backend.
//
// Two event families drive the engine: storage-finalize events for freshly uploaded
// review images (the moderation pipeline), and user-document updates (the ban cleanup
// sweep). Every interesting side effect is a document mutation or an object deletion;
// there is no user-facing surface here.
package moderation

import (
	"strings"
	"time"

	"github.com/resenapp/escoba/store"
)

const (
	// storage namespace for review image uploads: resenas/<reviewId>/...
	ReviewImagePrefix = "resenas/"

	// active notices (any type) at which a user is auto-banned
	MaxActiveNotices = 5

	// rolling validity window of a notice
	NoticeWindow = 30 * 24 * time.Hour

	EstadoPendiente = "pendiente_revision"
	EstadoAprobada  = "aprobada"
	EstadoRechazada = "rechazada"

	NoticeTypeImage = "imagen_inadecuada"
	NoticeTypeBan   = "baneo_usuario"
	NoticeActive    = "activo"

	RejectReasonImage         = "imagen_inapropiada"
	RejectReasonBannedAccount = "Cuenta baneada. Esta reseña no se publicará."

	noticeMotiveImage = "La imagen subida en una reseña infringía las normas"
	defaultBanMotive  = "Cuenta baneada por infracciones repetidas"
)

// StorageObjectEvent is the at-least-once "object finalized" notification from the
// bucket.
type StorageObjectEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}

// ReviewID extracts the owning review from the object path, or "" when the event is
// not a review image upload.
func (evt *StorageObjectEvent) ReviewID() string {
	if !strings.HasPrefix(evt.Name, ReviewImagePrefix) {
		return ""
	}
	parts := strings.Split(evt.Name, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// UserStateEvent is a user-document update notification with before/after snapshots.
type UserStateEvent struct {
	UserID string      `json:"userId"`
	Before *store.User `json:"before,omitempty"`
	After  *store.User `json:"after,omitempty"`
}

// NewlyBanned reports whether this update is the transition the cleanup sweep reacts
// to: prior state not banned (or absent), new state banned.
func (evt *UserStateEvent) NewlyBanned() bool {
	if evt.After == nil || !evt.After.Baneado {
		return false
	}
	return evt.Before == nil || !evt.Before.Baneado
}
