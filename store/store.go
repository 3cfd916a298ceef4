// Document storage for the review moderation service.
//
// Entities mirror the production document shapes (Spanish field vocabulary: reseñas,
// avisos, usuarios). Every write goes through an explicit Patch (field merge), never a
// full-object overwrite, so concurrent writers touching unrelated fields cannot
// clobber each other.
//
// Includes an interface per entity and implementations using in-process memory, GORM
// (sqlite/postgres), and Firestore.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get-style lookups when no document exists with the
// requested identifier.
var ErrNotFound = errors.New("document not found")

// Patch is a field-level merge: keys are document field names, values replace the
// current field value. Fields not named are left untouched.
type Patch map[string]any

// ProcessedImage is one entry of a review's moderated-image sequence, in arrival
// order.
type ProcessedImage struct {
	URL         string    `json:"url" firestore:"url"`
	Path        string    `json:"path" firestore:"path"`
	Moderacion  string    `json:"moderacion" firestore:"moderacion"`
	ProcesadaEn time.Time `json:"procesadaEn" firestore:"procesadaEn"`
}

type Review struct {
	ID                 string           `json:"id" firestore:"-"`
	UsuarioID          string           `json:"usuarioId" firestore:"usuarioId"`
	Estado             string           `json:"estado" firestore:"estado"`
	MotivoRechazo      string           `json:"motivoRechazo,omitempty" firestore:"motivoRechazo,omitempty"`
	VisibleParaAutor   bool             `json:"visibleParaAutor" firestore:"visibleParaAutor"`
	Imagenes           []string         `json:"imagenes,omitempty" firestore:"imagenes"`
	ImagenesProcesadas []ProcessedImage `json:"imagenesProcesadas,omitempty" firestore:"imagenesProcesadas"`
	// storage paths uploaded but not yet moderated (written by older clients)
	ImagenesPendientes []string  `json:"imagenesPendientes,omitempty" firestore:"imagenesPendientes"`
	NumImagenes        int       `json:"numImagenes,omitempty" firestore:"numImagenes"`
	TotalImagenes      int       `json:"totalImagenes,omitempty" firestore:"totalImagenes"`
	IPCreacion         string    `json:"ipCreacion,omitempty" firestore:"ipCreacion"`
	Creado             time.Time `json:"creado,omitempty" firestore:"creado"`
	Actualizado        time.Time `json:"actualizado,omitempty" firestore:"actualizado"`
}

// ExpectedImages is how many uploads this review is waiting on before it can be
// approved. Older clients wrote totalImagenes instead of numImagenes; absent both,
// a review carries a single image.
func (r *Review) ExpectedImages() int {
	if r.NumImagenes > 0 {
		return r.NumImagenes
	}
	if r.TotalImagenes > 0 {
		return r.TotalImagenes
	}
	return 1
}

type User struct {
	ID           string     `json:"id" firestore:"-"`
	Baneado      bool       `json:"baneado" firestore:"baneado"`
	BaneadoDesde *time.Time `json:"baneadoDesde,omitempty" firestore:"baneadoDesde,omitempty"`
	MotivoBaneo  string     `json:"motivoBaneo,omitempty" firestore:"motivoBaneo,omitempty"`
}

type Notice struct {
	ID        string    `json:"id" firestore:"-"`
	UsuarioID string    `json:"usuarioId" firestore:"usuarioId"`
	Tipo      string    `json:"tipo" firestore:"tipo"`
	Motivo    string    `json:"motivo" firestore:"motivo"`
	ResenaID  string    `json:"resenaId,omitempty" firestore:"resenaId,omitempty"`
	Fecha     time.Time `json:"fecha" firestore:"fecha"`
	ExpiraEn  time.Time `json:"expiraEn" firestore:"expiraEn"`
	Estado    string    `json:"estado" firestore:"estado"`
}

type BannedIP struct {
	ID           string    `json:"id" firestore:"-"`
	IP           string    `json:"ip" firestore:"ip"`
	BaneadaDesde time.Time `json:"baneadaDesde" firestore:"baneadaDesde"`
}

type ReviewStore interface {
	Get(ctx context.Context, id string) (*Review, error)
	// Patch merge-writes the named fields. Fails with ErrNotFound if the review does
	// not exist.
	Patch(ctx context.Context, id string, p Patch) error
	// Update runs fn against the current document state and merge-writes the returned
	// patch, as a single atomic read-modify-write. A nil patch from fn means no write.
	Update(ctx context.Context, id string, fn func(r *Review) (Patch, error)) error
	ListByUser(ctx context.Context, userID string) ([]*Review, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*User, error)
	// Patch merge-writes the named fields, creating the document if absent.
	Patch(ctx context.Context, id string, p Patch) error
}

type NoticeStore interface {
	// Add appends a notice and returns its generated identifier. Notices are
	// append-only; nothing ever mutates them.
	Add(ctx context.Context, n *Notice) (string, error)
	// CountActive counts this user's notices (any type) whose expiry is after now.
	CountActive(ctx context.Context, userID string, now time.Time) (int, error)
}

type BannedIPStore interface {
	// Upsert merge-writes the record keyed by rec.ID; repeat calls for the same IP
	// land on the same document.
	Upsert(ctx context.Context, rec *BannedIP) error
}
