package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpectedImages(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1, (&Review{}).ExpectedImages())
	assert.Equal(3, (&Review{NumImagenes: 3}).ExpectedImages())
	assert.Equal(2, (&Review{TotalImagenes: 2}).ExpectedImages())
	// numImagenes wins over the legacy field
	assert.Equal(3, (&Review{NumImagenes: 3, TotalImagenes: 2}).ExpectedImages())
}

func TestMemReviewPatchMerges(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemReviewStore()
	s.Put(&Review{ID: "r1", UsuarioID: "u1", Estado: "pendiente_revision", NumImagenes: 2, IPCreacion: "203.0.113.7"})

	err := s.Patch(ctx, "r1", Patch{"estado": "rechazada", "visibleParaAutor": false})
	assert.NoError(err)

	r, err := s.Get(ctx, "r1")
	assert.NoError(err)
	assert.Equal("rechazada", r.Estado)
	// untouched fields survive the merge
	assert.Equal("u1", r.UsuarioID)
	assert.Equal(2, r.NumImagenes)
	assert.Equal("203.0.113.7", r.IPCreacion)

	assert.ErrorIs(s.Patch(ctx, "missing", Patch{"estado": "rechazada"}), ErrNotFound)
}

func TestMemReviewUpdate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemReviewStore()
	s.Put(&Review{ID: "r1", Estado: "pendiente_revision"})

	err := s.Update(ctx, "r1", func(r *Review) (Patch, error) {
		procesadas := append(r.ImagenesProcesadas, ProcessedImage{Path: "resenas/r1/a.jpg"})
		return Patch{"imagenesProcesadas": procesadas}, nil
	})
	assert.NoError(err)

	r, err := s.Get(ctx, "r1")
	assert.NoError(err)
	assert.Len(r.ImagenesProcesadas, 1)

	// nil patch means no write
	err = s.Update(ctx, "r1", func(r *Review) (Patch, error) { return nil, nil })
	assert.NoError(err)
	r, _ = s.Get(ctx, "r1")
	assert.Len(r.ImagenesProcesadas, 1)

	assert.ErrorIs(s.Update(ctx, "missing", func(r *Review) (Patch, error) { return nil, nil }), ErrNotFound)
}

func TestMemUserPatchUpserts(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemUserStore()
	now := time.Now()

	// merge-create on a user document that does not exist yet
	assert.NoError(s.Patch(ctx, "u1", Patch{"baneado": true, "baneadoDesde": now}))

	u, err := s.Get(ctx, "u1")
	assert.NoError(err)
	assert.True(u.Baneado)
	assert.NotNil(u.BaneadoDesde)

	// later merge leaves ban fields alone
	assert.NoError(s.Patch(ctx, "u1", Patch{"motivoBaneo": "spam"}))
	u, _ = s.Get(ctx, "u1")
	assert.True(u.Baneado)
	assert.Equal("spam", u.MotivoBaneo)
}

func TestMemNoticeCountActive(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemNoticeStore()
	now := time.Now()
	s.Put(&Notice{UsuarioID: "u1", ExpiraEn: now.Add(time.Hour)})
	s.Put(&Notice{UsuarioID: "u1", ExpiraEn: now.Add(-time.Hour)})
	s.Put(&Notice{UsuarioID: "u2", ExpiraEn: now.Add(time.Hour)})

	count, err := s.CountActive(ctx, "u1", now)
	assert.NoError(err)
	assert.Equal(1, count)
}

func TestMemListByUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemReviewStore()
	s.Put(&Review{ID: "r1", UsuarioID: "u1"})
	s.Put(&Review{ID: "r2", UsuarioID: "u1"})
	s.Put(&Review{ID: "r3", UsuarioID: "u2"})

	reviews, err := s.ListByUser(ctx, "u1")
	assert.NoError(err)
	assert.Len(reviews, 2)
}
