package moderation

import (
	"context"
	"testing"

	"github.com/resenapp/escoba/objstore"
	"github.com/resenapp/escoba/store"

	"github.com/stretchr/testify/assert"
)

func banEvent(userID string, beforeBanned bool) UserStateEvent {
	var before *store.User
	if beforeBanned {
		before = &store.User{ID: userID, Baneado: true}
	} else {
		before = &store.User{ID: userID}
	}
	return UserStateEvent{
		UserID: userID,
		Before: before,
		After:  &store.User{ID: userID, Baneado: true, MotivoBaneo: "spam reiterado"},
	}
}

func TestBanSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	// 3 reviews, 5 distinct paths spread across the legacy formats
	fix.Reviews.Put(&store.Review{
		ID: "r1", UsuarioID: "u1", Estado: EstadoAprobada,
		ImagenesProcesadas: []store.ProcessedImage{
			{Path: "resenas/r1/a.jpg", URL: objstore.PublicURL("resenapp-media", "resenas/r1/a.jpg")},
			{Path: "resenas/r1/b.jpg", URL: objstore.PublicURL("resenapp-media", "resenas/r1/b.jpg")},
		},
	})
	fix.Reviews.Put(&store.Review{
		ID: "r2", UsuarioID: "u1", Estado: EstadoPendiente,
		ImagenesPendientes: []string{"resenas/r2/a.jpg", "resenas/r2/b.jpg"},
	})
	fix.Reviews.Put(&store.Review{
		ID: "r3", UsuarioID: "u1", Estado: EstadoAprobada,
		Imagenes: []string{
			"https://storage.googleapis.com/resenapp-media/resenas/r3/old.jpg",
			"resenas/r3/raw.jpg",
		},
	})
	// unrelated user untouched
	fix.Reviews.Put(&store.Review{ID: "other", UsuarioID: "u2", Estado: EstadoAprobada})

	// one deletion fails; the sweep must carry on
	fix.Objects.FailPaths["resenas/r2/a.jpg"] = true

	assert.NoError(fix.Engine.ProcessUserUpdate(ctx, banEvent("u1", false)))

	for _, id := range []string{"r1", "r2", "r3"} {
		r, err := fix.Reviews.Get(ctx, id)
		assert.NoError(err)
		assert.Equal(EstadoRechazada, r.Estado, "review %s", id)
		assert.Equal(RejectReasonBannedAccount, r.MotivoRechazo)
		assert.False(r.VisibleParaAutor)
	}
	other, err := fix.Reviews.Get(ctx, "other")
	assert.NoError(err)
	assert.Equal(EstadoAprobada, other.Estado)

	assert.ElementsMatch([]string{
		"resenas/r1/a.jpg", "resenas/r1/b.jpg",
		"resenas/r2/a.jpg", "resenas/r2/b.jpg",
		"resenas/r3/raw.jpg",
	}, fix.Objects.DeleteAttempts())

	notices := fix.Notices.ForUser("u1")
	assert.Len(notices, 1)
	assert.Equal(NoticeTypeBan, notices[0].Tipo)
	assert.Equal("spam reiterado", notices[0].Motivo)
}

func TestBanSweepAlreadyBannedNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	fix.Reviews.Put(&store.Review{
		ID: "r1", UsuarioID: "u1", Estado: EstadoAprobada,
		ImagenesProcesadas: []store.ProcessedImage{{Path: "resenas/r1/a.jpg"}},
	})

	assert.NoError(fix.Engine.ProcessUserUpdate(ctx, banEvent("u1", true)))

	r, err := fix.Reviews.Get(ctx, "r1")
	assert.NoError(err)
	assert.Equal(EstadoAprobada, r.Estado)
	assert.Empty(fix.Objects.DeleteAttempts())
	assert.Empty(fix.Notices.ForUser("u1"))
}

func TestBanSweepUnbanNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	evt := UserStateEvent{
		UserID: "u1",
		Before: &store.User{ID: "u1", Baneado: true},
		After:  &store.User{ID: "u1", Baneado: false},
	}
	assert.NoError(fix.Engine.ProcessUserUpdate(ctx, evt))
	assert.Empty(fix.Notices.ForUser("u1"))
}

func TestBanSweepDefaultMotive(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	evt := UserStateEvent{
		UserID: "u1",
		After:  &store.User{ID: "u1", Baneado: true},
	}
	assert.NoError(fix.Engine.ProcessUserUpdate(ctx, evt))

	notices := fix.Notices.ForUser("u1")
	assert.Len(notices, 1)
	assert.NotEmpty(notices[0].Motivo)
}

func TestCollectReviewPaths(t *testing.T) {
	assert := assert.New(t)

	r := &store.Review{
		ID: "r1",
		ImagenesProcesadas: []store.ProcessedImage{
			{Path: "resenas/r1/a.jpg"},
			{Path: ""},
		},
		ImagenesPendientes: []string{"resenas/r1/a.jpg", "resenas/r1/b.jpg"},
		Imagenes: []string{
			"https://storage.googleapis.com/bucket/resenas/r1/a.jpg",
			"resenas/r1/c.jpg",
			"thumbnails/r1/ignored.jpg",
		},
	}
	assert.ElementsMatch(
		[]string{"resenas/r1/a.jpg", "resenas/r1/b.jpg", "resenas/r1/c.jpg"},
		collectReviewPaths(r),
	)
}
