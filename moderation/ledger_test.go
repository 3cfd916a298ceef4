package moderation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/resenapp/escoba/store"

	"github.com/stretchr/testify/assert"
)

func seedNotice(fix *TestFixture, userID string, expiraEn time.Time) {
	fix.Notices.Put(&store.Notice{
		UsuarioID: userID,
		Tipo:      NoticeTypeImage,
		Fecha:     time.Now().Add(-time.Hour),
		ExpiraEn:  expiraEn,
		Estado:    NoticeActive,
	})
}

func TestLedgerBanEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	fix.Users.Put(&store.User{ID: "u1"})
	for i := 0; i < 4; i++ {
		seedNotice(fix, "u1", time.Now().Add(24*time.Hour))
	}

	// the 5th active notice crosses the threshold
	assert.NoError(fix.Engine.RecordImageInfraction(ctx, "u1", "r9"))

	u, err := fix.Users.Get(ctx, "u1")
	assert.NoError(err)
	assert.True(u.Baneado)
	assert.NotNil(u.BaneadoDesde)
}

func TestLedgerExpiredNoticesDoNotCount(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	fix.Users.Put(&store.User{ID: "u1"})
	for i := 0; i < 3; i++ {
		seedNotice(fix, "u1", time.Now().Add(24*time.Hour))
	}
	seedNotice(fix, "u1", time.Now().Add(-time.Minute))

	assert.NoError(fix.Engine.RecordImageInfraction(ctx, "u1", "r9"))

	u, err := fix.Users.Get(ctx, "u1")
	assert.NoError(err)
	assert.False(u.Baneado)
	assert.Len(fix.Notices.ForUser("u1"), 5)
}

func TestLedgerAnonymousAuthorNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	assert.NoError(fix.Engine.RecordImageInfraction(ctx, "", "r1"))
	assert.Empty(fix.Notices.ForUser(""))
}

func TestLedgerNoticeExpiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	before := time.Now()
	assert.NoError(fix.Engine.RecordImageInfraction(ctx, "u1", "r1"))

	notices := fix.Notices.ForUser("u1")
	assert.Len(notices, 1)
	n := notices[0]
	assert.Equal(NoticeActive, n.Estado)
	assert.WithinDuration(before.Add(NoticeWindow), n.ExpiraEn, time.Minute)
}

func TestLedgerIPInfractionIdempotent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := EngineTestFixture()

	assert.NoError(fix.Engine.RecordIPInfraction(ctx, "2001:db8::7"))
	assert.NoError(fix.Engine.RecordIPInfraction(ctx, "2001:db8::7"))
	assert.Len(fix.BannedIPs.Records, 1)

	assert.NoError(fix.Engine.RecordIPInfraction(ctx, ""))
	assert.Len(fix.BannedIPs.Records, 1)
}

func TestSanitizeIPDocID(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("203-0-113-7", SanitizeIPDocID("203.0.113.7"))
	assert.Equal("2001-db8--7", SanitizeIPDocID("2001:db8::7"))

	long := strings.Repeat("1234567890.", 20)
	assert.Len(SanitizeIPDocID(long), 120)
}
