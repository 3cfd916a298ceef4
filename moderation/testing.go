package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/resenapp/escoba/moderation/cachestore"
	"github.com/resenapp/escoba/moderation/visual"
	"github.com/resenapp/escoba/objstore"
	"github.com/resenapp/escoba/store"
)

// StubClassifier serves canned annotations keyed by image URI. Intentionally
// exported, for use in other packages' tests.
type StubClassifier struct {
	Annotations map[string]*visual.SafeSearchAnnotation
	Default     *visual.SafeSearchAnnotation
	Err         error
}

var _ visual.Classifier = (*StubClassifier)(nil)

func (s *StubClassifier) Annotate(ctx context.Context, imageURI string) (*visual.SafeSearchAnnotation, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if a, ok := s.Annotations[imageURI]; ok {
		return a, nil
	}
	if s.Default != nil {
		return s.Default, nil
	}
	return &visual.SafeSearchAnnotation{}, nil
}

// TestFixture bundles an engine with the fakes behind it so tests can seed state and
// assert on side effects.
type TestFixture struct {
	Engine     *Engine
	Reviews    *store.MemReviewStore
	Users      *store.MemUserStore
	Notices    *store.MemNoticeStore
	BannedIPs  *store.MemBannedIPStore
	Objects    *objstore.MemObjectStore
	Classifier *StubClassifier
}

func EngineTestFixture() *TestFixture {
	reviews := store.NewMemReviewStore()
	users := store.NewMemUserStore()
	notices := store.NewMemNoticeStore()
	bannedIPs := store.NewMemBannedIPStore()
	objects := objstore.NewMemObjectStore("resenapp-media")
	classifier := &StubClassifier{Annotations: make(map[string]*visual.SafeSearchAnnotation)}
	eng := &Engine{
		Logger:       slog.Default(),
		Reviews:      reviews,
		Users:        users,
		Notices:      notices,
		BannedIPs:    bannedIPs,
		Objects:      objects,
		Classifier:   classifier,
		OraclePolicy: visual.FailClosed,
		Cache:        cachestore.NewMemBanCache(100, time.Minute),
	}
	return &TestFixture{
		Engine:     eng,
		Reviews:    reviews,
		Users:      users,
		Notices:    notices,
		BannedIPs:  bannedIPs,
		Objects:    objects,
		Classifier: classifier,
	}
}
