package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore-backed implementations; this is the managed backend the production
// documents live in. Collection names match the deployed database.

const (
	colReviews   = "resenas"
	colUsers     = "usuarios"
	colNotices   = "avisos"
	colBannedIPs = "ipsBaneadas"
)

func isFirestoreNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func firestoreUpdates(p Patch) []firestore.Update {
	out := make([]firestore.Update, 0, len(p))
	for k, v := range p {
		out = append(out, firestore.Update{Path: k, Value: v})
	}
	return out
}

type FirestoreReviewStore struct {
	Client *firestore.Client
}

var _ ReviewStore = (*FirestoreReviewStore)(nil)

func (s *FirestoreReviewStore) Get(ctx context.Context, id string) (*Review, error) {
	snap, err := s.Client.Collection(colReviews).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var r Review
	if err := snap.DataTo(&r); err != nil {
		return nil, fmt.Errorf("decoding review %s: %w", id, err)
	}
	r.ID = snap.Ref.ID
	return &r, nil
}

func (s *FirestoreReviewStore) Patch(ctx context.Context, id string, p Patch) error {
	_, err := s.Client.Collection(colReviews).Doc(id).Update(ctx, firestoreUpdates(p))
	if err != nil && isFirestoreNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreReviewStore) Update(ctx context.Context, id string, fn func(r *Review) (Patch, error)) error {
	ref := s.Client.Collection(colReviews).Doc(id)
	return s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isFirestoreNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		var r Review
		if err := snap.DataTo(&r); err != nil {
			return fmt.Errorf("decoding review %s: %w", id, err)
		}
		r.ID = snap.Ref.ID
		p, err := fn(&r)
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		return tx.Set(ref, map[string]any(p), firestore.MergeAll)
	})
}

func (s *FirestoreReviewStore) ListByUser(ctx context.Context, userID string) ([]*Review, error) {
	snaps, err := s.Client.Collection(colReviews).Where("usuarioId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]*Review, 0, len(snaps))
	for _, snap := range snaps {
		var r Review
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decoding review %s: %w", snap.Ref.ID, err)
		}
		r.ID = snap.Ref.ID
		out = append(out, &r)
	}
	return out, nil
}

type FirestoreUserStore struct {
	Client *firestore.Client
}

var _ UserStore = (*FirestoreUserStore)(nil)

func (s *FirestoreUserStore) Get(ctx context.Context, id string) (*User, error) {
	snap, err := s.Client.Collection(colUsers).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var u User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", id, err)
	}
	u.ID = snap.Ref.ID
	return &u, nil
}

func (s *FirestoreUserStore) Patch(ctx context.Context, id string, p Patch) error {
	_, err := s.Client.Collection(colUsers).Doc(id).Set(ctx, map[string]any(p), firestore.MergeAll)
	return err
}

type FirestoreNoticeStore struct {
	Client *firestore.Client
}

var _ NoticeStore = (*FirestoreNoticeStore)(nil)

func (s *FirestoreNoticeStore) Add(ctx context.Context, n *Notice) (string, error) {
	ref, _, err := s.Client.Collection(colNotices).Add(ctx, n)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreNoticeStore) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	snaps, err := s.Client.Collection(colNotices).
		Where("usuarioId", "==", userID).
		Where("expiraEn", ">", now).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	return len(snaps), nil
}

type FirestoreBannedIPStore struct {
	Client *firestore.Client
}

var _ BannedIPStore = (*FirestoreBannedIPStore)(nil)

func (s *FirestoreBannedIPStore) Upsert(ctx context.Context, rec *BannedIP) error {
	_, err := s.Client.Collection(colBannedIPs).Doc(rec.ID).Set(ctx, map[string]any{
		"ip":           rec.IP,
		"baneadaDesde": rec.BaneadaDesde,
	}, firestore.MergeAll)
	return err
}
