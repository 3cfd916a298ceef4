package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// In-process implementations, used by tests and as a stand-in when no backend is
// configured. One store per collection, each guarded by its own mutex; the
// Update path relies on that mutex for its read-modify-write atomicity.

type MemReviewStore struct {
	mu      sync.Mutex
	Reviews map[string]*Review
}

func NewMemReviewStore() *MemReviewStore {
	return &MemReviewStore{Reviews: make(map[string]*Review)}
}

var _ ReviewStore = (*MemReviewStore)(nil)

// Put seeds a review directly; test setup helper.
func (s *MemReviewStore) Put(r *Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.Reviews[r.ID] = &cp
}

func (s *MemReviewStore) Get(ctx context.Context, id string) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemReviewStore) Patch(ctx context.Context, id string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Reviews[id]
	if !ok {
		return ErrNotFound
	}
	return applyReviewPatch(r, p)
}

func (s *MemReviewStore) Update(ctx context.Context, id string, fn func(r *Review) (Patch, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Reviews[id]
	if !ok {
		return ErrNotFound
	}
	cp := *r
	p, err := fn(&cp)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return applyReviewPatch(r, p)
}

func (s *MemReviewStore) ListByUser(ctx context.Context, userID string) ([]*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Review
	for _, r := range s.Reviews {
		if r.UsuarioID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type MemUserStore struct {
	mu    sync.Mutex
	Users map[string]*User
}

func NewMemUserStore() *MemUserStore {
	return &MemUserStore{Users: make(map[string]*User)}
}

var _ UserStore = (*MemUserStore)(nil)

// Put seeds a user directly; test setup helper.
func (s *MemUserStore) Put(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.Users[u.ID] = &cp
}

func (s *MemUserStore) Get(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemUserStore) Patch(ctx context.Context, id string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[id]
	if !ok {
		u = &User{ID: id}
		s.Users[id] = u
	}
	return applyUserPatch(u, p)
}

type MemNoticeStore struct {
	mu      sync.Mutex
	Notices map[string]*Notice
	seq     int
}

func NewMemNoticeStore() *MemNoticeStore {
	return &MemNoticeStore{Notices: make(map[string]*Notice)}
}

var _ NoticeStore = (*MemNoticeStore)(nil)

// Put seeds a notice directly; test setup helper.
func (s *MemNoticeStore) Put(n *Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	if cp.ID == "" {
		s.seq++
		cp.ID = fmt.Sprintf("aviso-%d", s.seq)
	}
	s.Notices[cp.ID] = &cp
}

func (s *MemNoticeStore) Add(ctx context.Context, n *Notice) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	cp := *n
	cp.ID = fmt.Sprintf("aviso-%d", s.seq)
	s.Notices[cp.ID] = &cp
	return cp.ID, nil
}

func (s *MemNoticeStore) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.Notices {
		if n.UsuarioID == userID && n.ExpiraEn.After(now) {
			count++
		}
	}
	return count, nil
}

// ForUser returns a copy of all notices for a user, in no particular order; test
// helper.
func (s *MemNoticeStore) ForUser(userID string) []*Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Notice
	for _, n := range s.Notices {
		if n.UsuarioID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}

type MemBannedIPStore struct {
	mu      sync.Mutex
	Records map[string]*BannedIP
}

func NewMemBannedIPStore() *MemBannedIPStore {
	return &MemBannedIPStore{Records: make(map[string]*BannedIP)}
}

var _ BannedIPStore = (*MemBannedIPStore)(nil)

func (s *MemBannedIPStore) Upsert(ctx context.Context, rec *BannedIP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.Records[rec.ID] = &cp
	return nil
}

func applyReviewPatch(r *Review, p Patch) error {
	for k, v := range p {
		switch k {
		case "estado":
			r.Estado = v.(string)
		case "motivoRechazo":
			r.MotivoRechazo = v.(string)
		case "visibleParaAutor":
			r.VisibleParaAutor = v.(bool)
		case "imagenes":
			r.Imagenes = v.([]string)
		case "imagenesProcesadas":
			r.ImagenesProcesadas = v.([]ProcessedImage)
		case "imagenesPendientes":
			r.ImagenesPendientes = v.([]string)
		case "actualizado":
			r.Actualizado = v.(time.Time)
		default:
			return fmt.Errorf("unsupported review patch field: %s", k)
		}
	}
	return nil
}

func applyUserPatch(u *User, p Patch) error {
	for k, v := range p {
		switch k {
		case "baneado":
			u.Baneado = v.(bool)
		case "baneadoDesde":
			t := v.(time.Time)
			u.BaneadoDesde = &t
		case "motivoBaneo":
			u.MotivoBaneo = v.(string)
		default:
			return fmt.Errorf("unsupported user patch field: %s", k)
		}
	}
	return nil
}
