package objstore

import (
	"context"
	"fmt"
	"sync"
)

// MemObjectStore is an in-process object store for tests. It tracks every delete
// attempt, including repeats, so tests can assert on exactly which paths the engine
// touched.
type MemObjectStore struct {
	mu         sync.Mutex
	BucketName string
	Objects    map[string]bool
	Deleted    []string
	// paths whose deletion should fail, for exercising best-effort delete handling
	FailPaths map[string]bool
}

func NewMemObjectStore(bucket string) *MemObjectStore {
	return &MemObjectStore{
		BucketName: bucket,
		Objects:    make(map[string]bool),
		FailPaths:  make(map[string]bool),
	}
}

var _ ObjectStore = (*MemObjectStore)(nil)

func (s *MemObjectStore) Put(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[path] = true
}

func (s *MemObjectStore) Bucket() string {
	return s.BucketName
}

func (s *MemObjectStore) Delete(ctx context.Context, path string, ignoreMissing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, path)
	if s.FailPaths[path] {
		return fmt.Errorf("simulated delete failure for %s", path)
	}
	if !s.Objects[path] && !ignoreMissing {
		return fmt.Errorf("object not found: %s", path)
	}
	delete(s.Objects, path)
	return nil
}

// DeleteAttempts returns a copy of all delete attempts, in order.
func (s *MemObjectStore) DeleteAttempts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Deleted))
	copy(out, s.Deleted)
	return out
}
