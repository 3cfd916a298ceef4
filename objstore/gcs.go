package objstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

type GCSObjectStore struct {
	Client     *storage.Client
	BucketName string
}

var _ ObjectStore = (*GCSObjectStore)(nil)

func NewGCSObjectStore(ctx context.Context, bucket string) (*GCSObjectStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &GCSObjectStore{Client: client, BucketName: bucket}, nil
}

func (s *GCSObjectStore) Bucket() string {
	return s.BucketName
}

func (s *GCSObjectStore) Delete(ctx context.Context, path string, ignoreMissing bool) error {
	err := s.Client.Bucket(s.BucketName).Object(path).Delete(ctx)
	if err != nil {
		if ignoreMissing && errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("deleting gs://%s/%s: %w", s.BucketName, path, err)
	}
	return nil
}
