package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// ErrNotFound marks a missing blob. Callers treat it as ignorable on delete;
// any other storage error is a real failure.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the file-storage collaborator: documents store only the key,
// size and mime type, never bytes.
type BlobStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

type bucketStore struct {
	bucket *blob.Bucket
}

// OpenBucket opens a gocloud bucket URL (file://, mem://, and whatever other
// drivers are linked in).
func OpenBucket(ctx context.Context, url string) (BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return &bucketStore{bucket: bucket}, nil
}

func (s *bucketStore) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("open blob writer: %w", err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close blob writer: %w", err)
	}
	return n, nil
}

func (s *bucketStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return r, nil
}

func (s *bucketStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *bucketStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check blob: %w", err)
	}
	return ok, nil
}

func (s *bucketStore) Close() error {
	return s.bucket.Close()
}
