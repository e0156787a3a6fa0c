package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func newMemStoreForTest(t *testing.T) BlobStore {
	t.Helper()
	store, err := OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open mem bucket: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBlobSaveOpenRoundTrip(t *testing.T) {
	store := newMemStoreForTest(t)
	ctx := context.Background()

	n, err := store.Save(ctx, "docs/a.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	r, err := store.Open(ctx, "docs/a.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected body %q", body)
	}

	ok, err := store.Exists(ctx, "docs/a.txt")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
}

func TestBlobDeleteMissingIsNotFound(t *testing.T) {
	store := newMemStoreForTest(t)
	err := store.Delete(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlobOpenMissingIsNotFound(t *testing.T) {
	store := newMemStoreForTest(t)
	if _, err := store.Open(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
