package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/docsecure/docsecure/internal/config"
	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/storage"
)

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
	"image/jpeg": true,
	"image/png":  true,
}

type DocumentService struct {
	docRepo repository.DocumentRepository
	blobs   storage.BlobStore
	audit   *AuditService
	guard   *Guard
	cfg     *config.Config
}

func NewDocumentService(docRepo repository.DocumentRepository, blobs storage.BlobStore, audit *AuditService, guard *Guard, cfg *config.Config) *DocumentService {
	return &DocumentService{docRepo: docRepo, blobs: blobs, audit: audit, guard: guard, cfg: cfg}
}

// Upload validates, stores the bytes, then records the document row and its
// audit event. The stored blob is removed again if the row cannot be written.
func (s *DocumentService) Upload(ctx context.Context, owner *domain.User, originalFilename, mimeType, description string, size int64, r io.Reader, meta ClientMeta) (*domain.Document, error) {
	if size > s.cfg.MaxUploadSize {
		return nil, fmt.Errorf("%w: file size %d exceeds the limit of %d bytes", ErrPayloadInvalid, size, s.cfg.MaxUploadSize)
	}
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !s.cfg.ExtensionAllowed(ext) {
		return nil, fmt.Errorf("%w: file type %q not allowed", ErrPayloadInvalid, ext)
	}
	if !allowedMimeTypes[strings.ToLower(mimeType)] {
		return nil, fmt.Errorf("%w: content type %q not allowed", ErrPayloadInvalid, mimeType)
	}

	// Collision-resistant generated name; the original name is kept as
	// metadata only.
	filename := uuid.NewString() + ext
	key := "documents/" + filename

	written, err := s.blobs.Save(ctx, key, mimeType, io.LimitReader(r, s.cfg.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if written > s.cfg.MaxUploadSize {
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("%w: file size exceeds the limit of %d bytes", ErrPayloadInvalid, s.cfg.MaxUploadSize)
	}

	doc := &domain.Document{
		Filename:         filename,
		OriginalFilename: originalFilename,
		StorageKey:       key,
		FileSize:         written,
		MimeType:         mimeType,
		Description:      description,
		OwnerID:          owner.ID,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		s.discardBlob(ctx, key)
		return nil, err
	}

	if err := s.audit.Record(ctx, &owner.ID, domain.ActionCreate, domain.ResourceDocument,
		strconv.Itoa(int(doc.ID)), nil, meta); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, owner *domain.User, page repository.PageRequest) (repository.PageResult[domain.Document], error) {
	return s.docRepo.ListByOwner(ctx, owner.ID, page)
}

// Get returns a document the caller owns. Unknown ids are NotFound; known
// ids owned by someone else are Forbidden, matching the API's error split.
func (s *DocumentService) Get(ctx context.Context, caller *domain.User, id uint) (*domain.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: document", ErrNotFound)
		}
		return nil, err
	}
	if err := s.guard.AuthorizeOwner(caller, doc.OwnerID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Download opens the stored bytes for an owned document and records the
// access. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, caller *domain.User, id uint, meta ClientMeta) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: file missing from storage", ErrNotFound)
		}
		return nil, nil, err
	}
	if err := s.audit.Record(ctx, &caller.ID, domain.ActionDownload, domain.ResourceDocument,
		strconv.Itoa(int(doc.ID)), nil, meta); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	return doc, rc, nil
}

// Delete removes the document row and all of its share links atomically,
// then drops the blob. A blob that is already gone is ignored; any other
// storage failure is logged but does not undo the completed delete.
func (s *DocumentService) Delete(ctx context.Context, caller *domain.User, id uint, meta ClientMeta) error {
	doc, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.DeleteWithShareLinks(ctx, doc.ID); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return fmt.Errorf("%w: document", ErrNotFound)
		}
		return err
	}

	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(ctx, "delete stored file", "key", doc.StorageKey, "error", err)
	}

	return s.audit.Record(ctx, &caller.ID, domain.ActionDelete, domain.ResourceDocument,
		strconv.Itoa(int(doc.ID)), nil, meta)
}

func (s *DocumentService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(ctx, "discard orphaned blob", "key", key, "error", err)
	}
}
