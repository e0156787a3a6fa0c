package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/security"
	"github.com/docsecure/docsecure/internal/storage"
)

// shareTokenAttempts bounds the uniqueness retry loop. With 24 bytes of
// entropy a collision is practically impossible, but the contract is to
// reject rather than silently overwrite.
const shareTokenAttempts = 3

// ShareLinkService issues and resolves capability tokens. It is a separate
// trust domain from the token service: a link authorizes anonymous read
// access to one document and nothing else.
type ShareLinkService struct {
	linkRepo repository.ShareLinkRepository
	docRepo  repository.DocumentRepository
	blobs    storage.BlobStore
	audit    *AuditService
	guard    *Guard
}

func NewShareLinkService(linkRepo repository.ShareLinkRepository, docRepo repository.DocumentRepository, blobs storage.BlobStore, audit *AuditService, guard *Guard) *ShareLinkService {
	return &ShareLinkService{linkRepo: linkRepo, docRepo: docRepo, blobs: blobs, audit: audit, guard: guard}
}

// Create issues a link for a document the caller owns.
func (s *ShareLinkService) Create(ctx context.Context, caller *domain.User, documentID uint, expiresAt *time.Time, meta ClientMeta) (*domain.ShareLink, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: document", ErrNotFound)
		}
		return nil, err
	}
	if err := s.guard.AuthorizeOwner(caller, doc.OwnerID); err != nil {
		return nil, err
	}

	link := &domain.ShareLink{
		DocumentID: doc.ID,
		ExpiresAt:  expiresAt,
		Active:     true,
	}
	var lastErr error
	for i := 0; i < shareTokenAttempts; i++ {
		token, err := security.NewShareToken()
		if err != nil {
			return nil, err
		}
		exists, err := s.linkRepo.TokenExists(ctx, token)
		if err != nil {
			return nil, err
		}
		if exists {
			lastErr = fmt.Errorf("%w: share token collision", ErrConflict)
			continue
		}
		link.Token = token
		lastErr = s.linkRepo.Create(ctx, link)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if err := s.audit.Record(ctx, &caller.ID, domain.ActionCreate, domain.ResourceShareLink,
		strconv.Itoa(int(link.ID)), map[string]any{"document_id": doc.ID}, meta); err != nil {
		return nil, err
	}
	return link, nil
}

// List returns the links on all documents the caller owns.
func (s *ShareLinkService) List(ctx context.Context, caller *domain.User) ([]domain.ShareLink, error) {
	return s.linkRepo.ListByOwner(ctx, caller.ID)
}

// Delete deactivates a link permanently. Only the owner of the underlying
// document may do this.
func (s *ShareLinkService) Delete(ctx context.Context, caller *domain.User, linkID uint, meta ClientMeta) error {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			return fmt.Errorf("%w: share link", ErrNotFound)
		}
		return err
	}
	doc, err := s.docRepo.FindByID(ctx, link.DocumentID)
	if err != nil {
		return err
	}
	if err := s.guard.AuthorizeOwner(caller, doc.OwnerID); err != nil {
		return err
	}

	// Audit only once the delete is durable.
	if err := s.linkRepo.Delete(ctx, link.ID); err != nil {
		return err
	}
	return s.audit.Record(ctx, &caller.ID, domain.ActionDelete, domain.ResourceShareLink,
		strconv.Itoa(int(link.ID)), map[string]any{"document_id": doc.ID}, meta)
}

// Resolve validates a capability token. Unknown tokens are NotFound; known
// but deactivated or expired links are Forbidden.
func (s *ShareLinkService) Resolve(ctx context.Context, token string) (*domain.ShareLink, error) {
	link, err := s.linkRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			observability.RecordShareLinkAccess(ctx, "not_found")
			return nil, fmt.Errorf("%w: share link", ErrNotFound)
		}
		return nil, err
	}
	if !link.Active {
		observability.RecordShareLinkAccess(ctx, "inactive")
		return nil, fmt.Errorf("%w: share link is inactive", ErrForbidden)
	}
	if link.ExpiresAt != nil && !time.Now().Before(*link.ExpiresAt) {
		observability.RecordShareLinkAccess(ctx, "expired")
		return nil, fmt.Errorf("%w: share link has expired", ErrForbidden)
	}
	observability.RecordShareLinkAccess(ctx, "ok")
	return link, nil
}

// SharedDocument resolves a token to its document and records the anonymous
// access with no actor.
func (s *ShareLinkService) SharedDocument(ctx context.Context, token string, meta ClientMeta) (*domain.Document, error) {
	link, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	doc, err := s.docRepo.FindByID(ctx, link.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: document", ErrNotFound)
		}
		return nil, err
	}
	if err := s.audit.Record(ctx, nil, domain.ActionAccessViaShare, domain.ResourceDocument,
		strconv.Itoa(int(doc.ID)), map[string]any{"share_link_id": link.ID}, meta); err != nil {
		return nil, err
	}
	return doc, nil
}

// SharedDownload streams the document behind a token. The caller closes the
// reader.
func (s *ShareLinkService) SharedDownload(ctx context.Context, token string, meta ClientMeta) (*domain.Document, io.ReadCloser, error) {
	link, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.docRepo.FindByID(ctx, link.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, nil, fmt.Errorf("%w: document", ErrNotFound)
		}
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: file missing from storage", ErrNotFound)
		}
		return nil, nil, err
	}
	if err := s.audit.Record(ctx, nil, domain.ActionDownloadViaShare, domain.ResourceDocument,
		strconv.Itoa(int(doc.ID)), map[string]any{"share_link_id": link.ID}, meta); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	return doc, rc, nil
}
