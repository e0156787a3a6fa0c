package repository

import (
	"context"
	"errors"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/observability"

	"gorm.io/gorm"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	FindByID(ctx context.Context, id uint) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID uint, page PageRequest) (PageResult[domain.Document], error)
	// DeleteWithShareLinks removes the document and all of its share links as
	// one transaction, so no resolvable link can outlive its document.
	DeleteWithShareLinks(ctx context.Context, id uint) error
}

type GormDocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository { return &GormDocumentRepository{db: db} }

func (r *GormDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	err := r.db.WithContext(ctx).Create(doc).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "document", "create", "success")
	return nil
}

func (r *GormDocumentRepository) FindByID(ctx context.Context, id uint) (*domain.Document, error) {
	var d domain.Document
	err := r.db.WithContext(ctx).First(&d, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "document", "find_by_id", "not_found")
			return nil, ErrDocumentNotFound
		}
		observability.RecordRepositoryOperation(ctx, "document", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "document", "find_by_id", "success")
	return &d, nil
}

func (r *GormDocumentRepository) ListByOwner(ctx context.Context, ownerID uint, page PageRequest) (PageResult[domain.Document], error) {
	req := normalizePageRequest(page)
	result := PageResult[domain.Document]{Page: req.Page, PageSize: req.PageSize}

	base := r.db.WithContext(ctx).Model(&domain.Document{}).Where("owner_id = ?", ownerID)
	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "list_by_owner", "error")
		return PageResult[domain.Document]{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := base.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "list_by_owner", "error")
		return PageResult[domain.Document]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(ctx, "document", "list_by_owner", "success")
	return result, nil
}

func (r *GormDocumentRepository) DeleteWithShareLinks(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d domain.Document
		if err := tx.First(&d, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&domain.ShareLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Document{}, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			observability.RecordRepositoryOperation(ctx, "document", "delete_with_share_links", "not_found")
		} else {
			observability.RecordRepositoryOperation(ctx, "document", "delete_with_share_links", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(ctx, "document", "delete_with_share_links", "success")
	return nil
}
