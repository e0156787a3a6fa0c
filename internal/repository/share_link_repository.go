package repository

import (
	"context"
	"errors"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/observability"

	"gorm.io/gorm"
)

var ErrShareLinkNotFound = errors.New("share link not found")

type ShareLinkRepository interface {
	Create(ctx context.Context, link *domain.ShareLink) error
	FindByID(ctx context.Context, id uint) (*domain.ShareLink, error)
	FindByToken(ctx context.Context, token string) (*domain.ShareLink, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]domain.ShareLink, error)
	Delete(ctx context.Context, id uint) error
}

type GormShareLinkRepository struct{ db *gorm.DB }

func NewShareLinkRepository(db *gorm.DB) ShareLinkRepository {
	return &GormShareLinkRepository{db: db}
}

func (r *GormShareLinkRepository) Create(ctx context.Context, link *domain.ShareLink) error {
	err := r.db.WithContext(ctx).Create(link).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "share_link", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "share_link", "create", "success")
	return nil
}

func (r *GormShareLinkRepository) FindByID(ctx context.Context, id uint) (*domain.ShareLink, error) {
	var l domain.ShareLink
	err := r.db.WithContext(ctx).First(&l, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "share_link", "find_by_id", "not_found")
			return nil, ErrShareLinkNotFound
		}
		observability.RecordRepositoryOperation(ctx, "share_link", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "share_link", "find_by_id", "success")
	return &l, nil
}

func (r *GormShareLinkRepository) FindByToken(ctx context.Context, token string) (*domain.ShareLink, error) {
	var l domain.ShareLink
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "share_link", "find_by_token", "not_found")
			return nil, ErrShareLinkNotFound
		}
		observability.RecordRepositoryOperation(ctx, "share_link", "find_by_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "share_link", "find_by_token", "success")
	return &l, nil
}

func (r *GormShareLinkRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.ShareLink{}).Where("token = ?", token).Count(&n).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "share_link", "token_exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "share_link", "token_exists", "success")
	return n > 0, nil
}

func (r *GormShareLinkRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.ShareLink, error) {
	var links []domain.ShareLink
	err := r.db.WithContext(ctx).
		Joins("JOIN documents ON documents.id = share_links.document_id").
		Where("documents.owner_id = ?", ownerID).
		Order("share_links.created_at DESC").
		Find(&links).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "share_link", "list_by_owner", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "share_link", "list_by_owner", "success")
	return links, nil
}

func (r *GormShareLinkRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.ShareLink{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "share_link", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "share_link", "delete", "not_found")
		return ErrShareLinkNotFound
	}
	observability.RecordRepositoryOperation(ctx, "share_link", "delete", "success")
	return nil
}
