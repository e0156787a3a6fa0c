package repository

import (
	"context"
	"time"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/observability"

	"gorm.io/gorm"
)

// AuditFilter narrows an audit query. Zero values mean "no constraint".
type AuditFilter struct {
	ActorID      *uint
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
}

// AuditSummary aggregates events over a time window.
type AuditSummary struct {
	TotalEvents     int64            `json:"total_events"`
	ByAction        map[string]int64 `json:"actions"`
	ByResourceType  map[string]int64 `json:"resources"`
	ByActorUsername map[string]int64 `json:"user_activity"`
}

type AuditRepository interface {
	// Insert appends one event. Events are never updated or deleted.
	Insert(ctx context.Context, event *domain.AuditEvent) error
	Query(ctx context.Context, filter AuditFilter, page PageRequest) (PageResult[domain.AuditEvent], error)
	Summarize(ctx context.Context, from, to time.Time) (*AuditSummary, error)
}

type GormAuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &GormAuditRepository{db: db} }

func (r *GormAuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "audit_event", "insert", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "audit_event", "insert", "success")
	return nil
}

func (r *GormAuditRepository) Query(ctx context.Context, filter AuditFilter, page PageRequest) (PageResult[domain.AuditEvent], error) {
	req := normalizePageRequest(page)
	result := PageResult[domain.AuditEvent]{Page: req.Page, PageSize: req.PageSize}

	base := r.db.WithContext(ctx).Model(&domain.AuditEvent{})
	if filter.ActorID != nil {
		base = base.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		base = base.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		base = base.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		base = base.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.From != nil {
		base = base.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("timestamp <= ?", *filter.To)
	}

	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "audit_event", "query", "error")
		return PageResult[domain.AuditEvent]{}, err
	}

	// Newest first; insertion order breaks timestamp ties.
	offset := (req.Page - 1) * req.PageSize
	err := base.Order("timestamp DESC").Order("id DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "audit_event", "query", "error")
		return PageResult[domain.AuditEvent]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(ctx, "audit_event", "query", "success")
	return result, nil
}

func (r *GormAuditRepository) Summarize(ctx context.Context, from, to time.Time) (*AuditSummary, error) {
	summary := &AuditSummary{
		ByAction:        map[string]int64{},
		ByResourceType:  map[string]int64{},
		ByActorUsername: map[string]int64{},
	}

	type grouped struct {
		Key   string
		Count int64
	}

	window := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.AuditEvent{}).
			Where("timestamp >= ? AND timestamp <= ?", from, to)
	}

	var byAction []grouped
	if err := window().Select("action AS key, COUNT(id) AS count").
		Group("action").Scan(&byAction).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "audit_event", "summarize", "error")
		return nil, err
	}
	for _, g := range byAction {
		summary.ByAction[g.Key] = g.Count
		summary.TotalEvents += g.Count
	}

	var byResource []grouped
	if err := window().Select("resource_type AS key, COUNT(id) AS count").
		Group("resource_type").Scan(&byResource).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "audit_event", "summarize", "error")
		return nil, err
	}
	for _, g := range byResource {
		summary.ByResourceType[g.Key] = g.Count
	}

	// Anonymous events (nil actor) are excluded from the per-actor grouping.
	var byActor []grouped
	if err := window().
		Joins("JOIN users ON users.id = audit_events.actor_id").
		Where("audit_events.actor_id IS NOT NULL").
		Select("users.username AS key, COUNT(audit_events.id) AS count").
		Group("users.username").Scan(&byActor).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "audit_event", "summarize", "error")
		return nil, err
	}
	for _, g := range byActor {
		summary.ByActorUsername[g.Key] = g.Count
	}

	observability.RecordRepositoryOperation(ctx, "audit_event", "summarize", "success")
	return summary, nil
}
