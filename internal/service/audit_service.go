package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/repository"
)

// AuditService is the recorder and the query surface for the audit trail.
type AuditService struct {
	auditRepo repository.AuditRepository
	maxDays   int
}

func NewAuditService(auditRepo repository.AuditRepository, maxDays int) *AuditService {
	if maxDays <= 0 {
		maxDays = 30
	}
	return &AuditService{auditRepo: auditRepo, maxDays: maxDays}
}

// Record appends one event after the action it describes has taken effect.
// A failed write fails the whole request; the triggering effect may already
// be durable at that point (see DESIGN.md).
func (s *AuditService) Record(ctx context.Context, actorID *uint, action, resourceType, resourceID string, details map[string]any, meta ClientMeta) error {
	event := &domain.AuditEvent{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Timestamp:    time.Now().UTC(),
	}
	if len(details) > 0 {
		payload, err := json.Marshal(details)
		if err != nil {
			observability.RecordAuditWrite(ctx, action, resourceType, "error")
			return fmt.Errorf("marshal audit details: %w", err)
		}
		event.Details = payload
	}
	if err := s.auditRepo.Insert(ctx, event); err != nil {
		observability.RecordAuditWrite(ctx, action, resourceType, "error")
		return fmt.Errorf("record audit event: %w", err)
	}
	observability.RecordAuditWrite(ctx, action, resourceType, "success")
	return nil
}

// Query lists events newest first. Non-admin callers are always pinned to
// their own events, whatever actor filter they asked for.
func (s *AuditService) Query(ctx context.Context, caller *domain.User, filter repository.AuditFilter, page repository.PageRequest) (repository.PageResult[domain.AuditEvent], error) {
	if !caller.IsAdmin {
		id := caller.ID
		filter.ActorID = &id
	}
	return s.auditRepo.Query(ctx, filter, page)
}

// Summarize aggregates events over the trailing N days. Admin only.
func (s *AuditService) Summarize(ctx context.Context, caller *domain.User, days int) (*repository.AuditSummary, error) {
	if !caller.IsAdmin {
		return nil, fmt.Errorf("%w: audit summary is admin only", ErrForbidden)
	}
	if days < 1 {
		days = 7
	}
	if days > s.maxDays {
		days = s.maxDays
	}
	now := time.Now().UTC()
	return s.auditRepo.Summarize(ctx, now.AddDate(0, 0, -days), now)
}
