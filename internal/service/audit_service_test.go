package service

import (
	"context"
	"errors"
	"testing"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/repository"
)

func TestQueryPinsNonAdminToOwnEvents(t *testing.T) {
	h := newHarness(t)
	admin, member := registerTwoUsers(t, h) // first registered user is the admin
	uploadTestDocument(t, h, admin)
	uploadTestDocument(t, h, member)
	ctx := context.Background()

	// Member asks for the admin's events; the filter must be overridden.
	page, err := h.audit.Query(ctx, member, repository.AuditFilter{ActorID: &admin.ID}, repository.PageRequest{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, e := range page.Items {
		if e.ActorID == nil || *e.ActorID != member.ID {
			t.Fatalf("foreign event visible to non-admin: %+v", e)
		}
	}
	if len(page.Items) == 0 {
		t.Fatal("member should still see their own events")
	}
}

func TestQueryAdminSeesEveryone(t *testing.T) {
	h := newHarness(t)
	admin, member := registerTwoUsers(t, h)
	uploadTestDocument(t, h, member)
	ctx := context.Background()

	page, err := h.audit.Query(ctx, admin, repository.AuditFilter{}, repository.PageRequest{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	actors := make(map[uint]bool)
	for _, e := range page.Items {
		if e.ActorID != nil {
			actors[*e.ActorID] = true
		}
	}
	if !actors[admin.ID] || !actors[member.ID] {
		t.Fatalf("admin view missing actors: %v", actors)
	}
}

func TestQueryFiltersByActionAndResource(t *testing.T) {
	h := newHarness(t)
	admin, _ := registerTwoUsers(t, h)
	doc := uploadTestDocument(t, h, admin)
	ctx := context.Background()

	if err := h.docs.Delete(ctx, admin, doc.ID, testMeta); err != nil {
		t.Fatalf("delete: %v", err)
	}

	page, err := h.audit.Query(ctx, admin, repository.AuditFilter{
		Action:       domain.ActionDelete,
		ResourceType: domain.ResourceDocument,
	}, repository.PageRequest{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one delete event, got %d", len(page.Items))
	}
	if page.Items[0].Action != domain.ActionDelete {
		t.Fatalf("filter leaked action %s", page.Items[0].Action)
	}
}

func TestSummarizeIsAdminOnly(t *testing.T) {
	h := newHarness(t)
	admin, member := registerTwoUsers(t, h)
	uploadTestDocument(t, h, admin)
	ctx := context.Background()

	if _, err := h.audit.Summarize(ctx, member, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	summary, err := h.audit.Summarize(ctx, admin, 7)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.TotalEvents == 0 {
		t.Fatal("summary should count the registration and upload events")
	}
	if summary.ByAction[domain.ActionRegister] != 2 {
		t.Fatalf("expected 2 register events, got %d", summary.ByAction[domain.ActionRegister])
	}
	if summary.ByAction[domain.ActionCreate] != 1 {
		t.Fatalf("expected 1 create event, got %d", summary.ByAction[domain.ActionCreate])
	}
	if summary.ByActorUsername["a"] == 0 {
		t.Fatalf("admin activity missing from per-actor counts: %v", summary.ByActorUsername)
	}
}

func TestSummarizeClampsWindow(t *testing.T) {
	h := newHarness(t)
	admin, _ := registerTwoUsers(t, h)
	ctx := context.Background()

	// Out-of-range values fall back to sane windows instead of erroring.
	if _, err := h.audit.Summarize(ctx, admin, 0); err != nil {
		t.Fatalf("zero days: %v", err)
	}
	if _, err := h.audit.Summarize(ctx, admin, 100000); err != nil {
		t.Fatalf("huge window: %v", err)
	}
}

func TestRecordPersistsClientMetadata(t *testing.T) {
	h := newHarness(t)
	admin, _ := registerTwoUsers(t, h)
	ctx := context.Background()

	page, err := h.audit.Query(ctx, admin, repository.AuditFilter{Action: domain.ActionRegister}, repository.PageRequest{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatal("no register events recorded")
	}
	for _, e := range page.Items {
		if e.IP != testMeta.IP || e.UserAgent != testMeta.UserAgent {
			t.Fatalf("client metadata lost: %+v", e)
		}
		if e.Timestamp.IsZero() {
			t.Fatal("timestamp must be set")
		}
	}
}
