package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/service"
)

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	filter, ok := auditFilterFromQuery(w, r)
	if !ok {
		return
	}
	page, err := h.audit.Query(r.Context(), user, filter, pageRequest(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newPageView(page, newAuditEventView))
}

func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	summary, err := h.audit.Summarize(r.Context(), user, days)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}

func auditFilterFromQuery(w http.ResponseWriter, r *http.Request) (repository.AuditFilter, bool) {
	q := r.URL.Query()
	filter := repository.AuditFilter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
	}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "invalid_payload", "invalid actor_id", nil)
			return repository.AuditFilter{}, false
		}
		actorID := uint(id)
		filter.ActorID = &actorID
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "invalid_payload", "invalid "+param+" timestamp", nil)
			return repository.AuditFilter{}, false
		}
		*dst = &t
	}
	return filter, true
}
