package handler

import (
	"net/http"
	"time"

	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/service"

	"github.com/go-chi/chi/v5"
)

type ShareLinkHandler struct {
	links *service.ShareLinkService
}

func NewShareLinkHandler(links *service.ShareLinkService) *ShareLinkHandler {
	return &ShareLinkHandler{links: links}
}

type createShareLinkRequest struct {
	DocumentID     uint `json:"document_id"`
	ExpiresInHours int  `json:"expires_in_hours"`
}

func (h *ShareLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	var req createShareLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DocumentID == 0 {
		response.Error(w, r, http.StatusBadRequest, "invalid_payload", "document_id is required", nil)
		return
	}
	var expiresAt *time.Time
	if req.ExpiresInHours > 0 {
		t := time.Now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		expiresAt = &t
	}
	link, err := h.links.Create(r.Context(), user, req.DocumentID, expiresAt, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, newShareLinkView(link))
}

func (h *ShareLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	links, err := h.links.List(r.Context(), user)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	views := make([]shareLinkView, 0, len(links))
	for i := range links {
		views = append(views, newShareLinkView(&links[i]))
	}
	response.JSON(w, r, http.StatusOK, views)
}

func (h *ShareLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	id, ok := pathID(w, r, "link_id")
	if !ok {
		return
	}
	if err := h.links.Delete(r.Context(), user, id, middleware.ClientMeta(r)); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SharedDocument serves document metadata to anyone holding a live token.
func (h *ShareLinkHandler) SharedDocument(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	doc, err := h.links.SharedDocument(r.Context(), token, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newDocumentView(doc))
}

func (h *ShareLinkHandler) SharedDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	doc, rc, err := h.links.SharedDownload(r.Context(), token, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	defer rc.Close()
	observability.Audit(r, "share_link.downloaded", "document_id", doc.ID)
	streamDocument(w, doc.OriginalFilename, doc.MimeType, doc.FileSize, rc)
}
