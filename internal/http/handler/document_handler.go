package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/docsecure/docsecure/internal/config"
	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/service"
)

type DocumentHandler struct {
	docs *service.DocumentService
	cfg  *config.Config
}

func NewDocumentHandler(docs *service.DocumentService, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{docs: docs, cfg: cfg}
}

// Upload reads a multipart form with a "file" part and an optional
// "description" field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_payload", "malformed multipart body", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid_payload", "missing file part", nil)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	doc, err := h.docs.Upload(r.Context(), user,
		header.Filename, mimeType, r.FormValue("description"),
		header.Size, file, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, newDocumentView(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	page, err := h.docs.List(r.Context(), user, pageRequest(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newPageView(page, newDocumentView))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	id, ok := pathID(w, r, "document_id")
	if !ok {
		return
	}
	doc, err := h.docs.Get(r.Context(), user, id)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newDocumentView(doc))
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	id, ok := pathID(w, r, "document_id")
	if !ok {
		return
	}
	doc, rc, err := h.docs.Download(r.Context(), user, id, middleware.ClientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	defer rc.Close()
	streamDocument(w, doc.OriginalFilename, doc.MimeType, doc.FileSize, rc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "unauthenticated", "missing auth context", nil)
		return
	}
	id, ok := pathID(w, r, "document_id")
	if !ok {
		return
	}
	if err := h.docs.Delete(r.Context(), user, id, middleware.ClientMeta(r)); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func streamDocument(w http.ResponseWriter, filename, mimeType string, size int64, rc io.Reader) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(filename)))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}
