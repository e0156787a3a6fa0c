package handler

import (
	"time"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/repository"
)

// View types keep the wire shapes independent of the gorm models. The
// password hash and storage key never leave the process.

type userView struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

type documentView struct {
	ID               uint      `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func newDocumentView(d *domain.Document) documentView {
	return documentView{
		ID:               d.ID,
		OriginalFilename: d.OriginalFilename,
		FileSize:         d.FileSize,
		MimeType:         d.MimeType,
		Description:      d.Description,
		CreatedAt:        d.CreatedAt,
	}
}

type shareLinkView struct {
	ID         uint       `json:"id"`
	Token      string     `json:"token"`
	DocumentID uint       `json:"document_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
}

func newShareLinkView(l *domain.ShareLink) shareLinkView {
	return shareLinkView{
		ID:         l.ID,
		Token:      l.Token,
		DocumentID: l.DocumentID,
		ExpiresAt:  l.ExpiresAt,
		Active:     l.Active,
		CreatedAt:  l.CreatedAt,
	}
}

type auditEventView struct {
	ID           uint      `json:"id"`
	ActorID      *uint     `json:"actor_id,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Details      any       `json:"details,omitempty"`
	IP           string    `json:"ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func newAuditEventView(e *domain.AuditEvent) auditEventView {
	v := auditEventView{
		ID:           e.ID,
		ActorID:      e.ActorID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IP:           e.IP,
		UserAgent:    e.UserAgent,
		Timestamp:    e.Timestamp,
	}
	if len(e.Details) > 0 {
		// Raw JSON passes through untouched.
		v.Details = jsonRaw(e.Details)
	}
	return v
}

type pageView[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPageView[S, T any](page repository.PageResult[S], convert func(*S) T) pageView[T] {
	items := make([]T, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, convert(&page.Items[i]))
	}
	return pageView[T]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}
}
