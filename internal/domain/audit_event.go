package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded by the service.
const (
	ActionRegister         = "register"
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDelete           = "delete"
	ActionDownload         = "download"
	ActionAccessViaShare   = "access_via_share"
	ActionDownloadViaShare = "download_via_share"
)

// Audited resource types.
const (
	ResourceUser      = "user"
	ResourceDocument  = "document"
	ResourceShareLink = "share_link"
)

// AuditEvent is one immutable record of a security-relevant action. Rows are
// only ever inserted; the application never updates or deletes them.
type AuditEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ActorID      *uint          `gorm:"index" json:"actor_id,omitempty"`
	Action       string         `gorm:"size:64;index;not null" json:"action"`
	ResourceType string         `gorm:"size:64;index;not null" json:"resource_type"`
	ResourceID   string         `gorm:"size:64;index" json:"resource_id,omitempty"`
	Details      datatypes.JSON `json:"details,omitempty"`
	IP           string         `gorm:"size:64" json:"ip,omitempty"`
	UserAgent    string         `gorm:"size:512" json:"user_agent,omitempty"`
	Timestamp    time.Time      `gorm:"index;not null" json:"timestamp"`
}
