package domain

import "time"

// ShareLink grants anonymous read access to exactly one document. A link is
// usable only while Active is set and ExpiresAt (when present) has not passed.
type ShareLink struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Token      string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	DocumentID uint       `gorm:"index;not null" json:"document_id"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Active     bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
