package domain

import "time"

// Document describes one uploaded file. The bytes themselves live in blob
// storage; only the storage key, size and mime type are recorded here.
type Document struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Filename         string      `gorm:"size:255;uniqueIndex;not null" json:"filename"`
	OriginalFilename string      `gorm:"size:255;not null" json:"original_filename"`
	StorageKey       string      `gorm:"size:512;not null" json:"-"`
	FileSize         int64       `gorm:"not null" json:"file_size"`
	MimeType         string      `gorm:"size:128;not null" json:"mime_type"`
	Description      string      `gorm:"type:text" json:"description,omitempty"`
	OwnerID          uint        `gorm:"index;not null" json:"owner_id"`
	ShareLinks       []ShareLink `gorm:"foreignKey:DocumentID" json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
