package models

import "time"

// StoredFile records an uploaded blob. The ID is the opaque reference other
// entities carry; the blob itself lives on disk under ObjectName.
type StoredFile struct {
	ID          string `gorm:"primaryKey;size:36"`
	OwnerID     uint   `gorm:"not null;index"`
	ObjectName  string `gorm:"size:255;not null"`
	ContentType string `gorm:"size:255"`
	Size        int64
	CreatedAt   time.Time
}
