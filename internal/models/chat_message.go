package models

import "gorm.io/gorm"

// ChatMessage is a message in a session's chat. Messages are append-only:
// there is no edit or delete.
type ChatMessage struct {
	gorm.Model
	SessionID uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Text      string `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}
