package models

import (
	"time"

	"gorm.io/gorm"
)

// SessionStatus is the lifecycle state of a game session.
type SessionStatus string

const (
	SessionOpen       SessionStatus = "open"
	SessionFull       SessionStatus = "full"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether the session can no longer change.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// GameSession represents a hosted in-person game night.
type GameSession struct {
	gorm.Model
	HostID          uint   `gorm:"not null;index"`
	Title           string `gorm:"size:255;not null"`
	Description     string
	LocationCity    string `gorm:"size:255;not null"`
	LocationRegion  string `gorm:"size:255;not null"`
	LocationCountry string `gorm:"size:255;not null"`
	MeetingPoint    string `gorm:"size:512"`
	ScheduledAt     time.Time `gorm:"index:idx_sessions_status_scheduled,priority:2"`
	DurationHours   float64         `gorm:"not null;default:3"`
	MaxPlayers      int             `gorm:"not null"`
	Difficulty      ExperienceLevel `gorm:"size:20"`
	SpecialRules    string
	Status          SessionStatus `gorm:"size:20;not null;index:idx_sessions_status_scheduled,priority:1"`
	ImageFileID     *string       `gorm:"size:36"`

	Host User `gorm:"foreignKey:HostID"`
}
