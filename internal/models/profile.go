package models

import "gorm.io/gorm"

// ExperienceLevel grades how seasoned a player is. It doubles as the
// difficulty level of a game session.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// Valid reports whether the level is one of the known values.
func (e ExperienceLevel) Valid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return true
	}
	return false
}

// Profile holds the player-facing details of a user. It is created lazily on
// the first profile save, so a user may exist without one.
type Profile struct {
	gorm.Model
	UserID          uint    `gorm:"uniqueIndex;not null"`
	Username        *string `gorm:"size:255;uniqueIndex"` // nullable so unset usernames don't collide
	DisplayName     string  `gorm:"size:255"`
	Bio             string
	LocationCity    string          `gorm:"size:255"`
	LocationRegion  string          `gorm:"size:255"`
	LocationCountry string          `gorm:"size:255"`
	ExperienceLevel ExperienceLevel `gorm:"size:20"`
	AvatarFileID    *string         `gorm:"size:36"`

	User User `gorm:"foreignKey:UserID"`
}
