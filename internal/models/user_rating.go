package models

import "gorm.io/gorm"

// UserRating is a peer rating given after a game session. At most one rating
// exists per (rater, rated, session) triple; submitting again overwrites it.
type UserRating struct {
	gorm.Model
	RaterID   uint `gorm:"not null;uniqueIndex:idx_rater_rated_session"`
	RatedID   uint `gorm:"not null;uniqueIndex:idx_rater_rated_session;index"`
	SessionID uint `gorm:"not null;uniqueIndex:idx_rater_rated_session"`
	Score     int  `gorm:"not null"` // 1-5
	Comment   string

	Rater   User        `gorm:"foreignKey:RaterID"`
	Rated   User        `gorm:"foreignKey:RatedID"`
	Session GameSession `gorm:"foreignKey:SessionID"`
}
