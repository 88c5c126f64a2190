package models

import "gorm.io/gorm"

// ParticipantStatus is the state of a user's seat in a session.
type ParticipantStatus string

const (
	ParticipantPendingApproval ParticipantStatus = "pending_approval"
	ParticipantConfirmed       ParticipantStatus = "confirmed"
	ParticipantDeclined        ParticipantStatus = "declined"
	ParticipantCancelledByUser ParticipantStatus = "cancelled_by_user"
)

// SessionParticipant is the join record between a session and a user.
// One record per (session, user) pair; created on join, deleted on leave.
type SessionParticipant struct {
	gorm.Model
	SessionID uint              `gorm:"not null;uniqueIndex:idx_session_user;index:idx_session_status"`
	UserID    uint              `gorm:"not null;uniqueIndex:idx_session_user"`
	Status    ParticipantStatus `gorm:"size:30;not null;index:idx_session_status"`

	Session GameSession `gorm:"foreignKey:SessionID"`
	User    User        `gorm:"foreignKey:UserID"`
}
