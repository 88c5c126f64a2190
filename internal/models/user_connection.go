package models

import "gorm.io/gorm"

// ConnectionStatus defines the state of a directed edge between two users.
type ConnectionStatus string

const (
	// ConnectionPending means a follow request has been sent but not yet accepted.
	ConnectionPending ConnectionStatus = "pending"

	// ConnectionAccepted means the target accepted and the follower now follows them.
	ConnectionAccepted ConnectionStatus = "accepted"

	// ConnectionBlocked means the follower has blocked the target.
	ConnectionBlocked ConnectionStatus = "blocked"
)

// UserConnection is a directed edge in the connection graph. At most one edge
// exists per ordered (follower, following) pair; blocking replaces any prior
// edges between the pair in both directions.
type UserConnection struct {
	gorm.Model
	FollowerID  uint             `gorm:"not null;uniqueIndex:idx_follower_following;index:idx_follower_status"`
	FollowingID uint             `gorm:"not null;uniqueIndex:idx_follower_following;index:idx_following_status"`
	Status      ConnectionStatus `gorm:"size:20;not null;index:idx_follower_status;index:idx_following_status"`

	Follower  User `gorm:"foreignKey:FollowerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Following User `gorm:"foreignKey:FollowingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
