package models

import (
	"time"
)

// Friendship represents a directed relationship edge between two users.
// UserID is the requester (or blocker), FriendID the receiver. At most
// one edge may exist per unordered pair; the unique index covers the
// stored direction and callers check the reverse direction before
// inserting.
type Friendship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `gorm:"not null;uniqueIndex:friends_ux1,priority:1;column:user_id"`
	FriendID  int64     `gorm:"not null;uniqueIndex:friends_ux1,priority:2;index:friends_ix1;column:friend_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';column:status"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Friendship
func (Friendship) TableName() string {
	return "friends"
}

// Friendship status constants. Rejected and cancelled requests are
// deleted outright rather than kept in a terminal state, so a new
// request between the same pair succeeds immediately afterwards.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusBlocked  = "blocked"
)
