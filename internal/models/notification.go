package models

import (
	"database/sql"
	"time"
)

// Notification represents a notification fanned out to a user
type Notification struct {
	ID         int64          `gorm:"primaryKey;autoIncrement;column:id"`
	UserID     int64          `gorm:"not null;index:notifications_ix1;column:user_id"`
	FromUserID sql.NullInt64  `gorm:"column:from_user_id"`
	Type       string         `gorm:"type:varchar(30);not null;column:type"`
	Message    string         `gorm:"type:varchar(500);not null;column:message"`
	ContentID  sql.NullInt64  `gorm:"column:content_id"`
	IsRead     bool           `gorm:"not null;default:false;column:is_read"`
	CreatedAt  time.Time      `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotifyTypeFriendRequest = "friend_request"
	NotifyTypeFriendAccept  = "friend_accept"
	NotifyTypeLike          = "like"
	NotifyTypeComment       = "comment"
	NotifyTypeMessage       = "message"
	NotifyTypeReport        = "report"
	NotifyTypeNewEvent      = "new_event"
	NotifyTypeEventJoin     = "event_join"
	NotifyTypeEventGoing    = "event_going"
)
