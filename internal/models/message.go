package models

import (
	"time"
)

// Message represents a direct message between two users. Rows are
// append-only; only IsRead is ever mutated, when the receiver fetches
// the thread. Thread ordering is strictly by increasing id.
type Message struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	SenderID   int64     `gorm:"not null;index:messages_ix1;column:sender_id"`
	ReceiverID int64     `gorm:"not null;index:messages_ix2;column:receiver_id"`
	Content    string    `gorm:"type:text;not null;column:content"`
	IsRead     bool      `gorm:"not null;default:false;column:is_read"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}
