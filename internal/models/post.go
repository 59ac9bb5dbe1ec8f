package models

import (
	"database/sql"
	"time"
)

// Post represents a user post
type Post struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64          `gorm:"not null;index:posts_ix1;column:user_id"`
	Content   string         `gorm:"type:text;not null;column:content"`
	Image     sql.NullString `gorm:"type:varchar(1024);column:image"`
	Privacy   string         `gorm:"type:varchar(20);not null;default:'public';column:privacy"`
	CreatedAt time.Time      `gorm:"not null;index:posts_ix2;column:created_at"`
	UpdatedAt time.Time      `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Post privacy constants
const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
	PrivacyPrivate = "private"
)

// Comment represents a comment on a post
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	PostID    int64     `gorm:"not null;index:comments_ix1;column:post_id"`
	UserID    int64     `gorm:"not null;column:user_id"`
	Content   string    `gorm:"type:text;not null;column:content"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// Like represents a like on a post
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	PostID    int64     `gorm:"not null;uniqueIndex:likes_ux1,priority:1;column:post_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:likes_ux1,priority:2;column:user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
