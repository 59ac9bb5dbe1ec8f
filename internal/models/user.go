package models

import (
	"database/sql"
	"time"
)

// User represents a ConnectHub account
type User struct {
	ID           int64          `gorm:"primaryKey;autoIncrement;column:id"`
	Username     string         `gorm:"type:varchar(50);not null;uniqueIndex:users_ux1;column:username"`
	Email        string         `gorm:"type:varchar(100);not null;uniqueIndex:users_ux2;column:email"`
	PasswordHash string         `gorm:"type:varchar(255);not null;column:password_hash"`
	Status       string         `gorm:"type:varchar(20);not null;default:'active';column:status"`
	IsAdmin      bool           `gorm:"not null;default:false;column:is_admin"`
	BlockReason  sql.NullString `gorm:"type:varchar(255);column:block_reason"`
	BlockExpiry  sql.NullTime   `gorm:"column:block_expiry"`
	LastLogin    sql.NullTime   `gorm:"column:last_login"`
	CreatedAt    time.Time      `gorm:"not null;column:created_at"`

	// Profile fields
	Bio            sql.NullString `gorm:"type:varchar(500);column:bio"`
	Location       sql.NullString `gorm:"type:varchar(100);column:location"`
	ProfilePicture string         `gorm:"type:varchar(1024);not null;default:'';column:profile_picture"`
	CoverPhoto     string         `gorm:"type:varchar(1024);not null;default:'';column:cover_photo"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// User status constants
const (
	UserStatusActive    = "active"
	UserStatusBlocked   = "blocked"
	UserStatusSuspended = "suspended"
)

// IsBlocked reports whether the account is currently blocked.
// Expired blocks are not proactively cleared; they are lifted lazily
// at the next login attempt.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

// BlockExpired reports whether a blocked account's block window has
// passed as of now.
func (u *User) BlockExpired(now time.Time) bool {
	return u.Status == UserStatusBlocked && u.BlockExpiry.Valid && u.BlockExpiry.Time.Before(now)
}
