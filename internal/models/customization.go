package models

import (
	"database/sql"
)

// UserCustomization holds per-user profile appearance settings. The
// server only stores and returns these values; rendering is client-side.
type UserCustomization struct {
	UserID          int64          `gorm:"primaryKey;column:user_id"`
	ThemeColor      string         `gorm:"type:varchar(20);not null;default:'#4f46e5';column:theme_color"`
	BackgroundImage sql.NullString `gorm:"type:varchar(1024);column:background_image"`
	BackgroundColor sql.NullString `gorm:"type:varchar(20);column:background_color"`
	TextColor       sql.NullString `gorm:"type:varchar(20);column:text_color"`
	LinkColor       sql.NullString `gorm:"type:varchar(20);column:link_color"`
	MusicURL        sql.NullString `gorm:"type:varchar(1024);column:music_url"`
}

// TableName specifies the table name for UserCustomization
func (UserCustomization) TableName() string {
	return "user_customization"
}
