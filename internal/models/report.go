package models

import (
	"database/sql"
	"time"
)

// Report represents a user report against a post, comment, or user.
// Exactly one of PostID, CommentID, or ReportedUserID-alone identifies
// the target; a post or comment report also carries the content
// owner's id in ReportedUserID.
type Report struct {
	ID             int64          `gorm:"primaryKey;autoIncrement;column:id"`
	ReporterID     int64          `gorm:"not null;index:reports_ix1;column:reporter_id"`
	ReportedUserID sql.NullInt64  `gorm:"column:reported_user_id"`
	PostID         sql.NullInt64  `gorm:"column:post_id"`
	CommentID      sql.NullInt64  `gorm:"column:comment_id"`
	Reason         string         `gorm:"type:varchar(100);not null;column:reason"`
	Status         string         `gorm:"type:varchar(20);not null;default:'pending';index:reports_ix2;column:status"`
	AdminNotes     sql.NullString `gorm:"type:text;column:admin_notes"`
	CreatedAt      time.Time      `gorm:"not null;column:created_at"`
	UpdatedAt      time.Time      `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Report
func (Report) TableName() string {
	return "reports"
}

// Report status constants. Pending reports move to reviewed, dismissed,
// or actioned; reviewed is a soft acknowledgement and can still be
// dismissed or actioned afterwards.
const (
	ReportStatusPending   = "pending"
	ReportStatusReviewed  = "reviewed"
	ReportStatusDismissed = "dismissed"
	ReportStatusActioned  = "actioned"
)

// Report target types used by listing filters
const (
	ReportTypePost    = "post"
	ReportTypeComment = "comment"
	ReportTypeUser    = "user"
)

// TargetType classifies the report by what it points at.
func (r *Report) TargetType() string {
	switch {
	case r.PostID.Valid:
		return ReportTypePost
	case r.CommentID.Valid:
		return ReportTypeComment
	default:
		return ReportTypeUser
	}
}
