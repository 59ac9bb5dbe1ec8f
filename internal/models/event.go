package models

import (
	"database/sql"
	"time"
)

// Event represents a user-created event
type Event struct {
	ID          int64          `gorm:"primaryKey;autoIncrement;column:id"`
	UserID      int64          `gorm:"not null;index:events_ix1;column:user_id"`
	Title       string         `gorm:"type:varchar(200);not null;column:title"`
	Description sql.NullString `gorm:"type:text;column:description"`
	Location    sql.NullString `gorm:"type:varchar(200);column:location"`
	EventDate   time.Time      `gorm:"not null;column:event_date"`
	CreatedAt   time.Time      `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Event
func (Event) TableName() string {
	return "events"
}

// EventAttendee represents a user's RSVP to an event
type EventAttendee struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	EventID   int64     `gorm:"not null;uniqueIndex:event_attendees_ux1,priority:1;column:event_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:event_attendees_ux1,priority:2;column:user_id"`
	Status    string    `gorm:"type:varchar(20);not null;column:status"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for EventAttendee
func (EventAttendee) TableName() string {
	return "event_attendees"
}

// Attendance status constants
const (
	AttendStatusGoing      = "going"
	AttendStatusInterested = "interested"
)
