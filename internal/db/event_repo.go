package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/connecthub/connecthub/internal/models"
)

// ErrNotAttending is returned when leaving an event without an RSVP.
var ErrNotAttending = errors.New("not currently attending this event")

// EventRepository provides event and RSVP operations.
type EventRepository struct {
	*Repository
}

// NewEventRepository creates a new event repository
func NewEventRepository(repo *Repository) *EventRepository {
	return &EventRepository{Repository: repo}
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	event.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(event).Error
}

// RSVPResult describes the outcome of an RSVP call.
type RSVPResult struct {
	Status  string
	Changed bool // false when the status was already set
}

// RSVP sets the user's attendance to going or interested, inserting or
// updating the row. Setting the status it already has is a no-op.
func (r *EventRepository) RSVP(ctx context.Context, eventID, userID int64, status string) (*RSVPResult, error) {
	var existing models.EventAttendee
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.EventAttendee{
			EventID:   eventID,
			UserID:    userID,
			Status:    status,
			CreatedAt: time.Now().UTC(),
		}).Error
		if err != nil {
			return nil, err
		}
		return &RSVPResult{Status: status, Changed: true}, nil
	case err != nil:
		return nil, err
	}

	if existing.Status == status {
		return &RSVPResult{Status: status, Changed: false}, nil
	}

	err = r.db.WithContext(ctx).Model(&models.EventAttendee{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"status":     status,
			"created_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	return &RSVPResult{Status: status, Changed: true}, nil
}

// Leave removes the user's RSVP.
func (r *EventRepository) Leave(ctx context.Context, eventID, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventAttendee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotAttending
	}
	return nil
}

// AttendeeCounts returns going and interested counts for an event.
func (r *EventRepository) AttendeeCounts(ctx context.Context, eventID int64) (going, interested int64, err error) {
	err = r.db.WithContext(ctx).Model(&models.EventAttendee{}).
		Where("event_id = ? AND status = ?", eventID, models.AttendStatusGoing).
		Count(&going).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.EventAttendee{}).
		Where("event_id = ? AND status = ?", eventID, models.AttendStatusInterested).
		Count(&interested).Error
	if err != nil {
		return 0, 0, err
	}
	return going, interested, nil
}

// Upcoming returns events with a date at or after now, soonest first.
func (r *EventRepository) Upcoming(ctx context.Context, limit, offset int) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Where("event_date >= ?", time.Now().UTC()).
		Order("event_date ASC").
		Limit(limit).Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
