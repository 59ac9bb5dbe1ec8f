package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/logging"
)

// EventsAPI handles events and RSVPs.
type EventsAPI struct {
	events        *db.EventRepository
	friends       *db.FriendRepository
	users         *db.UserRepository
	notifications *db.NotificationRepository
	logger        *zap.Logger
}

// NewEventsAPI creates the events handler set.
func NewEventsAPI(events *db.EventRepository, friends *db.FriendRepository, users *db.UserRepository, notifications *db.NotificationRepository) *EventsAPI {
	return &EventsAPI{
		events:        events,
		friends:       friends,
		users:         users,
		notifications: notifications,
		logger:        logging.GetLogger().With(zap.String("component", "events-api")),
	}
}

type createEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date" binding:"required"` // RFC 3339
}

// Create makes a new event and notifies every friend of the creator.
func (e *EventsAPI) Create(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing title or event_date")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 200 {
		Error(c, http.StatusBadRequest, "Event title must be between 1 and 200 characters")
		return
	}

	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		Error(c, http.StatusBadRequest, "Invalid event date")
		return
	}
	if eventDate.Before(time.Now().UTC()) {
		Error(c, http.StatusBadRequest, "Event date must be in the future")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	event := &models.Event{
		UserID:    sess.UserID,
		Title:     title,
		EventDate: eventDate.UTC(),
	}
	if req.Description != "" {
		event.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.Location != "" {
		event.Location = sql.NullString{String: req.Location, Valid: true}
	}

	if err := e.events.Create(ctx, event); err != nil {
		e.fail(c, "Failed to create event", err)
		return
	}

	friendIDs, err := e.friends.FriendIDs(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("failed to load friends for event fan-out",
			zap.Int64("event_id", event.ID), zap.Error(err))
	} else {
		message := fmt.Sprintf("%s created a new event: %s", sess.Username, title)
		for _, friendID := range friendIDs {
			e.notify(ctx, friendID, models.NotifyTypeNewEvent, message, sess.UserID, event.ID)
		}
	}

	Success(c, "Event created", gin.H{"event_id": event.ID})
}

type joinEventRequest struct {
	EventID int64  `json:"event_id" binding:"required"`
	Action  string `json:"action" binding:"required"` // going, interested, leave
}

// Join sets or clears the caller's RSVP. The event creator is notified
// on a changed going or interested RSVP, not on leave.
func (e *EventsAPI) Join(c *gin.Context) {
	var req joinEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing event_id or action")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	event, err := e.events.GetByID(ctx, req.EventID)
	if err != nil {
		e.fail(c, "Failed to update attendance", err)
		return
	}
	if event == nil {
		Error(c, http.StatusNotFound, "Event not found")
		return
	}

	switch req.Action {
	case "leave":
		if err := e.events.Leave(ctx, req.EventID, sess.UserID); err != nil {
			if errors.Is(err, db.ErrNotAttending) {
				Error(c, http.StatusBadRequest, "You are not attending this event")
				return
			}
			e.fail(c, "Failed to update attendance", err)
			return
		}
		Success(c, "You have left the event", nil)
		return

	case models.AttendStatusGoing, models.AttendStatusInterested:
		result, err := e.events.RSVP(ctx, req.EventID, sess.UserID, req.Action)
		if err != nil {
			e.fail(c, "Failed to update attendance", err)
			return
		}

		if result.Changed && event.UserID != sess.UserID {
			if req.Action == models.AttendStatusGoing {
				e.notify(ctx, event.UserID, models.NotifyTypeEventGoing,
					fmt.Sprintf("%s is now going to your event: %s", sess.Username, event.Title),
					sess.UserID, event.ID)
			} else {
				e.notify(ctx, event.UserID, models.NotifyTypeEventJoin,
					fmt.Sprintf("%s is %s to your event: %s", sess.Username, req.Action, event.Title),
					sess.UserID, event.ID)
			}
		}
		Success(c, "Attendance updated", gin.H{"status": result.Status})
		return

	default:
		Error(c, http.StatusBadRequest, "Invalid action")
	}
}

// List returns upcoming events with attendance counts.
func (e *EventsAPI) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := int(queryInt64(c, "limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := int(queryInt64(c, "offset"))

	events, err := e.events.Upcoming(ctx, limit, offset)
	if err != nil {
		e.fail(c, "Failed to load events", err)
		return
	}

	out := make([]gin.H, 0, len(events))
	for _, event := range events {
		going, interested, err := e.events.AttendeeCounts(ctx, event.ID)
		if err != nil {
			e.fail(c, "Failed to load events", err)
			return
		}
		creator, err := e.users.GetByID(ctx, event.UserID)
		if err != nil {
			e.fail(c, "Failed to load events", err)
			return
		}

		entry := gin.H{
			"id":         event.ID,
			"user_id":    event.UserID,
			"title":      event.Title,
			"event_date": event.EventDate,
			"going":      going,
			"interested": interested,
			"created_at": event.CreatedAt,
		}
		if event.Description.Valid {
			entry["description"] = event.Description.String
		}
		if event.Location.Valid {
			entry["location"] = event.Location.String
		}
		if creator != nil {
			entry["username"] = creator.Username
		}
		out = append(out, entry)
	}

	Success(c, "OK", gin.H{"events": out})
}

func (e *EventsAPI) notify(ctx context.Context, userID int64, notifType, message string, fromUserID, contentID int64) {
	if err := e.notifications.Notify(ctx, userID, notifType, message, fromUserID, contentID); err != nil {
		e.logger.Error("failed to write notification",
			zap.String("type", notifType), zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (e *EventsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		e.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}
