package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/pkg/logging"
)

// NotificationsAPI handles the notification list and read marks.
type NotificationsAPI struct {
	notifications *db.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationsAPI creates the notifications handler set.
func NewNotificationsAPI(notifications *db.NotificationRepository) *NotificationsAPI {
	return &NotificationsAPI{
		notifications: notifications,
		logger:        logging.GetLogger().With(zap.String("component", "notifications-api")),
	}
}

// List returns the caller's notifications, newest first, with the
// unread badge count. unread_only=1 filters to unread.
func (n *NotificationsAPI) List(c *gin.Context) {
	sess := CurrentSession(c)
	ctx := c.Request.Context()

	limit := int(queryInt64(c, "limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := int(queryInt64(c, "offset"))
	unreadOnly := c.Query("unread_only") == "1"

	notifications, err := n.notifications.List(ctx, sess.UserID, unreadOnly, limit, offset)
	if err != nil {
		n.fail(c, "Failed to load notifications", err)
		return
	}

	unread, err := n.notifications.CountUnread(ctx, sess.UserID)
	if err != nil {
		n.fail(c, "Failed to load notifications", err)
		return
	}

	out := make([]gin.H, 0, len(notifications))
	for _, notif := range notifications {
		entry := gin.H{
			"id":         notif.ID,
			"type":       notif.Type,
			"message":    notif.Message,
			"is_read":    notif.IsRead,
			"created_at": notif.CreatedAt,
		}
		if notif.FromUserID.Valid {
			entry["from_user_id"] = notif.FromUserID.Int64
		}
		if notif.ContentID.Valid {
			entry["content_id"] = notif.ContentID.Int64
		}
		out = append(out, entry)
	}

	Success(c, "OK", gin.H{
		"notifications": out,
		"unread_count":  unread,
	})
}

type markReadRequest struct {
	Action         string `json:"action" binding:"required"`
	NotificationID int64  `json:"notification_id"`
}

// MarkRead marks one notification read (action=mark_one_read) or all
// of them (action=mark_all_read).
func (n *NotificationsAPI) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing action")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	switch req.Action {
	case "mark_one_read":
		if req.NotificationID <= 0 {
			Error(c, http.StatusBadRequest, "Missing notification_id")
			return
		}
		err := n.notifications.MarkRead(ctx, req.NotificationID, sess.UserID)
		if err != nil {
			if errors.Is(err, db.ErrNoRowsAffected) {
				Error(c, http.StatusNotFound, "Notification not found")
				return
			}
			n.fail(c, "Failed to mark notification read", err)
			return
		}
		Success(c, "Notification marked read", nil)
	case "mark_all_read":
		if err := n.notifications.MarkAllRead(ctx, sess.UserID); err != nil {
			n.fail(c, "Failed to mark notifications read", err)
			return
		}
		Success(c, "All notifications marked read", nil)
	default:
		Error(c, http.StatusBadRequest, "Unknown action")
	}
}

func (n *NotificationsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		n.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}
