package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/connecthub/connecthub/internal/models"
)

// NotificationRepository writes and reads the notification fan-out
// table. One row per qualifying action, unread by default, no
// deduplication or batching.
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// Notify inserts one unread notification row. fromUserID and contentID
// are optional (pass 0 to omit).
func (r *NotificationRepository) Notify(ctx context.Context, userID int64, notifType, message string, fromUserID, contentID int64) error {
	n := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if fromUserID > 0 {
		n.FromUserID = sql.NullInt64{Int64: fromUserID, Valid: true}
	}
	if contentID > 0 {
		n.ContentID = sql.NullInt64{Int64: contentID, Valid: true}
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// List returns notifications for a user, newest first.
func (r *NotificationRepository) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []*models.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread counts unread notifications for the badge.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read, scoped to its recipient so a
// user cannot mark someone else's row.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// MarkAllRead marks every unread notification for the user read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
