package db

import (
	"context"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/telemetry"
)

// MessageRepository handles the append-only message table and its
// watermark-based thread queries.
type MessageRepository struct {
	*Repository
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(repo *Repository) *MessageRepository {
	return &MessageRepository{Repository: repo}
}

// Send inserts one message row.
func (r *MessageRepository) Send(ctx context.Context, senderID, receiverID int64, content string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// ThreadQuery selects a page of a two-user thread. AfterID and
// BeforeID are id watermarks: AfterID fetches newer rows for polling,
// BeforeID fetches older rows for backward pagination. At most one
// should be set; AfterID wins if both are.
type ThreadQuery struct {
	AfterID  int64
	BeforeID int64
	Limit    int
}

// FetchThread returns messages between two users in ascending id
// order. With AfterID set only rows with id > AfterID are returned;
// with BeforeID only rows with id < BeforeID, taking the newest page
// below the watermark. Without either, the latest page is returned.
func (r *MessageRepository) FetchThread(ctx context.Context, userID, partnerID int64, q ThreadQuery) ([]*models.Message, error) {
	ctx, span := telemetry.StartSpan(ctx, "messages.fetch_thread")
	defer span.End()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, partnerID, partnerID, userID)

	var messages []*models.Message
	if q.AfterID > 0 {
		err := query.Where("id > ?", q.AfterID).
			Order("id ASC").
			Limit(limit).
			Find(&messages).Error
		if err != nil {
			return nil, err
		}
		return messages, nil
	}

	if q.BeforeID > 0 {
		query = query.Where("id < ?", q.BeforeID)
	}
	err := query.Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Newest page is fetched descending; present it chronologically.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkThreadRead flips unread messages from partner to read, as seen
// by the receiver opening or polling the thread.
func (r *MessageRepository) MarkThreadRead(ctx context.Context, receiverID, partnerID int64) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", partnerID, receiverID, false).
		Update("is_read", true).Error
}

// CountUnread counts unread messages addressed to the user.
func (r *MessageRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// Conversation summarizes one message thread for the inbox list.
type Conversation struct {
	PartnerID     int64
	LastMessageID int64
	LastMessage   string
	LastSenderID  int64
	LastSentAt    time.Time
	UnreadCount   int64
}

// Conversations returns one entry per partner the user has exchanged
// messages with, ordered by most recent message.
func (r *MessageRepository) Conversations(ctx context.Context, userID int64) ([]*Conversation, error) {
	ctx, span := telemetry.StartSpan(ctx, "messages.conversations")
	defer span.End()

	// Latest message id per unordered pair involving the user.
	var lastIDs []int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("MAX(id)").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("CASE WHEN sender_id < receiver_id THEN sender_id ELSE receiver_id END").
		Group("CASE WHEN sender_id < receiver_id THEN receiver_id ELSE sender_id END").
		Pluck("MAX(id)", &lastIDs).Error
	if err != nil {
		return nil, err
	}
	if len(lastIDs) == 0 {
		return []*Conversation{}, nil
	}

	var lastMessages []*models.Message
	err = r.db.WithContext(ctx).
		Where("id IN ?", lastIDs).
		Order("id DESC").
		Find(&lastMessages).Error
	if err != nil {
		return nil, err
	}

	conversations := make([]*Conversation, 0, len(lastMessages))
	for _, msg := range lastMessages {
		partnerID := msg.SenderID
		if partnerID == userID {
			partnerID = msg.ReceiverID
		}

		var unread int64
		err := r.db.WithContext(ctx).Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", partnerID, userID, false).
			Count(&unread).Error
		if err != nil {
			return nil, err
		}

		conversations = append(conversations, &Conversation{
			PartnerID:     partnerID,
			LastMessageID: msg.ID,
			LastMessage:   msg.Content,
			LastSenderID:  msg.SenderID,
			LastSentAt:    msg.CreatedAt,
			UnreadCount:   unread,
		})
	}
	return conversations, nil
}

// DeleteBetween removes all messages between two users, used when one
// blocks the other.
func (r *MessageRepository) DeleteBetween(ctx context.Context, userID, otherID int64) error {
	return r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Delete(&models.Message{}).Error
}
