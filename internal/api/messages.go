package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/cache"
	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/logging"
)

// unreadCacheTTL bounds staleness of the unread badge between explicit
// invalidations.
const unreadCacheTTL = 30 * time.Second

// MessagesAPI handles direct messages and the conversation inbox.
type MessagesAPI struct {
	messages      *db.MessageRepository
	friends       *db.FriendRepository
	users         *db.UserRepository
	notifications *db.NotificationRepository
	cache         *cache.Cache
	logger        *zap.Logger
}

// NewMessagesAPI creates the messaging handler set.
func NewMessagesAPI(messages *db.MessageRepository, friends *db.FriendRepository, users *db.UserRepository, notifications *db.NotificationRepository, redisCache *cache.Cache) *MessagesAPI {
	return &MessagesAPI{
		messages:      messages,
		friends:       friends,
		users:         users,
		notifications: notifications,
		cache:         redisCache,
		logger:        logging.GetLogger().With(zap.String("component", "messages-api")),
	}
}

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// Send delivers one message. A block in either direction refuses with
// a generic failure so the block itself is not revealed.
func (m *MessagesAPI) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing receiver_id or content")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		Error(c, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	sess := CurrentSession(c)
	if req.ReceiverID == sess.UserID {
		Error(c, http.StatusBadRequest, "Cannot message yourself")
		return
	}

	ctx := c.Request.Context()

	receiver, err := m.users.GetByID(ctx, req.ReceiverID)
	if err != nil {
		m.fail(c, "Failed to send message", err)
		return
	}
	if receiver == nil {
		Error(c, http.StatusNotFound, "User not found")
		return
	}

	blocked, err := m.friends.IsBlockedEither(ctx, sess.UserID, req.ReceiverID)
	if err != nil {
		m.fail(c, "Failed to send message", err)
		return
	}
	if blocked {
		Error(c, http.StatusForbidden, "Failed to send message")
		return
	}

	msg, err := m.messages.Send(ctx, sess.UserID, req.ReceiverID, content)
	if err != nil {
		m.fail(c, "Failed to send message", err)
		return
	}

	m.notify(ctx, req.ReceiverID, models.NotifyTypeMessage,
		fmt.Sprintf("New message from %s", sess.Username), sess.UserID, msg.ID)
	m.dropUnreadBadge(req.ReceiverID)

	Success(c, "Message sent", gin.H{"message_id": msg.ID, "created_at": msg.CreatedAt})
}

// Thread returns a page of messages with the partner named by the
// user_id query parameter. after_id polls for newer messages,
// before_id pages backwards; fetching as the receiver marks the
// partner's messages read.
func (m *MessagesAPI) Thread(c *gin.Context) {
	partnerID := queryInt64(c, "user_id")
	if partnerID <= 0 {
		Error(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	q := db.ThreadQuery{
		AfterID:  queryInt64(c, "after_id"),
		BeforeID: queryInt64(c, "before_id"),
		Limit:    int(queryInt64(c, "limit")),
	}

	messages, err := m.messages.FetchThread(ctx, sess.UserID, partnerID, q)
	if err != nil {
		m.fail(c, "Failed to load messages", err)
		return
	}

	if err := m.messages.MarkThreadRead(ctx, sess.UserID, partnerID); err != nil {
		m.logger.Error("failed to mark thread read",
			zap.Int64("user_id", sess.UserID), zap.Int64("partner_id", partnerID), zap.Error(err))
	} else {
		m.dropUnreadBadge(sess.UserID)
	}

	out := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		out = append(out, gin.H{
			"id":          msg.ID,
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"content":     msg.Content,
			"is_read":     msg.IsRead,
			"created_at":  msg.CreatedAt,
		})
	}

	Success(c, "OK", gin.H{"messages": out})
}

// Conversations returns the inbox: one entry per partner, newest
// thread first, with unread counts.
func (m *MessagesAPI) Conversations(c *gin.Context) {
	sess := CurrentSession(c)
	ctx := c.Request.Context()

	conversations, err := m.messages.Conversations(ctx, sess.UserID)
	if err != nil {
		m.fail(c, "Failed to load conversations", err)
		return
	}

	out := make([]gin.H, 0, len(conversations))
	for _, conv := range conversations {
		partner, err := m.users.GetByID(ctx, conv.PartnerID)
		if err != nil {
			m.fail(c, "Failed to load conversations", err)
			return
		}
		if partner == nil {
			continue
		}
		out = append(out, gin.H{
			"partner":        publicUser(partner),
			"last_message":   conv.LastMessage,
			"last_sender_id": conv.LastSenderID,
			"last_sent_at":   conv.LastSentAt,
			"unread_count":   conv.UnreadCount,
		})
	}

	Success(c, "OK", gin.H{"conversations": out})
}

// UnreadCount returns the total unread messages badge. The count is
// cached briefly in Redis; Send and Thread drop the cached value so
// the badge tracks reads and new messages.
func (m *MessagesAPI) UnreadCount(c *gin.Context) {
	sess := CurrentSession(c)

	key := unreadBadgeKey(sess.UserID)
	if cached, err := m.cache.Get(key); err == nil {
		if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			Success(c, "OK", gin.H{"unread": count})
			return
		}
	}

	count, err := m.messages.CountUnread(c.Request.Context(), sess.UserID)
	if err != nil {
		m.fail(c, "Failed to count unread messages", err)
		return
	}

	if err := m.cache.Set(key, count, unreadCacheTTL); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		m.logger.Error("failed to cache unread badge", zap.Error(err))
	}
	Success(c, "OK", gin.H{"unread": count})
}

func unreadBadgeKey(userID int64) string {
	return "badge:" + cache.HashKey("messages", "unread", strconv.FormatInt(userID, 10))
}

// dropUnreadBadge invalidates the cached badge after anything that
// changes the count.
func (m *MessagesAPI) dropUnreadBadge(userID int64) {
	if err := m.cache.Delete(unreadBadgeKey(userID)); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		m.logger.Error("failed to invalidate unread badge",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (m *MessagesAPI) notify(ctx context.Context, userID int64, notifType, message string, fromUserID, contentID int64) {
	if err := m.notifications.Notify(ctx, userID, notifType, message, fromUserID, contentID); err != nil {
		m.logger.Error("failed to write notification",
			zap.String("type", notifType), zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (m *MessagesAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		m.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}

func queryInt64(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
