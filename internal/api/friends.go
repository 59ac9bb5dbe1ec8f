package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/logging"
)

// FriendsAPI handles friend requests, friendships, and user blocks.
type FriendsAPI struct {
	friends       *db.FriendRepository
	users         *db.UserRepository
	messages      *db.MessageRepository
	notifications *db.NotificationRepository
	logger        *zap.Logger
}

// NewFriendsAPI creates the friends handler set.
func NewFriendsAPI(friends *db.FriendRepository, users *db.UserRepository, messages *db.MessageRepository, notifications *db.NotificationRepository) *FriendsAPI {
	return &FriendsAPI{
		friends:       friends,
		users:         users,
		messages:      messages,
		notifications: notifications,
		logger:        logging.GetLogger().With(zap.String("component", "friends-api")),
	}
}

type friendTargetRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type friendRequestIDRequest struct {
	RequestID int64 `json:"request_id" binding:"required"`
}

// Add sends a friend request. If the target already sent one the other
// way, the two become friends immediately.
func (f *FriendsAPI) Add(c *gin.Context) {
	var req friendTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	target, err := f.users.GetByID(ctx, req.UserID)
	if err != nil {
		f.fail(c, "Failed to send friend request", err)
		return
	}
	if target == nil {
		Error(c, http.StatusNotFound, "User not found")
		return
	}

	result, err := f.friends.SendRequest(ctx, sess.UserID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrSelfRequest),
			errors.Is(err, db.ErrAlreadyFriends),
			errors.Is(err, db.ErrRequestPending),
			errors.Is(err, db.ErrPairBlocked):
			Error(c, http.StatusBadRequest, err.Error())
		default:
			f.fail(c, "Failed to send friend request", err)
		}
		return
	}

	if result.Accepted {
		f.notify(ctx, req.UserID, models.NotifyTypeFriendAccept,
			fmt.Sprintf("%s accepted your friend request", sess.Username), sess.UserID, 0)
		Success(c, "Friend request accepted", gin.H{"status": models.FriendStatusAccepted})
		return
	}

	f.notify(ctx, req.UserID, models.NotifyTypeFriendRequest,
		fmt.Sprintf("%s sent you a friend request", sess.Username), sess.UserID, 0)
	Success(c, "Friend request sent", gin.H{
		"status":     models.FriendStatusPending,
		"request_id": result.Edge.ID,
	})
}

// Accept accepts an incoming friend request by its id.
func (f *FriendsAPI) Accept(c *gin.Context) {
	var req friendRequestIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing request_id")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	edge, err := f.friends.GetByID(ctx, req.RequestID)
	if err != nil {
		f.fail(c, "Failed to accept friend request", err)
		return
	}

	if err := f.friends.Accept(ctx, req.RequestID, sess.UserID); err != nil {
		if errors.Is(err, db.ErrNotReceiver) {
			Error(c, http.StatusBadRequest, "Friend request not found")
			return
		}
		f.fail(c, "Failed to accept friend request", err)
		return
	}

	if edge != nil {
		f.notify(ctx, edge.UserID, models.NotifyTypeFriendAccept,
			fmt.Sprintf("%s accepted your friend request", sess.Username), sess.UserID, 0)
	}
	Success(c, "Friend request accepted", nil)
}

// Reject declines an incoming friend request. The row is deleted, so a
// fresh request between the pair is allowed afterwards.
func (f *FriendsAPI) Reject(c *gin.Context) {
	var req friendRequestIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing request_id")
		return
	}

	sess := CurrentSession(c)
	if err := f.friends.Reject(c.Request.Context(), req.RequestID, sess.UserID); err != nil {
		if errors.Is(err, db.ErrNotReceiver) {
			Error(c, http.StatusBadRequest, "Friend request not found")
			return
		}
		f.fail(c, "Failed to reject friend request", err)
		return
	}
	Success(c, "Friend request rejected", nil)
}

// Cancel withdraws an outgoing friend request.
func (f *FriendsAPI) Cancel(c *gin.Context) {
	var req friendRequestIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing request_id")
		return
	}

	sess := CurrentSession(c)
	if err := f.friends.Cancel(c.Request.Context(), req.RequestID, sess.UserID); err != nil {
		if errors.Is(err, db.ErrNoSuchFriendship) {
			Error(c, http.StatusBadRequest, "Friend request not found")
			return
		}
		f.fail(c, "Failed to cancel friend request", err)
		return
	}
	Success(c, "Friend request cancelled", nil)
}

// Unfriend removes an accepted friendship in either direction.
func (f *FriendsAPI) Unfriend(c *gin.Context) {
	var req friendTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	sess := CurrentSession(c)
	if err := f.friends.Unfriend(c.Request.Context(), sess.UserID, req.UserID); err != nil {
		if errors.Is(err, db.ErrNoSuchFriendship) {
			Error(c, http.StatusBadRequest, "Friendship not found")
			return
		}
		f.fail(c, "Failed to unfriend", err)
		return
	}
	Success(c, "Friend removed", nil)
}

// Block blocks a user. Any friendship or pending request collapses into
// the block, and the message history between the pair is erased.
func (f *FriendsAPI) Block(c *gin.Context) {
	var req friendTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	sess := CurrentSession(c)
	if req.UserID == sess.UserID {
		Error(c, http.StatusBadRequest, "Cannot block yourself")
		return
	}

	ctx := c.Request.Context()
	if err := f.friends.Block(ctx, sess.UserID, req.UserID); err != nil {
		if errors.Is(err, db.ErrPairBlocked) {
			Error(c, http.StatusBadRequest, "User already blocked")
			return
		}
		f.fail(c, "Failed to block user", err)
		return
	}

	if err := f.messages.DeleteBetween(ctx, sess.UserID, req.UserID); err != nil {
		f.logger.Error("failed to delete messages after block",
			zap.Int64("user_id", sess.UserID), zap.Int64("blocked_id", req.UserID), zap.Error(err))
	}

	Success(c, "User blocked", nil)
}

// Unblock lifts a block the caller placed.
func (f *FriendsAPI) Unblock(c *gin.Context) {
	var req friendTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	sess := CurrentSession(c)
	if err := f.friends.Unblock(c.Request.Context(), sess.UserID, req.UserID); err != nil {
		if errors.Is(err, db.ErrNoSuchFriendship) {
			Error(c, http.StatusBadRequest, "User is not blocked")
			return
		}
		f.fail(c, "Failed to unblock user", err)
		return
	}
	Success(c, "User unblocked", nil)
}

// List returns the caller's accepted friends.
func (f *FriendsAPI) List(c *gin.Context) {
	sess := CurrentSession(c)
	ctx := c.Request.Context()

	ids, err := f.friends.FriendIDs(ctx, sess.UserID)
	if err != nil {
		f.fail(c, "Failed to load friends", err)
		return
	}

	friends := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		user, err := f.users.GetByID(ctx, id)
		if err != nil {
			f.fail(c, "Failed to load friends", err)
			return
		}
		if user != nil {
			friends = append(friends, publicUser(user))
		}
	}

	Success(c, "OK", gin.H{"friends": friends})
}

// Requests returns incoming and outgoing pending requests.
func (f *FriendsAPI) Requests(c *gin.Context) {
	sess := CurrentSession(c)
	ctx := c.Request.Context()

	incoming, err := f.friends.IncomingRequests(ctx, sess.UserID)
	if err != nil {
		f.fail(c, "Failed to load friend requests", err)
		return
	}
	outgoing, err := f.friends.OutgoingRequests(ctx, sess.UserID)
	if err != nil {
		f.fail(c, "Failed to load friend requests", err)
		return
	}

	in, err := f.requestEntries(c, incoming, true)
	if err != nil {
		f.fail(c, "Failed to load friend requests", err)
		return
	}
	out, err := f.requestEntries(c, outgoing, false)
	if err != nil {
		f.fail(c, "Failed to load friend requests", err)
		return
	}

	Success(c, "OK", gin.H{
		"incoming": in,
		"outgoing": out,
	})
}

func (f *FriendsAPI) requestEntries(c *gin.Context, edges []*models.Friendship, incoming bool) ([]gin.H, error) {
	entries := make([]gin.H, 0, len(edges))
	for _, edge := range edges {
		otherID := edge.UserID
		if !incoming {
			otherID = edge.FriendID
		}
		user, err := f.users.GetByID(c.Request.Context(), otherID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		entries = append(entries, gin.H{
			"request_id": edge.ID,
			"user":       publicUser(user),
			"created_at": edge.CreatedAt,
		})
	}
	return entries, nil
}

// notify fans out a notification; failures are logged, not surfaced,
// since the primary action has already committed.
func (f *FriendsAPI) notify(ctx context.Context, userID int64, notifType, message string, fromUserID, contentID int64) {
	if err := f.notifications.Notify(ctx, userID, notifType, message, fromUserID, contentID); err != nil {
		f.logger.Error("failed to write notification",
			zap.String("type", notifType), zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (f *FriendsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		f.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}
