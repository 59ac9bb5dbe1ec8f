package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/logging"
)

// PostsAPI handles posts, likes, and comments.
type PostsAPI struct {
	posts         *db.PostRepository
	users         *db.UserRepository
	notifications *db.NotificationRepository
	logger        *zap.Logger
}

// NewPostsAPI creates the posts handler set.
func NewPostsAPI(posts *db.PostRepository, users *db.UserRepository, notifications *db.NotificationRepository) *PostsAPI {
	return &PostsAPI{
		posts:         posts,
		users:         users,
		notifications: notifications,
		logger:        logging.GetLogger().With(zap.String("component", "posts-api")),
	}
}

type createPostRequest struct {
	Content string `json:"content" binding:"required"`
	Image   string `json:"image"`
	Privacy string `json:"privacy"`
}

// Create publishes a new post. Privacy defaults to public.
func (p *PostsAPI) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing content")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		Error(c, http.StatusBadRequest, "Post cannot be empty")
		return
	}

	privacy := req.Privacy
	switch privacy {
	case "":
		privacy = models.PrivacyPublic
	case models.PrivacyPublic, models.PrivacyFriends, models.PrivacyPrivate:
	default:
		Error(c, http.StatusBadRequest, "Invalid privacy setting")
		return
	}

	sess := CurrentSession(c)
	post := &models.Post{
		UserID:  sess.UserID,
		Content: content,
		Privacy: privacy,
	}
	if req.Image != "" {
		post.Image = sql.NullString{String: req.Image, Valid: true}
	}

	if err := p.posts.Create(c.Request.Context(), post); err != nil {
		p.fail(c, "Failed to create post", err)
		return
	}

	Success(c, "Post created", gin.H{"post_id": post.ID})
}

type editPostRequest struct {
	PostID  int64  `json:"post_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Edit updates a post's content; only the owner may edit.
func (p *PostsAPI) Edit(c *gin.Context) {
	var req editPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing post_id or content")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		Error(c, http.StatusBadRequest, "Post cannot be empty")
		return
	}

	sess := CurrentSession(c)
	err := p.posts.UpdateContent(c.Request.Context(), req.PostID, sess.UserID, content)
	if err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			Error(c, http.StatusNotFound, "Post not found")
			return
		}
		p.fail(c, "Failed to edit post", err)
		return
	}
	Success(c, "Post updated", nil)
}

type postIDRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

// Delete removes a post; only the owner may delete.
func (p *PostsAPI) Delete(c *gin.Context) {
	var req postIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing post_id")
		return
	}

	sess := CurrentSession(c)
	err := p.posts.Delete(c.Request.Context(), req.PostID, sess.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			Error(c, http.StatusNotFound, "Post not found")
			return
		}
		p.fail(c, "Failed to delete post", err)
		return
	}
	Success(c, "Post deleted", nil)
}

type likeRequest struct {
	PostID int64  `json:"post_id" binding:"required"`
	Action string `json:"action" binding:"required"` // like or unlike
}

// Like likes or unlikes a post. Repeating the current state is a
// successful no-op. A fresh like notifies the post owner.
func (p *PostsAPI) Like(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing required parameters.")
		return
	}
	if req.Action != "like" && req.Action != "unlike" {
		Error(c, http.StatusBadRequest, "Invalid action.")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	post, err := p.posts.GetVisible(ctx, req.PostID, sess.UserID)
	if err != nil {
		p.fail(c, "Failed to like post", err)
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "Post not found or you do not have permission to interact with it.")
		return
	}

	if req.Action == "unlike" {
		if err := p.posts.Unlike(ctx, req.PostID, sess.UserID); err != nil {
			p.fail(c, "Failed to unlike post.", err)
			return
		}
		Success(c, "Post unliked successfully", nil)
		return
	}

	created, err := p.posts.Like(ctx, req.PostID, sess.UserID)
	if err != nil {
		p.fail(c, "Failed to like post.", err)
		return
	}
	if !created {
		Success(c, "No change needed.", nil)
		return
	}

	if post.UserID != sess.UserID {
		p.notify(ctx, post.UserID, models.NotifyTypeLike,
			fmt.Sprintf("%s liked your post", sess.Username), sess.UserID, post.ID)
	}
	Success(c, "Post liked successfully", nil)
}

type addCommentRequest struct {
	PostID  int64  `json:"post_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// AddComment comments on a visible post and notifies its owner.
func (p *PostsAPI) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing post_id or content")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		Error(c, http.StatusBadRequest, "Comment cannot be empty")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	post, err := p.posts.GetVisible(ctx, req.PostID, sess.UserID)
	if err != nil {
		p.fail(c, "Failed to add comment", err)
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "Post not found or you do not have permission to interact with it.")
		return
	}

	comment := &models.Comment{
		PostID:  req.PostID,
		UserID:  sess.UserID,
		Content: content,
	}
	if err := p.posts.AddComment(ctx, comment); err != nil {
		p.fail(c, "Failed to add comment", err)
		return
	}

	if post.UserID != sess.UserID {
		p.notify(ctx, post.UserID, models.NotifyTypeComment,
			fmt.Sprintf("%s commented on your post", sess.Username), sess.UserID, post.ID)
	}

	Success(c, "Comment added", gin.H{"comment_id": comment.ID, "created_at": comment.CreatedAt})
}

// Comments returns a post's comments, oldest first.
func (p *PostsAPI) Comments(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("postID"), 10, 64)
	if err != nil || postID <= 0 {
		Error(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	post, err := p.posts.GetVisible(ctx, postID, sess.UserID)
	if err != nil {
		p.fail(c, "Failed to load comments", err)
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "Post not found or you do not have permission to interact with it.")
		return
	}

	limit := int(queryInt64(c, "limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := int(queryInt64(c, "offset"))

	comments, err := p.posts.Comments(ctx, postID, limit, offset)
	if err != nil {
		p.fail(c, "Failed to load comments", err)
		return
	}

	out := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		author, err := p.users.GetByID(ctx, comment.UserID)
		if err != nil {
			p.fail(c, "Failed to load comments", err)
			return
		}
		entry := gin.H{
			"id":         comment.ID,
			"user_id":    comment.UserID,
			"content":    comment.Content,
			"created_at": comment.CreatedAt,
		}
		if author != nil {
			entry["username"] = author.Username
			entry["profile_picture"] = author.ProfilePicture
		}
		out = append(out, entry)
	}

	Success(c, "OK", gin.H{"comments": out})
}

// Get returns one post with its like count, respecting privacy.
func (p *PostsAPI) Get(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("postID"), 10, 64)
	if err != nil || postID <= 0 {
		Error(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	post, err := p.posts.GetVisible(ctx, postID, sess.UserID)
	if err != nil {
		p.fail(c, "Failed to load post", err)
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "Post not found or you do not have permission to interact with it.")
		return
	}

	likes, err := p.posts.CountLikes(ctx, postID)
	if err != nil {
		p.fail(c, "Failed to load post", err)
		return
	}

	entry := gin.H{
		"id":         post.ID,
		"user_id":    post.UserID,
		"content":    post.Content,
		"privacy":    post.Privacy,
		"likes":      likes,
		"created_at": post.CreatedAt,
		"updated_at": post.UpdatedAt,
	}
	if post.Image.Valid {
		entry["image"] = post.Image.String
	}

	Success(c, "OK", gin.H{"post": entry})
}

func (p *PostsAPI) notify(ctx context.Context, userID int64, notifType, message string, fromUserID, contentID int64) {
	if err := p.notifications.Notify(ctx, userID, notifType, message, fromUserID, contentID); err != nil {
		p.logger.Error("failed to write notification",
			zap.String("type", notifType), zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (p *PostsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		p.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}
