package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/logging"
)

// ReportsAPI handles user-submitted reports against posts, comments,
// and users.
type ReportsAPI struct {
	reports       *db.ReportRepository
	posts         *db.PostRepository
	users         *db.UserRepository
	notifications *db.NotificationRepository
	logger        *zap.Logger
}

// NewReportsAPI creates the reports handler set.
func NewReportsAPI(reports *db.ReportRepository, posts *db.PostRepository, users *db.UserRepository, notifications *db.NotificationRepository) *ReportsAPI {
	return &ReportsAPI{
		reports:       reports,
		posts:         posts,
		users:         users,
		notifications: notifications,
		logger:        logging.GetLogger().With(zap.String("component", "reports-api")),
	}
}

type reportPostRequest struct {
	PostID int64  `json:"post_id" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// ReportPost files a report against a post. Each reporter may report a
// given post once; every admin is notified.
func (r *ReportsAPI) ReportPost(c *gin.Context) {
	var req reportPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing post_id or reason")
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		Error(c, http.StatusBadRequest, "A reason is required")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	post, err := r.posts.GetByID(ctx, req.PostID)
	if err != nil {
		r.fail(c, "Failed to submit report", err)
		return
	}
	if post == nil {
		Error(c, http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID == sess.UserID {
		Error(c, http.StatusBadRequest, "You cannot report your own post")
		return
	}

	report := &models.Report{
		ReporterID:     sess.UserID,
		ReportedUserID: sql.NullInt64{Int64: post.UserID, Valid: true},
		PostID:         sql.NullInt64{Int64: post.ID, Valid: true},
		Reason:         reason,
	}
	if err := r.reports.Create(ctx, report); err != nil {
		if errors.Is(err, db.ErrDuplicateReport) {
			Error(c, http.StatusConflict, "You have already reported this post")
			return
		}
		r.fail(c, "Failed to submit report", err)
		return
	}

	owner, err := r.users.GetByID(ctx, post.UserID)
	ownerName := "a user"
	if err == nil && owner != nil {
		ownerName = owner.Username
	}
	r.notifyAdmins(ctx, fmt.Sprintf("New post report: %s reported a post by %s", sess.Username, ownerName),
		sess.UserID, post.ID)

	Success(c, "Report submitted", gin.H{"report_id": report.ID})
}

type reportCommentRequest struct {
	CommentID int64  `json:"comment_id" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// ReportComment files a report against a comment.
func (r *ReportsAPI) ReportComment(c *gin.Context) {
	var req reportCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing comment_id or reason")
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		Error(c, http.StatusBadRequest, "A reason is required")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	comment, err := r.posts.GetComment(ctx, req.CommentID)
	if err != nil {
		r.fail(c, "Failed to submit report", err)
		return
	}
	if comment == nil {
		Error(c, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID == sess.UserID {
		Error(c, http.StatusBadRequest, "You cannot report your own comment")
		return
	}

	report := &models.Report{
		ReporterID:     sess.UserID,
		ReportedUserID: sql.NullInt64{Int64: comment.UserID, Valid: true},
		CommentID:      sql.NullInt64{Int64: comment.ID, Valid: true},
		Reason:         reason,
	}
	if err := r.reports.Create(ctx, report); err != nil {
		if errors.Is(err, db.ErrDuplicateReport) {
			Error(c, http.StatusConflict, "You have already reported this comment")
			return
		}
		r.fail(c, "Failed to submit report", err)
		return
	}

	author, err := r.users.GetByID(ctx, comment.UserID)
	authorName := "a user"
	if err == nil && author != nil {
		authorName = author.Username
	}
	r.notifyAdmins(ctx, fmt.Sprintf("New comment report: %s reported a comment by %s", sess.Username, authorName),
		sess.UserID, comment.ID)

	Success(c, "Report submitted", gin.H{"report_id": report.ID})
}

type reportUserRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// ReportUser files a report against an account.
func (r *ReportsAPI) ReportUser(c *gin.Context) {
	var req reportUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing user_id or reason")
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		Error(c, http.StatusBadRequest, "A reason is required")
		return
	}

	sess := CurrentSession(c)
	if req.UserID == sess.UserID {
		Error(c, http.StatusBadRequest, "You cannot report yourself")
		return
	}

	ctx := c.Request.Context()

	reported, err := r.users.GetByID(ctx, req.UserID)
	if err != nil {
		r.fail(c, "Failed to submit report", err)
		return
	}
	if reported == nil {
		Error(c, http.StatusNotFound, "User not found")
		return
	}

	report := &models.Report{
		ReporterID:     sess.UserID,
		ReportedUserID: sql.NullInt64{Int64: req.UserID, Valid: true},
		Reason:         reason,
	}
	if err := r.reports.Create(ctx, report); err != nil {
		if errors.Is(err, db.ErrDuplicateReport) {
			Error(c, http.StatusConflict, "You have already reported this user")
			return
		}
		r.fail(c, "Failed to submit report", err)
		return
	}

	r.notifyAdmins(ctx, fmt.Sprintf("New user report: %s was reported for %s", reported.Username, reason),
		sess.UserID, report.ID)

	Success(c, "Report submitted", gin.H{"report_id": report.ID})
}

// notifyAdmins fans the report notification out to every admin.
func (r *ReportsAPI) notifyAdmins(ctx context.Context, message string, fromUserID, contentID int64) {
	adminIDs, err := r.users.AdminIDs(ctx)
	if err != nil {
		r.logger.Error("failed to load admins for report fan-out", zap.Error(err))
		return
	}
	for _, adminID := range adminIDs {
		if err := r.notifications.Notify(ctx, adminID, models.NotifyTypeReport, message, fromUserID, contentID); err != nil {
			r.logger.Error("failed to write report notification",
				zap.Int64("admin_id", adminID), zap.Error(err))
		}
	}
}

func (r *ReportsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		r.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}
