package admin

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/session"
	"github.com/connecthub/connecthub/pkg/logging"
)

// UsersAPI handles admin user management: blocks, deletion, and admin
// promotion.
type UsersAPI struct {
	users   *db.UserRepository
	reports *db.ReportRepository
	logger  *zap.Logger
}

// NewUsersAPI creates the admin users handler set.
func NewUsersAPI(users *db.UserRepository, reports *db.ReportRepository) *UsersAPI {
	return &UsersAPI{
		users:   users,
		reports: reports,
		logger:  logging.GetLogger().With(zap.String("component", "admin-users-api")),
	}
}

type blockUserRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
	Duration int    `json:"duration"`  // days, default 30
	ReportID int64  `json:"report_id"` // optional: report that prompted the block
}

// Block suspends an account for a number of days. Admin accounts
// cannot be blocked; the guard is the is_admin predicate in the UPDATE,
// so a protected target reads the same as a missing one. When a report
// id accompanies the block, that report is marked actioned.
func (a *UsersAPI) Block(c *gin.Context) {
	var req blockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing user_id or reason")
		return
	}

	duration := req.Duration
	if duration <= 0 {
		duration = 30
	}
	expiry := time.Now().UTC().AddDate(0, 0, duration)

	ctx := c.Request.Context()

	err := a.users.Block(ctx, req.UserID, req.Reason, expiry)
	if err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			respondError(c, http.StatusBadRequest, "Failed to block user account. Admin accounts cannot be blocked.")
			return
		}
		a.fail(c, "Failed to block user account.", err)
		return
	}

	if req.ReportID > 0 {
		notes := fmt.Sprintf("User blocked for %d days. Reason: %s", duration, req.Reason)
		if err := a.reports.MarkActioned(ctx, req.ReportID, notes); err != nil {
			a.logger.Error("failed to action report after block",
				zap.Int64("report_id", req.ReportID), zap.Error(err))
		}
	}

	success(c, "User account has been blocked successfully.", nil)
}

type userIDRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// Unblock reactivates a blocked account and clears the block fields.
func (a *UsersAPI) Unblock(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	if err := a.users.Unblock(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			respondError(c, http.StatusBadRequest, "Failed to unblock user account.")
			return
		}
		a.fail(c, "Failed to unblock user account.", err)
		return
	}
	success(c, "User account has been unblocked successfully.", nil)
}

// Delete permanently removes a non-admin account.
func (a *UsersAPI) Delete(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	if err := a.users.Delete(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			respondError(c, http.StatusBadRequest, "Failed to delete user account.")
			return
		}
		a.fail(c, "Failed to delete user account.", err)
		return
	}
	success(c, "User account has been deleted.", nil)
}

// MakeAdmin grants admin rights.
func (a *UsersAPI) MakeAdmin(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	if err := a.users.SetAdmin(c.Request.Context(), req.UserID, true); err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			respondError(c, http.StatusBadRequest, "User not found")
			return
		}
		a.fail(c, "Failed to update user.", err)
		return
	}
	success(c, "User promoted to admin.", nil)
}

// RemoveAdmin revokes admin rights. Admins cannot demote themselves,
// so the system always keeps the acting admin.
func (a *UsersAPI) RemoveAdmin(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing user_id")
		return
	}

	sess := session.FromGin(c)
	if sess != nil && sess.UserID == req.UserID {
		respondError(c, http.StatusBadRequest, "You cannot remove your own admin rights.")
		return
	}

	if err := a.users.SetAdmin(c.Request.Context(), req.UserID, false); err != nil {
		if errors.Is(err, db.ErrNoRowsAffected) {
			respondError(c, http.StatusBadRequest, "User not found")
			return
		}
		a.fail(c, "Failed to update user.", err)
		return
	}
	success(c, "Admin rights removed.", nil)
}

// List returns users filtered by username/email search and status,
// paginated, with the total match count.
func (a *UsersAPI) List(c *gin.Context) {
	limit := queryInt(c, "limit", 25)
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := queryInt(c, "offset", 0)

	filter := db.UserFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}

	users, total, err := a.users.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		a.fail(c, "Failed to load users", err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		entry := gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"status":     user.Status,
			"is_admin":   user.IsAdmin,
			"created_at": user.CreatedAt,
		}
		if user.BlockReason.Valid {
			entry["block_reason"] = user.BlockReason.String
		}
		if user.BlockExpiry.Valid {
			entry["block_expiry"] = user.BlockExpiry.Time
		}
		if user.LastLogin.Valid {
			entry["last_login"] = user.LastLogin.Time
		}
		out = append(out, entry)
	}

	success(c, "OK", gin.H{
		"users": out,
		"total": total,
	})
}

func (a *UsersAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		a.logger.Error(message, zap.Error(err))
	}
	respondError(c, http.StatusInternalServerError, message)
}
