package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/pkg/logging"
)

// ReportsAPI handles the moderation queue.
type ReportsAPI struct {
	reports *db.ReportRepository
	users   *db.UserRepository
	logger  *zap.Logger
}

// NewReportsAPI creates the admin reports handler set.
func NewReportsAPI(reports *db.ReportRepository, users *db.UserRepository) *ReportsAPI {
	return &ReportsAPI{
		reports: reports,
		users:   users,
		logger:  logging.GetLogger().With(zap.String("component", "admin-reports-api")),
	}
}

type reportIDRequest struct {
	ReportID int64 `json:"report_id" binding:"required"`
}

// Dismiss closes a report without action. Dismissing an already
// dismissed report is a no-op.
func (a *ReportsAPI) Dismiss(c *gin.Context) {
	var req reportIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing report_id")
		return
	}

	if err := a.reports.Dismiss(c.Request.Context(), req.ReportID); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			respondError(c, http.StatusNotFound, "Report not found")
			return
		}
		a.fail(c, "Failed to dismiss report", err)
		return
	}
	success(c, "Report dismissed", nil)
}

// Review marks a report reviewed, a soft acknowledgement that keeps it
// actionable.
func (a *ReportsAPI) Review(c *gin.Context) {
	var req reportIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing report_id")
		return
	}

	if err := a.reports.MarkReviewed(c.Request.Context(), req.ReportID); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			respondError(c, http.StatusNotFound, "Report not found")
			return
		}
		a.fail(c, "Failed to review report", err)
		return
	}
	success(c, "Report marked as reviewed", nil)
}

// DeleteContent removes the reported post or comment and actions the
// report. Content that was already deleted yields a clear error while
// the report remains pending.
func (a *ReportsAPI) DeleteContent(c *gin.Context) {
	var req reportIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing report_id")
		return
	}

	contentType, err := a.reports.DeleteContent(c.Request.Context(), req.ReportID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrReportNotFound):
			respondError(c, http.StatusNotFound, "Report not found")
		case errors.Is(err, db.ErrContentGone):
			respondError(c, http.StatusBadRequest, "The reported content no longer exists.")
		default:
			a.fail(c, "Failed to delete reported content", err)
		}
		return
	}
	success(c, fmt.Sprintf("Reported %s deleted", contentType), nil)
}

type reportNotesRequest struct {
	ReportID int64  `json:"report_id" binding:"required"`
	Notes    string `json:"notes" binding:"required"`
}

// AddNotes attaches admin notes to a report without changing status.
func (a *ReportsAPI) AddNotes(c *gin.Context) {
	var req reportNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing report_id or notes")
		return
	}

	if err := a.reports.AddNotes(c.Request.Context(), req.ReportID, req.Notes); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			respondError(c, http.StatusNotFound, "Report not found")
			return
		}
		a.fail(c, "Failed to update report notes", err)
		return
	}
	success(c, "Report notes updated", nil)
}

// List returns reports filtered by status and target type, newest
// first, with the total match count.
func (a *ReportsAPI) List(c *gin.Context) {
	limit := queryInt(c, "limit", 25)
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := queryInt(c, "offset", 0)

	filter := db.ReportFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	}

	reports, total, err := a.reports.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		a.fail(c, "Failed to load reports", err)
		return
	}

	out := make([]gin.H, 0, len(reports))
	for _, report := range reports {
		entry := gin.H{
			"id":          report.ID,
			"reporter_id": report.ReporterID,
			"type":        report.TargetType(),
			"reason":      report.Reason,
			"status":      report.Status,
			"created_at":  report.CreatedAt,
			"updated_at":  report.UpdatedAt,
		}
		if report.ReportedUserID.Valid {
			entry["reported_user_id"] = report.ReportedUserID.Int64
		}
		if report.PostID.Valid {
			entry["post_id"] = report.PostID.Int64
		}
		if report.CommentID.Valid {
			entry["comment_id"] = report.CommentID.Int64
		}
		if report.AdminNotes.Valid {
			entry["admin_notes"] = report.AdminNotes.String
		}
		if reporter, err := a.users.GetByID(c.Request.Context(), report.ReporterID); err == nil && reporter != nil {
			entry["reporter_username"] = reporter.Username
		}
		out = append(out, entry)
	}

	pending, err := a.reports.CountPending(c.Request.Context())
	if err != nil {
		a.fail(c, "Failed to load reports", err)
		return
	}

	success(c, "OK", gin.H{
		"reports":       out,
		"total":         total,
		"pending_count": pending,
	})
}

func (a *ReportsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		a.logger.Error(message, zap.Error(err))
	}
	respondError(c, http.StatusInternalServerError, message)
}
