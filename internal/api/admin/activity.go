package admin

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/pkg/logging"
)

// ActivityAPI serves the merged recent-activity feed on the dashboard.
type ActivityAPI struct {
	reports *db.ReportRepository
	users   *db.UserRepository
	posts   *db.PostRepository
	logger  *zap.Logger
}

// NewActivityAPI creates the admin activity handler.
func NewActivityAPI(reports *db.ReportRepository, users *db.UserRepository, posts *db.PostRepository) *ActivityAPI {
	return &ActivityAPI{
		reports: reports,
		users:   users,
		posts:   posts,
		logger:  logging.GetLogger().With(zap.String("component", "admin-activity-api")),
	}
}

type activityEntry struct {
	Type         string    `json:"type"`
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	ReportedType string    `json:"reported_type,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Recent merges the five newest reports, users, and posts into one
// feed of at most ten entries, newest first.
func (a *ActivityAPI) Recent(c *gin.Context) {
	ctx := c.Request.Context()
	entries := make([]activityEntry, 0, 15)

	reports, err := a.reports.Recent(ctx, 5)
	if err != nil {
		a.fail(c, "Failed to load recent activity", err)
		return
	}
	for _, report := range reports {
		username := ""
		if reporter, err := a.users.GetByID(ctx, report.ReporterID); err == nil && reporter != nil {
			username = reporter.Username
		}
		entries = append(entries, activityEntry{
			Type:         "report",
			ID:           report.ID,
			Username:     username,
			ReportedType: report.TargetType(),
			Timestamp:    report.CreatedAt,
		})
	}

	users, _, err := a.users.List(ctx, db.UserFilter{}, 5, 0)
	if err != nil {
		a.fail(c, "Failed to load recent activity", err)
		return
	}
	for _, user := range users {
		entries = append(entries, activityEntry{
			Type:      "new_user",
			ID:        user.ID,
			Username:  user.Username,
			Timestamp: user.CreatedAt,
		})
	}

	posts, err := a.posts.Recent(ctx, 5)
	if err != nil {
		a.fail(c, "Failed to load recent activity", err)
		return
	}
	for _, post := range posts {
		username := ""
		if author, err := a.users.GetByID(ctx, post.UserID); err == nil && author != nil {
			username = author.Username
		}
		entries = append(entries, activityEntry{
			Type:      "new_post",
			ID:        post.ID,
			Username:  username,
			Timestamp: post.CreatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}

	success(c, "OK", gin.H{"activity": entries})
}

func (a *ActivityAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		a.logger.Error(message, zap.Error(err))
	}
	respondError(c, http.StatusInternalServerError, message)
}
