package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/pkg/logging"
)

// StatsAPI serves the dashboard chart data.
type StatsAPI struct {
	posts  *db.PostRepository
	users  *db.UserRepository
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewStatsAPI creates the admin stats handler set.
func NewStatsAPI(posts *db.PostRepository, users *db.UserRepository) *StatsAPI {
	return &StatsAPI{
		posts:  posts,
		users:  users,
		logger: logging.GetLogger().With(zap.String("component", "admin-stats-api")),
		now:    time.Now,
	}
}

// PostStats returns post counts bucketed over the requested range:
// week and month give daily buckets, year gives monthly buckets. Every
// bucket in the range appears, zero-filled, so the chart axis is
// continuous.
func (a *StatsAPI) PostStats(c *gin.Context) {
	rangeName := c.Query("range")
	switch rangeName {
	case "week", "month", "year":
	case "":
		rangeName = "week"
	default:
		rangeName = "week"
	}

	ctx := c.Request.Context()
	now := a.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var labels []string
	var values []int64

	switch rangeName {
	case "week", "month":
		days := 7
		display := "Monday" // weekday name
		if rangeName == "month" {
			days = 30
			display = "Jan 2"
		}
		start := today.AddDate(0, 0, -days)
		end := today.AddDate(0, 0, 1)

		counts, err := a.posts.CountByDay(ctx, start, end)
		if err != nil {
			a.fail(c, "Failed to load post stats", err)
			return
		}

		for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
			labels = append(labels, d.Format(display))
			values = append(values, counts[d.Format("2006-01-02")])
		}

	case "year":
		// Same month last year through the current month, 13 buckets.
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := firstOfMonth.AddDate(-1, 0, 0)
		end := firstOfMonth.AddDate(0, 1, 0)

		counts, err := a.posts.CountByMonth(ctx, start, end)
		if err != nil {
			a.fail(c, "Failed to load post stats", err)
			return
		}

		for m := start; !m.After(firstOfMonth); m = m.AddDate(0, 1, 0) {
			labels = append(labels, m.Format("Jan 2006"))
			values = append(values, counts[m.Format("2006-01")])
		}
	}

	success(c, "OK", gin.H{
		"labels": labels,
		"values": values,
		"range":  rangeName,
	})
}

// Summary returns the dashboard headline numbers.
func (a *StatsAPI) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	since := a.now().UTC().AddDate(0, 0, -7)

	newUsers, err := a.users.CountSince(ctx, since)
	if err != nil {
		a.fail(c, "Failed to load summary", err)
		return
	}
	newPosts, err := a.posts.CountSince(ctx, since)
	if err != nil {
		a.fail(c, "Failed to load summary", err)
		return
	}

	success(c, "OK", gin.H{
		"new_users_week": newUsers,
		"new_posts_week": newPosts,
	})
}

func (a *StatsAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		a.logger.Error(message, zap.Error(err))
	}
	respondError(c, http.StatusInternalServerError, message)
}
