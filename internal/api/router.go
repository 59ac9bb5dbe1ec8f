package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/api/admin"
	"github.com/connecthub/connecthub/internal/cache"
	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/session"
	"github.com/connecthub/connecthub/pkg/config"
	"github.com/connecthub/connecthub/pkg/logging"
)

// Router sets up API routes
type Router struct {
	db       *db.DB
	cache    *cache.Cache
	sessions *session.Manager
	cfg      *config.Config
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, sessions *session.Manager, cfg *config.Config) *Router {
	return &Router{
		db:       database,
		cache:    redisCache,
		sessions: sessions,
		cfg:      cfg,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	repo := db.NewRepository(r.db.DB)

	users := db.NewUserRepository(repo)
	friends := db.NewFriendRepository(repo)
	posts := db.NewPostRepository(repo)
	messages := db.NewMessageRepository(repo)
	notifications := db.NewNotificationRepository(repo)
	events := db.NewEventRepository(repo)
	reports := db.NewReportRepository(repo)
	customizations := db.NewCustomizationRepository(repo)

	mw := NewMiddleware(r.sessions, &r.cfg.Auth)

	authAPI := NewAuthAPI(users, customizations, r.sessions, &r.cfg.Auth)
	usersAPI := NewUsersAPI(users, friends, customizations)
	friendsAPI := NewFriendsAPI(friends, users, messages, notifications)
	messagesAPI := NewMessagesAPI(messages, friends, users, notifications, r.cache)
	notificationsAPI := NewNotificationsAPI(notifications)
	postsAPI := NewPostsAPI(posts, users, notifications)
	eventsAPI := NewEventsAPI(events, friends, users, notifications)
	reportsAPI := NewReportsAPI(reports, posts, users, notifications)

	api := engine.Group("/api")
	api.Use(mw.Trace(), mw.LoadSession())

	// Login and registration sit outside the session requirement and
	// are rate limited per IP.
	public := api.Group("")
	public.Use(mw.LoginRateLimit(r.cfg.Auth.LoginRatePerMin))
	public.POST("/register", authAPI.Register)
	public.POST("/login", authAPI.Login)

	// Everything else needs a session, and mutations need the CSRF
	// token bound to it.
	authed := api.Group("")
	authed.Use(mw.RequireLogin(), mw.CSRF())

	authed.POST("/logout", authAPI.Logout)
	authed.GET("/me", authAPI.Me)

	authed.GET("/users/:userID", usersAPI.Profile)
	authed.POST("/profile", usersAPI.UpdateProfile)
	authed.GET("/search/users", usersAPI.Search)
	authed.GET("/customization", usersAPI.Customization)
	authed.POST("/customization", usersAPI.SaveCustomization)

	authed.POST("/friends/add", friendsAPI.Add)
	authed.POST("/friends/accept", friendsAPI.Accept)
	authed.POST("/friends/reject", friendsAPI.Reject)
	authed.POST("/friends/cancel", friendsAPI.Cancel)
	authed.POST("/friends/unfriend", friendsAPI.Unfriend)
	authed.POST("/friends/block", friendsAPI.Block)
	authed.POST("/friends/unblock", friendsAPI.Unblock)
	authed.GET("/friends", friendsAPI.List)
	authed.GET("/friends/requests", friendsAPI.Requests)

	authed.POST("/messages/send", messagesAPI.Send)
	authed.GET("/messages", messagesAPI.Thread)
	authed.GET("/conversations", messagesAPI.Conversations)
	authed.GET("/messages/unread_count", messagesAPI.UnreadCount)

	authed.GET("/notifications", notificationsAPI.List)
	authed.POST("/notifications/read", notificationsAPI.MarkRead)

	authed.POST("/posts/create", postsAPI.Create)
	authed.POST("/posts/edit", postsAPI.Edit)
	authed.POST("/posts/delete", postsAPI.Delete)
	authed.POST("/posts/like", postsAPI.Like)
	authed.POST("/posts/comment", postsAPI.AddComment)
	authed.GET("/posts/view/:postID", postsAPI.Get)
	authed.GET("/posts/comments/:postID", postsAPI.Comments)

	authed.POST("/events/create", eventsAPI.Create)
	authed.POST("/events/join", eventsAPI.Join)
	authed.GET("/events", eventsAPI.List)

	authed.POST("/reports/post", reportsAPI.ReportPost)
	authed.POST("/reports/comment", reportsAPI.ReportComment)
	authed.POST("/reports/user", reportsAPI.ReportUser)

	// Admin surface
	adminUsers := admin.NewUsersAPI(users, reports)
	adminReports := admin.NewReportsAPI(reports, users)
	adminStats := admin.NewStatsAPI(posts, users)
	adminActivity := admin.NewActivityAPI(reports, users, posts)

	adm := api.Group("/admin")
	adm.Use(mw.RequireLogin(), mw.RequireAdmin(), mw.CSRF())

	adm.GET("/users", adminUsers.List)
	adm.POST("/users/block", adminUsers.Block)
	adm.POST("/users/unblock", adminUsers.Unblock)
	adm.POST("/users/delete", adminUsers.Delete)
	adm.POST("/users/make_admin", adminUsers.MakeAdmin)
	adm.POST("/users/remove_admin", adminUsers.RemoveAdmin)

	adm.GET("/reports", adminReports.List)
	adm.POST("/reports/dismiss", adminReports.Dismiss)
	adm.POST("/reports/review", adminReports.Review)
	adm.POST("/reports/delete_content", adminReports.DeleteContent)
	adm.POST("/reports/notes", adminReports.AddNotes)

	adm.GET("/stats/posts", adminStats.PostStats)
	adm.GET("/stats/summary", adminStats.Summary)
	adm.GET("/activity", adminActivity.Recent)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "connecthub-api",
	})
}
