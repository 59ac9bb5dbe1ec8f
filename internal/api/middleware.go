package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/connecthub/connecthub/internal/session"
	"github.com/connecthub/connecthub/pkg/config"
	"github.com/connecthub/connecthub/pkg/logging"
	"github.com/connecthub/connecthub/pkg/telemetry"
)

// Middleware carries the pieces shared by the per-request filters.
type Middleware struct {
	sessions *session.Manager
	cookie   string
	logger   *zap.Logger
}

// NewMiddleware creates the middleware set.
func NewMiddleware(sessions *session.Manager, cfg *config.AuthConfig) *Middleware {
	return &Middleware{
		sessions: sessions,
		cookie:   cfg.SessionCookie,
		logger:   logging.GetLogger().With(zap.String("component", "api-middleware")),
	}
}

// Trace opens a span covering the request and threads it through the
// request context so repository spans nest under it.
func (m *Middleware) Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := "api.handle"
		if path := c.FullPath(); path != "" {
			name = c.Request.Method + " " + path
		}
		ctx, span := telemetry.StartSpan(c.Request.Context(), name)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoadSession resolves the session cookie on every request. Missing or
// expired sessions are not an error here; RequireLogin enforces that.
func (m *Middleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(m.cookie)
		if err != nil || id == "" {
			c.Next()
			return
		}

		sess, err := m.sessions.Get(id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				m.logger.Warn("session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}

		session.ToGin(c, sess)
		c.Next()
	}
}

// RequireLogin rejects requests without a live session.
func (m *Middleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) == nil {
			AbortError(c, http.StatusUnauthorized, "Not logged in")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose session is not an admin. It
// assumes RequireLogin already ran.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			AbortError(c, http.StatusUnauthorized, "Not logged in")
			return
		}
		if !sess.IsAdmin {
			AbortError(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// CSRF validates the session-bound token on state-changing requests.
// The token is read from the X-CSRF-Token header, falling back to the
// csrf_token form field.
func (m *Middleware) CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess := CurrentSession(c)
		if sess == nil {
			// RequireLogin handles the missing session.
			c.Next()
			return
		}

		token := c.GetHeader("X-CSRF-Token")
		if token == "" {
			token = c.PostForm("csrf_token")
		}
		if !sess.ValidCSRF(token) {
			AbortError(c, http.StatusForbidden, "Invalid CSRF token")
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session loaded for this request, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	return session.FromGin(c)
}

// loginLimiter throttles login attempts per client IP.
type loginLimiter struct {
	mu       sync.Mutex
	perMin   int
	visitors map[string]*rate.Limiter
}

func newLoginLimiter(perMin int) *loginLimiter {
	return &loginLimiter{
		perMin:   perMin,
		visitors: make(map[string]*rate.Limiter),
	}
}

func (l *loginLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.visitors[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.perMin)
		l.visitors[ip] = lim
	}
	return lim
}

// LoginRateLimit caps login and register attempts per IP per minute.
func (m *Middleware) LoginRateLimit(perMin int) gin.HandlerFunc {
	limiter := newLoginLimiter(perMin)
	return func(c *gin.Context) {
		if !limiter.limiterFor(c.ClientIP()).Allow() {
			AbortError(c, http.StatusTooManyRequests, "Too many attempts, try again later")
			return
		}
		c.Next()
	}
}
