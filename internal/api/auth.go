package api

import (
	"net/http"
	"net/mail"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/session"
	"github.com/connecthub/connecthub/pkg/config"
	"github.com/connecthub/connecthub/pkg/logging"
)

// AuthAPI handles registration, login, and logout.
type AuthAPI struct {
	users          *db.UserRepository
	customizations *db.CustomizationRepository
	sessions       *session.Manager
	cfg            *config.AuthConfig
	logger         *zap.Logger
}

// NewAuthAPI creates the auth handler set.
func NewAuthAPI(users *db.UserRepository, customizations *db.CustomizationRepository, sessions *session.Manager, cfg *config.AuthConfig) *AuthAPI {
	return &AuthAPI{
		users:          users,
		customizations: customizations,
		sessions:       sessions,
		cfg:            cfg,
		logger:         logging.GetLogger().With(zap.String("component", "auth-api")),
	}
}

type registerRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Register creates an account and logs it in immediately.
func (a *AuthAPI) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	if len(req.Username) < 3 || len(req.Username) > 30 {
		Error(c, http.StatusBadRequest, "Username must be between 3 and 30 characters.")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		Error(c, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}
	if req.Password != req.ConfirmPassword {
		Error(c, http.StatusBadRequest, "Passwords do not match.")
		return
	}
	if !isPasswordStrong(req.Password) {
		Error(c, http.StatusBadRequest, "Password must be at least 8 characters and contain uppercase, lowercase, numbers, and special characters.")
		return
	}

	ctx := c.Request.Context()

	if existing, err := a.users.GetByUsername(ctx, req.Username); err != nil {
		a.fail(c, "Registration failed", err)
		return
	} else if existing != nil {
		Error(c, http.StatusConflict, "Username or email already exists.")
		return
	}
	if existing, err := a.users.GetByEmail(ctx, req.Email); err != nil {
		a.fail(c, "Registration failed", err)
		return
	} else if existing != nil {
		Error(c, http.StatusConflict, "Username or email already exists.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cfg.BcryptCost)
	if err != nil {
		a.fail(c, "Registration failed", err)
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}
	if err := a.users.Create(ctx, user); err != nil {
		a.fail(c, "Registration failed", err)
		return
	}

	// New accounts get the default customization row.
	if err := a.customizations.Save(ctx, &models.UserCustomization{UserID: user.ID, ThemeColor: "#4f46e5"}); err != nil {
		a.logger.Warn("failed to seed customization", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	if err := a.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		a.logger.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	a.openSession(c, user, "Registration successful")
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user. Expired blocks are lifted here, on the
// next login attempt, rather than by a background job.
func (a *AuthAPI) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	ctx := c.Request.Context()

	user, err := a.users.GetByUsername(ctx, req.Username)
	if err != nil {
		a.fail(c, "Login failed", err)
		return
	}
	if user == nil {
		Error(c, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	if user.Status == models.UserStatusBlocked || user.Status == models.UserStatusSuspended {
		if user.BlockExpired(time.Now().UTC()) {
			if err := a.users.Unblock(ctx, user.ID); err != nil {
				a.fail(c, "Login failed", err)
				return
			}
			user.Status = models.UserStatusActive
		} else {
			Error(c, http.StatusForbidden, "Your account has been temporarily suspended. Please contact support for more information.")
			return
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		Error(c, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	if err := a.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		a.logger.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	a.openSession(c, user, "Login successful")
}

// Logout destroys the current session and clears the cookie.
func (a *AuthAPI) Logout(c *gin.Context) {
	sess := CurrentSession(c)
	if sess != nil {
		if err := a.sessions.Destroy(sess.ID); err != nil {
			a.fail(c, "Logout failed", err)
			return
		}
	}
	c.SetCookie(a.cfg.SessionCookie, "", -1, "/", "", false, true)
	Success(c, "Logged out", nil)
}

// Me returns the logged-in user's own profile and CSRF token.
func (a *AuthAPI) Me(c *gin.Context) {
	sess := CurrentSession(c)

	user, err := a.users.GetByID(c.Request.Context(), sess.UserID)
	if err != nil || user == nil {
		a.fail(c, "Failed to load profile", err)
		return
	}

	Success(c, "OK", gin.H{
		"user":       publicUser(user),
		"is_admin":   user.IsAdmin,
		"csrf_token": sess.CSRFToken,
	})
}

func (a *AuthAPI) openSession(c *gin.Context, user *models.User, message string) {
	sess, err := a.sessions.Create(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		a.fail(c, "Login failed", err)
		return
	}

	maxAge := int(a.cfg.SessionTTL / time.Second)
	c.SetCookie(a.cfg.SessionCookie, sess.ID, maxAge, "/", "", false, true)

	Success(c, message, gin.H{
		"user":       publicUser(user),
		"csrf_token": sess.CSRFToken,
	})
}

func (a *AuthAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		a.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}

// publicUser strips credentials and moderation fields from a user row.
func publicUser(u *models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"bio":             u.Bio.String,
		"location":        u.Location.String,
		"profile_picture": u.ProfilePicture,
		"cover_photo":     u.CoverPhoto,
		"created_at":      u.CreatedAt,
	}
}

// isPasswordStrong requires length 8+ with uppercase, lowercase, digit,
// and a symbol.
func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}
