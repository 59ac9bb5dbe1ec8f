package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/logging"
)

// UsersAPI handles profiles, user search, and profile customization.
type UsersAPI struct {
	users          *db.UserRepository
	friends        *db.FriendRepository
	customizations *db.CustomizationRepository
	logger         *zap.Logger
}

// NewUsersAPI creates the users handler set.
func NewUsersAPI(users *db.UserRepository, friends *db.FriendRepository, customizations *db.CustomizationRepository) *UsersAPI {
	return &UsersAPI{
		users:          users,
		friends:        friends,
		customizations: customizations,
		logger:         logging.GetLogger().With(zap.String("component", "users-api")),
	}
}

// Profile returns a user's public profile. Profiles are hidden between
// blocked pairs, indistinguishable from a missing user.
func (u *UsersAPI) Profile(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || userID <= 0 {
		Error(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		u.fail(c, "Failed to load profile", err)
		return
	}
	if user == nil {
		Error(c, http.StatusNotFound, "User not found")
		return
	}

	if userID != sess.UserID {
		blocked, err := u.friends.IsBlockedEither(ctx, sess.UserID, userID)
		if err != nil {
			u.fail(c, "Failed to load profile", err)
			return
		}
		if blocked {
			Error(c, http.StatusNotFound, "User not found")
			return
		}
	}

	entry := publicUser(user)

	edge, err := u.friends.GetBetween(ctx, sess.UserID, userID)
	if err != nil {
		u.fail(c, "Failed to load profile", err)
		return
	}
	friendStatus := "none"
	if userID == sess.UserID {
		friendStatus = "self"
	} else if edge != nil {
		friendStatus = edge.Status
	}

	custom, err := u.customizations.Get(ctx, userID)
	if err != nil {
		u.fail(c, "Failed to load profile", err)
		return
	}

	Success(c, "OK", gin.H{
		"user":          entry,
		"friend_status": friendStatus,
		"customization": customizationEntry(custom),
	})
}

// Search finds users by username prefix or substring. Users with a
// block in either direction never appear in each other's results.
func (u *UsersAPI) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		Error(c, http.StatusBadRequest, "Missing search query")
		return
	}

	sess := CurrentSession(c)

	limit := int(queryInt64(c, "limit"))
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	users, err := u.users.SearchByUsername(c.Request.Context(), sess.UserID, q, limit)
	if err != nil {
		u.fail(c, "Search failed", err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, publicUser(user))
	}

	Success(c, "OK", gin.H{"users": out})
}

// Customization returns the caller's saved appearance settings.
func (u *UsersAPI) Customization(c *gin.Context) {
	sess := CurrentSession(c)

	custom, err := u.customizations.Get(c.Request.Context(), sess.UserID)
	if err != nil {
		u.fail(c, "Failed to load customization", err)
		return
	}
	Success(c, "OK", gin.H{"customization": customizationEntry(custom)})
}

type customizationRequest struct {
	ThemeColor      string `json:"theme_color"`
	BackgroundImage string `json:"background_image"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	LinkColor       string `json:"link_color"`
	MusicURL        string `json:"music_url"`
}

// SaveCustomization upserts the caller's appearance settings.
func (u *UsersAPI) SaveCustomization(c *gin.Context) {
	var req customizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Invalid customization payload")
		return
	}

	sess := CurrentSession(c)

	custom := &models.UserCustomization{
		UserID:     sess.UserID,
		ThemeColor: req.ThemeColor,
	}
	if custom.ThemeColor == "" {
		custom.ThemeColor = "#4f46e5"
	}
	custom.BackgroundImage = nullableString(req.BackgroundImage)
	custom.BackgroundColor = nullableString(req.BackgroundColor)
	custom.TextColor = nullableString(req.TextColor)
	custom.LinkColor = nullableString(req.LinkColor)
	custom.MusicURL = nullableString(req.MusicURL)

	if err := u.customizations.Save(c.Request.Context(), custom); err != nil {
		u.fail(c, "Failed to save customization", err)
		return
	}
	Success(c, "Customization saved", nil)
}

type updateProfileRequest struct {
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	ProfilePicture string `json:"profile_picture"`
	CoverPhoto     string `json:"cover_photo"`
}

// UpdateProfile edits the caller's own profile fields.
func (u *UsersAPI) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Invalid profile payload")
		return
	}
	if len(req.Bio) > 500 {
		Error(c, http.StatusBadRequest, "Bio must be at most 500 characters")
		return
	}

	sess := CurrentSession(c)
	ctx := c.Request.Context()

	user, err := u.users.GetByID(ctx, sess.UserID)
	if err != nil || user == nil {
		u.fail(c, "Failed to update profile", err)
		return
	}

	user.Bio = nullableString(req.Bio)
	user.Location = nullableString(req.Location)
	user.ProfilePicture = req.ProfilePicture
	user.CoverPhoto = req.CoverPhoto

	if err := u.users.Update(ctx, user); err != nil {
		u.fail(c, "Failed to update profile", err)
		return
	}
	Success(c, "Profile updated", gin.H{"user": publicUser(user)})
}

func (u *UsersAPI) fail(c *gin.Context, message string, err error) {
	if err != nil {
		u.logger.Error(message, zap.Error(err))
	}
	Error(c, http.StatusInternalServerError, message)
}

func customizationEntry(custom *models.UserCustomization) gin.H {
	return gin.H{
		"theme_color":      custom.ThemeColor,
		"background_image": custom.BackgroundImage.String,
		"background_color": custom.BackgroundColor.String,
		"text_color":       custom.TextColor.String,
		"link_color":       custom.LinkColor.String,
		"music_url":        custom.MusicURL.String,
	}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
