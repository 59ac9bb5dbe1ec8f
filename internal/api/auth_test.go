package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthub/connecthub/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	alice := s.register(t, "alice")

	w := alice.get("/api/me")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["csrf_token"])

	// Fresh login works too.
	w = s.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "Str0ng!pass",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{
			name: "short username",
			body: map[string]string{
				"username": "ab", "email": "a@b.com",
				"password": "Str0ng!pass", "confirm_password": "Str0ng!pass",
			},
			code: http.StatusBadRequest,
		},
		{
			name: "bad email",
			body: map[string]string{
				"username": "charlie", "email": "not-an-email",
				"password": "Str0ng!pass", "confirm_password": "Str0ng!pass",
			},
			code: http.StatusBadRequest,
		},
		{
			name: "password mismatch",
			body: map[string]string{
				"username": "charlie", "email": "c@example.com",
				"password": "Str0ng!pass", "confirm_password": "Different1!",
			},
			code: http.StatusBadRequest,
		},
		{
			name: "weak password",
			body: map[string]string{
				"username": "charlie", "email": "c@example.com",
				"password": "weakpass", "confirm_password": "weakpass",
			},
			code: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/register", tt.body, nil, "")
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	w := s.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": "alice", "email": "other@example.com",
		"password": "Str0ng!pass", "confirm_password": "Str0ng!pass",
	}, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	w := s.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "WrongPass1!",
	}, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Invalid username or password.", body["message"])

	// Unknown usernames yield the same message.
	w = s.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "nobody",
		"password": "WrongPass1!",
	}, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Invalid username or password.", body["message"])
}

func TestLoginBlockedUser(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	expiry := time.Now().UTC().AddDate(0, 0, 7)
	require.NoError(t, s.gdb.Model(&models.User{}).
		Where("username = ?", "alice").
		Updates(map[string]interface{}{
			"status":       models.UserStatusBlocked,
			"block_reason": "spam",
			"block_expiry": expiry,
		}).Error)

	w := s.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "Str0ng!pass",
	}, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginExpiredBlockIsLifted(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	expiry := time.Now().UTC().AddDate(0, 0, -1)
	require.NoError(t, s.gdb.Model(&models.User{}).
		Where("username = ?", "alice").
		Updates(map[string]interface{}{
			"status":       models.UserStatusBlocked,
			"block_reason": "spam",
			"block_expiry": expiry,
		}).Error)

	w := s.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "Str0ng!pass",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, s.gdb.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.False(t, user.BlockReason.Valid)
	assert.False(t, user.BlockExpiry.Valid)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	w := alice.post("/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = alice.get("/api/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIsPasswordStrong(t *testing.T) {
	tests := []struct {
		password string
		strong   bool
	}{
		{"Str0ng!pass", true},
		{"short1!A", true},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!here", false},
		{"NoSymbols1here", false},
		{"Ab1!", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.strong, isPasswordStrong(tt.password), tt.password)
	}
}
