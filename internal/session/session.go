package session

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/connecthub/connecthub/internal/cache"
	"github.com/connecthub/connecthub/pkg/config"
)

// ErrNotFound is returned for missing or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is the server-side login state stored in Redis. The CSRF
// token lives inside the session so it expires with it.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidCSRF compares a submitted token against the session's token in
// constant time.
func (s *Session) ValidCSRF(token string) bool {
	if token == "" || s.CSRFToken == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(s.CSRFToken))
}

// Manager creates, loads, and destroys sessions in Redis.
type Manager struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewManager creates a session manager backed by the shared cache.
func NewManager(c *cache.Cache, cfg *config.AuthConfig) *Manager {
	return &Manager{
		cache: c,
		ttl:   cfg.SessionTTL,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Create opens a new session for the user and returns it.
func (m *Manager) Create(userID int64, username string, isAdmin bool) (*Session, error) {
	token, err := newCSRFToken()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		IsAdmin:   isAdmin,
		CSRFToken: token,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := m.cache.Set(sessionKey(sess.ID), data, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// Get loads a session by id and slides its expiry.
func (m *Manager) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	data, err := m.cache.Get(sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	// Active users keep their session alive.
	if err := m.cache.Expire(sessionKey(id), m.ttl); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		return nil, err
	}
	return &sess, nil
}

// Destroy removes a session, ending the login.
func (m *Manager) Destroy(id string) error {
	if id == "" {
		return nil
	}
	return m.cache.Delete(sessionKey(id))
}

// newCSRFToken returns 32 random bytes hex-encoded.
func newCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
