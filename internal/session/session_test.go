package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthub/connecthub/internal/cache"
	"github.com/connecthub/connecthub/pkg/config"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { c.Close() })

	return NewManager(c, &config.AuthConfig{SessionTTL: time.Hour}), srv
}

func TestManager_CreateAndGet(t *testing.T) {
	m, _ := newTestManager(t)

	sess, err := m.Create(42, "alice", false)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Len(t, sess.CSRFToken, 64) // 32 bytes hex

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, sess.CSRFToken, got.CSRFToken)
}

func TestManager_GetMissing(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Get("no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_GetExpired(t *testing.T) {
	m, srv := newTestManager(t)

	sess, err := m.Create(7, "bob", true)
	require.NoError(t, err)

	srv.FastForward(2 * time.Hour)

	_, err = m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Destroy(t *testing.T) {
	m, _ := newTestManager(t)

	sess, err := m.Create(7, "bob", true)
	require.NoError(t, err)

	require.NoError(t, m.Destroy(sess.ID))

	_, err = m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Destroying twice is harmless.
	assert.NoError(t, m.Destroy(sess.ID))
}

func TestManager_SessionsAreDistinct(t *testing.T) {
	m, _ := newTestManager(t)

	s1, err := m.Create(1, "alice", false)
	require.NoError(t, err)
	s2, err := m.Create(1, "alice", false)
	require.NoError(t, err)

	assert.NotEqual(t, s1.ID, s2.ID)
	assert.NotEqual(t, s1.CSRFToken, s2.CSRFToken)
}

func TestSession_ValidCSRF(t *testing.T) {
	sess := &Session{CSRFToken: "abc123"}

	assert.True(t, sess.ValidCSRF("abc123"))
	assert.False(t, sess.ValidCSRF("abc124"))
	assert.False(t, sess.ValidCSRF(""))

	empty := &Session{}
	assert.False(t, empty.ValidCSRF("anything"))
}
