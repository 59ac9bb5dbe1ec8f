package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/connecthub/connecthub/internal/cache"
	"github.com/connecthub/connecthub/internal/db"
	"github.com/connecthub/connecthub/internal/session"
	"github.com/connecthub/connecthub/pkg/config"
)

type testServer struct {
	engine *gin.Engine
	gdb    *gorm.DB
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	srv := miniredis.RunT(t)
	redisCache := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { redisCache.Close() })

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionTTL:      time.Hour,
			SessionCookie:   "hub_session",
			BcryptCost:      4, // keep test hashing fast
			LoginRatePerMin: 100,
		},
	}

	sessions := session.NewManager(redisCache, &cfg.Auth)

	engine := gin.New()
	router := NewRouter(&db.DB{DB: gdb}, redisCache, sessions, cfg)
	router.SetupRoutes(engine)

	return &testServer{engine: engine, gdb: gdb, cfg: cfg}
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	CSRFToken string          `json:"csrf_token"`
	User      json.RawMessage `json:"user"`
}

// client carries the cookie and CSRF token of one logged-in user.
type client struct {
	t       *testing.T
	server  *testServer
	cookies []*http.Cookie
	csrf    string
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie, csrf string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// register creates and logs in a user through the API, returning an
// authenticated client.
func (s *testServer) register(t *testing.T, username string) *client {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/register", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "Str0ng!pass",
		"confirm_password": "Str0ng!pass",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.CSRFToken)

	return &client{
		t:       t,
		server:  s,
		cookies: w.Result().Cookies(),
		csrf:    resp.CSRFToken,
	}
}

func (c *client) post(path string, body interface{}) *httptest.ResponseRecorder {
	return c.server.do(c.t, http.MethodPost, path, body, c.cookies, c.csrf)
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.server.do(c.t, http.MethodGet, path, nil, c.cookies, "")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// promote flips the user's admin flag directly and re-logs them in so
// the session carries it.
func (s *testServer) promote(t *testing.T, username string) *client {
	t.Helper()
	require.NoError(t, s.gdb.Exec("UPDATE users SET is_admin = ? WHERE username = ?", true, username).Error)

	w := s.do(t, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": "Str0ng!pass",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &client{
		t:       t,
		server:  s,
		cookies: w.Result().Cookies(),
		csrf:    resp.CSRFToken,
	}
}
