package db

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/connecthub/connecthub/internal/models"
)

// newTestDB opens an isolated in-memory database and migrates the full
// schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(gdb))

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// seedUser inserts a user and returns it.
func seedUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Status:       models.UserStatusActive,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

// seedAdmin inserts an admin user and returns it.
func seedAdmin(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	user := seedUser(t, gdb, username)
	require.NoError(t, gdb.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}
