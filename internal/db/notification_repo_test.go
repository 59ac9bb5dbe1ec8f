package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthub/connecthub/internal/models"
)

func TestNotificationRepository_NotifyAndList(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewNotificationRepository(NewRepository(gdb))
	ctx := context.Background()

	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")

	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeLike, "bob liked your post", bob.ID, 42))
	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeFriendRequest, "bob sent you a friend request", bob.ID, 0))

	notifications, err := repo.List(ctx, alice.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	for _, n := range notifications {
		assert.False(t, n.IsRead)
		assert.Equal(t, bob.ID, n.FromUserID.Int64)
	}

	// The zero content id is stored as NULL, not zero.
	var friendReq *models.Notification
	for _, n := range notifications {
		if n.Type == models.NotifyTypeFriendRequest {
			friendReq = n
		}
	}
	require.NotNil(t, friendReq)
	assert.False(t, friendReq.ContentID.Valid)
}

func TestNotificationRepository_UnreadOnly(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewNotificationRepository(NewRepository(gdb))
	ctx := context.Background()

	alice := seedUser(t, gdb, "alice")

	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeLike, "first", 0, 0))
	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeLike, "second", 0, 0))

	all, err := repo.List(ctx, alice.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, repo.MarkRead(ctx, all[0].ID, alice.ID))

	unread, err := repo.List(ctx, alice.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.NotEqual(t, all[0].ID, unread[0].ID)

	count, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationRepository_MarkReadScopedToRecipient(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewNotificationRepository(NewRepository(gdb))
	ctx := context.Background()

	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")

	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeLike, "for alice", 0, 0))

	notifications, err := repo.List(ctx, alice.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	// Bob cannot mark Alice's notification.
	err = repo.MarkRead(ctx, notifications[0].ID, bob.ID)
	assert.ErrorIs(t, err, ErrNoRowsAffected)

	count, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewNotificationRepository(NewRepository(gdb))
	ctx := context.Background()

	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")

	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeLike, "one", 0, 0))
	require.NoError(t, repo.Notify(ctx, alice.ID, models.NotifyTypeComment, "two", 0, 0))
	require.NoError(t, repo.Notify(ctx, bob.ID, models.NotifyTypeLike, "bob's", 0, 0))

	require.NoError(t, repo.MarkAllRead(ctx, alice.ID))

	count, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Bob's notifications are untouched.
	count, err = repo.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
