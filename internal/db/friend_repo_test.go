package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthub/connecthub/internal/models"
)

func newFriendFixture(t *testing.T) (*FriendRepository, *models.User, *models.User) {
	t.Helper()
	gdb := newTestDB(t)
	repo := NewFriendRepository(NewRepository(gdb))
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	return repo, alice, bob
}

func TestFriendRepository_SendRequest(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	result, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, models.FriendStatusPending, result.Edge.Status)
	assert.Equal(t, alice.ID, result.Edge.UserID)
	assert.Equal(t, bob.ID, result.Edge.FriendID)
}

func TestFriendRepository_SendRequestToSelf(t *testing.T) {
	repo, alice, _ := newFriendFixture(t)

	_, err := repo.SendRequest(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestFriendRepository_SendRequestDuplicate(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	_, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = repo.SendRequest(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrRequestPending)
}

func TestFriendRepository_SendRequestAutoAccepts(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	_, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Bob asking back accepts Alice's pending request.
	result, err := repo.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, result.Accepted)

	friends, err := repo.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, friends)
}

func TestFriendRepository_AcceptOnlyReceiver(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	result, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// The requester cannot accept their own request.
	err = repo.Accept(ctx, result.Edge.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotReceiver)

	require.NoError(t, repo.Accept(ctx, result.Edge.ID, bob.ID))

	friends, err := repo.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, friends)

	// Accepting twice fails; the edge is no longer pending.
	err = repo.Accept(ctx, result.Edge.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotReceiver)
}

func TestFriendRepository_RejectDeletesRow(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	result, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Reject(ctx, result.Edge.ID, bob.ID))

	edge, err := repo.GetBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, edge)

	// A fresh request between the same pair works immediately.
	_, err = repo.SendRequest(ctx, alice.ID, bob.ID)
	assert.NoError(t, err)
}

func TestFriendRepository_CancelOnlyRequester(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	result, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	err = repo.Cancel(ctx, result.Edge.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNoSuchFriendship)

	require.NoError(t, repo.Cancel(ctx, result.Edge.ID, alice.ID))

	edge, err := repo.GetBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestFriendRepository_Unfriend(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	result, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Accept(ctx, result.Edge.ID, bob.ID))

	// Either side may unfriend.
	require.NoError(t, repo.Unfriend(ctx, bob.ID, alice.ID))

	friends, err := repo.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	err = repo.Unfriend(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNoSuchFriendship)
}

func TestFriendRepository_BlockRepointsEdge(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	// Bob sent the original request, so the edge points bob -> alice.
	_, err := repo.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Block(ctx, alice.ID, bob.ID))

	edge, err := repo.GetBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, models.FriendStatusBlocked, edge.Status)
	// user_id identifies the blocker after the re-point.
	assert.Equal(t, alice.ID, edge.UserID)
	assert.Equal(t, bob.ID, edge.FriendID)
}

func TestFriendRepository_BlockTwice(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.Block(ctx, alice.ID, bob.ID))
	err := repo.Block(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrPairBlocked)
}

func TestFriendRepository_RequestBlockedPair(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.Block(ctx, alice.ID, bob.ID))

	// Neither side can send a request; the error does not reveal who
	// blocked whom.
	_, err := repo.SendRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrPairBlocked)
	_, err = repo.SendRequest(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrPairBlocked)
}

func TestFriendRepository_UnblockOnlyBlocker(t *testing.T) {
	repo, alice, bob := newFriendFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.Block(ctx, alice.ID, bob.ID))

	err := repo.Unblock(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNoSuchFriendship)

	require.NoError(t, repo.Unblock(ctx, alice.ID, bob.ID))

	blocked, err := repo.IsBlockedEither(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestFriendRepository_FriendIDsBothDirections(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFriendRepository(NewRepository(gdb))
	ctx := context.Background()

	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	carol := seedUser(t, gdb, "carol")

	r1, err := repo.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Accept(ctx, r1.Edge.ID, bob.ID))

	r2, err := repo.SendRequest(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Accept(ctx, r2.Edge.ID, alice.ID))

	ids, err := repo.FriendIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{bob.ID, carol.ID}, ids)
}

func TestFriendRepository_PendingRequestLists(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFriendRepository(NewRepository(gdb))
	ctx := context.Background()

	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	carol := seedUser(t, gdb, "carol")

	_, err := repo.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = repo.SendRequest(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	incoming, err := repo.IncomingRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, bob.ID, incoming[0].UserID)

	outgoing, err := repo.OutgoingRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, carol.ID, outgoing[0].FriendID)

	count, err := repo.CountPendingRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
