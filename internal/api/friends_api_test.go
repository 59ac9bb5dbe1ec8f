package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthub/connecthub/internal/models"
)

func TestFriendRequestFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/friends/add", map[string]interface{}{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	requestID := body["request_id"].(float64)

	// Bob sees the incoming request and a notification.
	w = bob.get("/api/friends/requests")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	incoming := body["incoming"].([]interface{})
	require.Len(t, incoming, 1)

	w = bob.get("/api/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, float64(1), body["unread_count"])

	// Bob accepts; both friend lists update, Alice is notified.
	w = bob.post("/api/friends/accept", map[string]interface{}{"request_id": requestID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = alice.get("/api/friends")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["friends"].([]interface{}), 1)

	w = alice.get("/api/notifications")
	body = decode(t, w)
	assert.Equal(t, float64(1), body["unread_count"])
}

func TestFriendRequestCounterRequestAccepts(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/friends/add", map[string]interface{}{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = bob.post("/api/friends/add", map[string]interface{}{"user_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, models.FriendStatusAccepted, body["status"])
}

func TestBlockErasesMessages(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 2, "content": "hello bob",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = alice.post("/api/friends/block", map[string]interface{}{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The thread is gone for both sides.
	var count int64
	require.NoError(t, s.gdb.Model(&models.Message{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// And no further messages can cross the block, in either direction.
	w = bob.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 1, "content": "let me in",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = alice.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 2, "content": "still blocked",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBlockedUserHiddenFromSearchAndProfile(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/friends/block", map[string]interface{}{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = bob.get("/api/search/users?q=ali")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Empty(t, body["users"].([]interface{}))

	w = bob.get("/api/users/1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageThreadMarksRead(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 2, "content": "one",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = alice.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 2, "content": "two",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = bob.get("/api/messages/unread_count")
	body := decode(t, w)
	assert.Equal(t, float64(2), body["unread"])

	// Opening the thread marks them read.
	w = bob.get("/api/messages?user_id=1")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["messages"].([]interface{}), 2)

	w = bob.get("/api/messages/unread_count")
	body = decode(t, w)
	assert.Equal(t, float64(0), body["unread"])
}

func TestUnreadBadgeCacheInvalidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 2, "content": "one",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// First read computes and caches the badge.
	w = bob.get("/api/messages/unread_count")
	body := decode(t, w)
	assert.Equal(t, float64(1), body["unread"])

	// A new message drops the receiver's cached badge.
	w = alice.post("/api/messages/send", map[string]interface{}{
		"receiver_id": 2, "content": "two",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = bob.get("/api/messages/unread_count")
	body = decode(t, w)
	assert.Equal(t, float64(2), body["unread"])

	// Opening the thread marks messages read and drops the badge again.
	w = bob.get("/api/messages?user_id=1")
	require.Equal(t, http.StatusOK, w.Code)

	w = bob.get("/api/messages/unread_count")
	body = decode(t, w)
	assert.Equal(t, float64(0), body["unread"])
}

func TestLikeNotifiesOwnerOnce(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := alice.post("/api/posts/create", map[string]interface{}{"content": "my post"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	postID := body["post_id"].(float64)

	w = bob.post("/api/posts/like", map[string]interface{}{"post_id": postID, "action": "like"})
	require.Equal(t, http.StatusOK, w.Code)

	// A second like changes nothing and does not re-notify.
	w = bob.post("/api/posts/like", map[string]interface{}{"post_id": postID, "action": "like"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "No change needed.", body["message"])

	w = alice.get("/api/notifications")
	body = decode(t, w)
	assert.Equal(t, float64(1), body["unread_count"])
}

func TestReportFlowNotifiesAdmins(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	w := bob.post("/api/posts/create", map[string]interface{}{"content": "spammy"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	postID := body["post_id"].(float64)

	s.register(t, "mod")
	admin := s.promote(t, "mod")

	w = alice.post("/api/reports/post", map[string]interface{}{
		"post_id": postID, "reason": "spam",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Duplicate reports by the same reporter are refused.
	w = alice.post("/api/reports/post", map[string]interface{}{
		"post_id": postID, "reason": "spam again",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The admin got the fan-out and sees the pending report.
	w = admin.get("/api/notifications")
	body = decode(t, w)
	assert.Equal(t, float64(1), body["unread_count"])

	w = admin.get("/api/admin/reports?status=pending")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, float64(1), body["pending_count"])

	// Deleting the content actions the report.
	reports := body["reports"].([]interface{})
	reportID := reports[0].(map[string]interface{})["id"].(float64)

	w = admin.post("/api/admin/reports/delete_content", map[string]interface{}{"report_id": reportID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = admin.get("/api/admin/reports?status=actioned")
	body = decode(t, w)
	reports = body["reports"].([]interface{})
	require.Len(t, reports, 1)
	assert.Equal(t, "Deleted reported post", reports[0].(map[string]interface{})["admin_notes"])
}

func TestAdminBlockGuardsAdmins(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	s.register(t, "mod")
	admin := s.promote(t, "mod")

	// Blocking a normal user works.
	w := admin.post("/api/admin/users/block", map[string]interface{}{
		"user_id": 1, "reason": "spam", "duration": 7,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Blocking an admin reads like a failure, not a reveal.
	w = admin.post("/api/admin/users/block", map[string]interface{}{
		"user_id": 2, "reason": "spite",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Self-demotion is refused.
	w = admin.post("/api/admin/users/remove_admin", map[string]interface{}{"user_id": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
