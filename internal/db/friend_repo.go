package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/telemetry"
)

// Friendship operation errors surfaced to handlers.
var (
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends  = errors.New("already friends with this user")
	ErrRequestPending  = errors.New("friend request already pending")
	ErrPairBlocked     = errors.New("unable to send friend request")
	ErrNotReceiver     = errors.New("only the receiver can act on this request")
	ErrNoSuchFriendship = errors.New("friendship not found")
)

// FriendRepository maintains the friends table: a directed edge per
// unordered pair with status pending, accepted, or blocked.
type FriendRepository struct {
	*Repository
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(repo *Repository) *FriendRepository {
	return &FriendRepository{Repository: repo}
}

// GetByID returns a friendship edge by id, or nil if none exists.
func (r *FriendRepository) GetByID(ctx context.Context, id int64) (*models.Friendship, error) {
	var edge models.Friendship
	if err := r.db.WithContext(ctx).First(&edge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// GetBetween returns the edge between two users in either direction,
// or nil if none exists.
func (r *FriendRepository) GetBetween(ctx context.Context, userID, otherID int64) (*models.Friendship, error) {
	var edge models.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, otherID, otherID, userID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// SendRequestResult describes what SendRequest actually did: a fresh
// pending edge, or an auto-accept of the counterpart's pending request.
type SendRequestResult struct {
	Edge     *models.Friendship
	Accepted bool
}

// SendRequest creates a pending edge from requester to target. If the
// target already has a pending request towards the requester, that
// request is accepted instead. Any other existing edge in either
// direction refuses the request; blocked edges refuse with a generic
// error so the block is not revealed.
//
// The unique index on (user_id, friend_id) closes the duplicate race
// for same-direction concurrent requests; the reverse direction is
// still a check-then-act window, acceptable at this consistency level.
func (r *FriendRepository) SendRequest(ctx context.Context, requesterID, targetID int64) (*SendRequestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "friends.send_request")
	defer span.End()

	if requesterID == targetID {
		return nil, ErrSelfRequest
	}

	existing, err := r.GetBetween(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.FriendStatusAccepted:
			return nil, ErrAlreadyFriends
		case models.FriendStatusBlocked:
			return nil, ErrPairBlocked
		case models.FriendStatusPending:
			if existing.UserID == requesterID {
				return nil, ErrRequestPending
			}
			// The target already asked first; accept their request.
			if err := r.Accept(ctx, existing.ID, requesterID); err != nil {
				return nil, err
			}
			existing.Status = models.FriendStatusAccepted
			return &SendRequestResult{Edge: existing, Accepted: true}, nil
		}
	}

	edge := &models.Friendship{
		UserID:    requesterID,
		FriendID:  targetID,
		Status:    models.FriendStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		return nil, err
	}
	return &SendRequestResult{Edge: edge}, nil
}

// Accept transitions a pending edge to accepted. Only the receiver
// (friend_id) may accept; the conditional update on status closes the
// race against a concurrent reject or cancel.
func (r *FriendRepository) Accept(ctx context.Context, edgeID, receiverID int64) error {
	res := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ? AND friend_id = ? AND status = ?", edgeID, receiverID, models.FriendStatusPending).
		Updates(map[string]interface{}{
			"status":     models.FriendStatusAccepted,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotReceiver
	}
	return nil
}

// Reject deletes a pending edge as the receiver. No rejected status is
// persisted, so the pair can immediately exchange a new request.
func (r *FriendRepository) Reject(ctx context.Context, edgeID, receiverID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND friend_id = ? AND status = ?", edgeID, receiverID, models.FriendStatusPending).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotReceiver
	}
	return nil
}

// Cancel deletes a pending edge as the requester.
func (r *FriendRepository) Cancel(ctx context.Context, edgeID, requesterID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", edgeID, requesterID, models.FriendStatusPending).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoSuchFriendship
	}
	return nil
}

// Unfriend deletes an accepted edge between two users in either
// direction.
func (r *FriendRepository) Unfriend(ctx context.Context, userID, otherID int64) error {
	res := r.db.WithContext(ctx).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, models.FriendStatusAccepted).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoSuchFriendship
	}
	return nil
}

// Block records a blocked edge from blocker to blocked. An existing
// edge in the blocker's direction is updated in place; one in the
// other direction is re-pointed so that user_id always identifies the
// blocker. Blocking an already-blocked user is an error.
func (r *FriendRepository) Block(ctx context.Context, blockerID, blockedID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var edge models.Friendship
		err := tx.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			blockerID, blockedID, blockedID, blockerID).
			First(&edge).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.Friendship{
				UserID:    blockerID,
				FriendID:  blockedID,
				Status:    models.FriendStatusBlocked,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}).Error
		case err != nil:
			return err
		}

		if edge.Status == models.FriendStatusBlocked {
			if edge.UserID == blockerID {
				return ErrPairBlocked
			}
			// Blocked by the other side; record our own block too by
			// re-pointing the row.
		}

		return tx.Model(&models.Friendship{}).
			Where("id = ?", edge.ID).
			Updates(map[string]interface{}{
				"user_id":    blockerID,
				"friend_id":  blockedID,
				"status":     models.FriendStatusBlocked,
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

// Unblock removes a block. Only the blocker may lift it.
func (r *FriendRepository) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ? AND status = ?", blockerID, blockedID, models.FriendStatusBlocked).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoSuchFriendship
	}
	return nil
}

// IsBlocked reports whether userID has blocked targetID (directional).
func (r *FriendRepository) IsBlocked(ctx context.Context, userID, targetID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ? AND status = ?", userID, targetID, models.FriendStatusBlocked).
		Count(&count).Error
	return count > 0, err
}

// IsBlockedEither reports whether either side of the pair has blocked
// the other.
func (r *FriendRepository) IsBlockedEither(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, models.FriendStatusBlocked).
		Count(&count).Error
	return count > 0, err
}

// AreFriends reports whether an accepted edge exists between the pair.
func (r *FriendRepository) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, models.FriendStatusAccepted).
		Count(&count).Error
	return count > 0, err
}

// FriendIDs returns the ids of all accepted friends of a user.
func (r *FriendRepository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	var edges []models.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, models.FriendStatusAccepted).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		if e.UserID == userID {
			ids = append(ids, e.FriendID)
		} else {
			ids = append(ids, e.UserID)
		}
	}
	return ids, nil
}

// IncomingRequests returns pending edges addressed to the user.
func (r *FriendRepository) IncomingRequests(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	var edges []*models.Friendship
	err := r.db.WithContext(ctx).
		Where("friend_id = ? AND status = ?", userID, models.FriendStatusPending).
		Order("created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// OutgoingRequests returns pending edges the user has sent.
func (r *FriendRepository) OutgoingRequests(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	var edges []*models.Friendship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.FriendStatusPending).
		Order("created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// CountPendingRequests counts pending requests addressed to the user.
func (r *FriendRepository) CountPendingRequests(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("friend_id = ? AND status = ?", userID, models.FriendStatusPending).
		Count(&count).Error
	return count, err
}
