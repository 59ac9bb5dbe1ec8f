package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/telemetry"
)

// PostRepository provides post, comment, and like operations.
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetVisible retrieves a post only if the viewer may see it: public
// posts, own posts, and friends-only posts of accepted friends.
func (r *PostRepository) GetVisible(ctx context.Context, id, viewerID int64) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where(`privacy = ? OR user_id = ? OR (privacy = ? AND EXISTS (
			SELECT 1 FROM friends f
			WHERE f.status = ?
			  AND ((f.user_id = posts.user_id AND f.friend_id = ?)
			    OR (f.user_id = ? AND f.friend_id = posts.user_id))
		))`, models.PrivacyPublic, viewerID, models.PrivacyFriends,
			models.FriendStatusAccepted, viewerID, viewerID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateContent edits a post's content; only the owner's rows match.
func (r *PostRepository) UpdateContent(ctx context.Context, postID, ownerID int64, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND user_id = ?", postID, ownerID).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete removes a post; only the owner's rows match.
func (r *PostRepository) Delete(ctx context.Context, postID, ownerID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", postID, ownerID).
		Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Like records a like; liking an already-liked post is a no-op. The
// returned bool reports whether a new like was written.
func (r *PostRepository) Like(ctx context.Context, postID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	err = r.db.WithContext(ctx).Create(&models.Like{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unlike removes a like; unliking a post that was not liked is a no-op.
func (r *PostRepository) Unlike(ctx context.Context, postID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error
}

// CountLikes counts likes on a post.
func (r *PostRepository) CountLikes(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// AddComment inserts a comment on a post.
func (r *PostRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	comment.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetComment returns a comment by id, or (nil, nil) if absent.
func (r *PostRepository) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Comments returns a post's comments oldest first.
func (r *PostRepository) Comments(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CountByDay returns post counts grouped by calendar day within the
// range, as a map keyed by "2006-01-02".
func (r *PostRepository) CountByDay(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	return r.countBuckets(ctx, start, end, "%Y-%m-%d")
}

// CountByMonth returns post counts grouped by calendar month within
// the range, as a map keyed by "2006-01".
func (r *PostRepository) CountByMonth(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	return r.countBuckets(ctx, start, end, "%Y-%m")
}

type bucketRow struct {
	Bucket string
	Count  int64
}

func (r *PostRepository) countBuckets(ctx context.Context, start, end time.Time, format string) (map[string]int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "posts.count_buckets")
	defer span.End()

	// sqlite (tests) formats dates with strftime, postgres with to_char.
	sel := "strftime(?, created_at) AS bucket, COUNT(*) AS count"
	arg := format
	if r.db.Dialector.Name() == "postgres" {
		sel = "to_char(created_at, ?) AS bucket, COUNT(*) AS count"
		arg = "YYYY-MM-DD"
		if format == "%Y-%m" {
			arg = "YYYY-MM"
		}
	}

	var rows []bucketRow
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select(sel, arg).
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("bucket").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Bucket] = row.Count
	}
	return counts, nil
}

// Recent returns the newest posts for the activity feed.
func (r *PostRepository) Recent(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CountSince returns how many posts were created on or after the cutoff.
func (r *PostRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
