package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/connecthub/connecthub/internal/models"
)

// ErrNoRowsAffected is returned by guarded updates that matched no
// rows. Callers cannot distinguish "not found" from "protected admin
// account"; both surface as this error.
var ErrNoRowsAffected = errors.New("no rows affected")

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateLastLogin records a successful login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

// Block marks a non-admin account blocked until expiry. The is_admin
// guard makes admin accounts immune: blocking one affects zero rows
// and returns ErrNoRowsAffected, same as an unknown id.
func (r *UserRepository) Block(ctx context.Context, id int64, reason string, expiry time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_admin = ?", id, false).
		Updates(map[string]interface{}{
			"status":       models.UserStatusBlocked,
			"block_reason": reason,
			"block_expiry": expiry,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Unblock reactivates an account and clears the block fields.
func (r *UserRepository) Unblock(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.UserStatusActive,
			"block_reason": sql.NullString{},
			"block_expiry": sql.NullTime{},
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete removes a non-admin account. Admin accounts cannot be
// deleted; the guard yields ErrNoRowsAffected.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND is_admin = ?", id, false).
		Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SetAdmin grants or revokes admin privileges.
func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// UserFilter narrows admin user listings. Fields are enumerated;
// queries are always parameterized.
type UserFilter struct {
	Search string // matches username or email substring
	Status string // "", active, blocked, suspended
}

// List returns users matching the filter, newest first, with the
// total count for pagination.
func (r *UserRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SearchByUsername returns users whose username contains the query,
// excluding the searcher and anyone in a blocked pair with them.
func (r *UserRepository) SearchByUsername(ctx context.Context, viewerID int64, q string, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("username LIKE ? AND id <> ?", "%"+q+"%", viewerID).
		Where(`NOT EXISTS (
			SELECT 1 FROM friends f
			WHERE f.status = ?
			  AND ((f.user_id = ? AND f.friend_id = users.id)
			    OR (f.user_id = users.id AND f.friend_id = ?))
		)`, models.FriendStatusBlocked, viewerID, viewerID).
		Order("username").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// AdminIDs returns the ids of all admin accounts, for report fan-out.
func (r *UserRepository) AdminIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("is_admin = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountSince returns how many users registered on or after the cutoff.
func (r *UserRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
