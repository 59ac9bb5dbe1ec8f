package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/connecthub/connecthub/internal/models"
)

// CustomizationRepository stores per-user profile appearance settings.
type CustomizationRepository struct {
	*Repository
}

// NewCustomizationRepository creates a new customization repository
func NewCustomizationRepository(repo *Repository) *CustomizationRepository {
	return &CustomizationRepository{Repository: repo}
}

// Get returns the user's customization, or defaults if none saved.
func (r *CustomizationRepository) Get(ctx context.Context, userID int64) (*models.UserCustomization, error) {
	var c models.UserCustomization
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.UserCustomization{UserID: userID, ThemeColor: "#4f46e5"}, nil
		}
		return nil, err
	}
	return &c, nil
}

// Save upserts the user's customization row.
func (r *CustomizationRepository) Save(ctx context.Context, c *models.UserCustomization) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(c).Error
}
