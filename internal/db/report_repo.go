package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/connecthub/connecthub/internal/models"
)

// Report operation errors surfaced to handlers.
var (
	ErrDuplicateReport = errors.New("target already reported by this user")
	ErrContentGone     = errors.New("reported content already removed")
	ErrReportNotFound  = errors.New("report not found")
)

// ReportRepository records reports and drives the moderation state
// machine: pending -> reviewed | dismissed | actioned, with reviewed
// remaining actionable.
type ReportRepository struct {
	*Repository
}

// NewReportRepository creates a new report repository
func NewReportRepository(repo *Repository) *ReportRepository {
	return &ReportRepository{Repository: repo}
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

// Create files a report. A second report by the same reporter against
// the same target is refused.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	dup := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ?", report.ReporterID)
	switch {
	case report.PostID.Valid:
		dup = dup.Where("post_id = ?", report.PostID.Int64)
	case report.CommentID.Valid:
		dup = dup.Where("comment_id = ?", report.CommentID.Int64)
	default:
		dup = dup.Where("reported_user_id = ? AND post_id IS NULL AND comment_id IS NULL",
			report.ReportedUserID.Int64)
	}

	var count int64
	if err := dup.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateReport
	}

	now := time.Now().UTC()
	report.Status = models.ReportStatusPending
	report.CreatedAt = now
	report.UpdatedAt = now
	return r.db.WithContext(ctx).Create(report).Error
}

// Dismiss sets a report dismissed with the standard note. Re-dismissing
// an already dismissed report is allowed and leaves it stable.
func (r *ReportRepository) Dismiss(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusDismissed,
			"admin_notes": "Dismissed by admin",
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// MarkReviewed sets a report reviewed. Idempotent; a reviewed report
// can still be dismissed or actioned.
func (r *ReportRepository) MarkReviewed(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.ReportStatusReviewed,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// DeleteContent removes the post or comment a report points at and
// marks the report actioned. If the target row is already gone the
// report is left untouched and ErrContentGone is returned; the admin
// retries manually.
func (r *ReportRepository) DeleteContent(ctx context.Context, id int64) (string, error) {
	report, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if report == nil {
		return "", ErrReportNotFound
	}

	var contentType string
	var res *gorm.DB
	switch {
	case report.PostID.Valid:
		contentType = models.ReportTypePost
		res = r.db.WithContext(ctx).Delete(&models.Post{}, report.PostID.Int64)
	case report.CommentID.Valid:
		contentType = models.ReportTypeComment
		res = r.db.WithContext(ctx).Delete(&models.Comment{}, report.CommentID.Int64)
	default:
		return "", ErrContentGone
	}
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrContentGone
	}

	err = r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusActioned,
			"admin_notes": "Deleted reported " + contentType,
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		return "", err
	}
	return contentType, nil
}

// MarkActioned sets a report actioned with the given note, used when a
// block against the reported user resolves the report.
func (r *ReportRepository) MarkActioned(ctx context.Context, id int64, notes string) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusActioned,
			"admin_notes": notes,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// AddNotes updates a report's admin notes without changing its status.
func (r *ReportRepository) AddNotes(ctx context.Context, id int64, notes string) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"admin_notes": sql.NullString{String: notes, Valid: true},
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// ReportFilter narrows report listings. Fields are enumerated; queries
// are always parameterized.
type ReportFilter struct {
	Status string // "", pending, reviewed, dismissed, actioned
	Type   string // "", post, comment, user
}

// List returns reports matching the filter, newest first, with the
// total count for pagination.
func (r *ReportRepository) List(ctx context.Context, filter ReportFilter, limit, offset int) ([]*models.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	switch filter.Type {
	case models.ReportTypePost:
		query = query.Where("post_id IS NOT NULL")
	case models.ReportTypeComment:
		query = query.Where("comment_id IS NOT NULL")
	case models.ReportTypeUser:
		query = query.Where("reported_user_id IS NOT NULL AND post_id IS NULL AND comment_id IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []*models.Report
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// CountPending counts reports still awaiting moderation.
func (r *ReportRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("status = ?", models.ReportStatusPending).
		Count(&count).Error
	return count, err
}

// Recent returns the newest reports for the activity feed.
func (r *ReportRepository) Recent(ctx context.Context, limit int) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}
