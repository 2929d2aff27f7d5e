// Package notifications persists the in-app inbox. Rows past the retention
// window are swept by the maintenance job via DeleteOlderThan.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/enums"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/validate"
)

// CreateDTO carries caller input for a new inbox entry.
type CreateDTO struct {
	UserID string                 `json:"user_id" validate:"required"`
	Type   enums.NotificationType `json:"type" validate:"required"`
	Title  string                 `json:"title" validate:"required"`
	Body   string                 `json:"body"`
}

// Repository exposes notification persistence.
type Repository struct {
	repo.Base

	now func() time.Time
}

// NewRepository constructs a notifications repo.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Create inserts an unread inbox entry.
func (r *Repository) Create(ctx context.Context, dto CreateDTO) (*models.Notification, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	if !dto.Type.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid notification type")
	}

	notification := models.Notification{
		ID:        uuid.NewString(),
		UserID:    dto.UserID,
		Type:      dto.Type,
		Title:     dto.Title,
		Body:      dto.Body,
		CreatedAt: r.now().UTC(),
	}
	if err := r.DB(ctx).Create(&notification).Error; err != nil {
		return nil, db.Translate(err, schema.TableNotifications)
	}
	return &notification, nil
}

// List returns a user's inbox, newest first. With unreadOnly set, read
// entries are filtered out.
func (r *Repository) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := r.DB(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	var out []models.Notification
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableNotifications)
	}
	return out, nil
}

// MarkRead flags one entry as read.
func (r *Repository) MarkRead(ctx context.Context, id string) error {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		UpdateColumn("read", true)
	if result.Error != nil {
		return db.Translate(result.Error, schema.TableNotifications)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every unread entry for a user and returns the count.
func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		UpdateColumn("read", true)
	if result.Error != nil {
		return 0, db.Translate(result.Error, schema.TableNotifications)
	}
	return result.RowsAffected, nil
}

// CountUnread returns the unread badge count for a user.
func (r *Repository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, db.Translate(err, schema.TableNotifications)
	}
	return count, nil
}

// DeleteOlderThan removes entries created before the cutoff and returns the
// number of rows swept.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, db.Translate(result.Error, schema.TableNotifications)
	}
	return result.RowsAffected, nil
}
