// Package pregnancy persists the single per-user pregnancy record and the
// derived week/growth figures shown throughout the app.
package pregnancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/validate"
)

// UpsertDetailDTO carries caller input for the pregnancy record.
type UpsertDetailDTO struct {
	UserID    string    `json:"user_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// Repository exposes pregnancy-detail persistence.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository constructs a pregnancy repo bound to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Upsert writes the user's single pregnancy record, replacing any prior one.
// Weeks/days pregnant and the growth estimates are derived from the start
// date at write time.
func (r *Repository) Upsert(ctx context.Context, dto UpsertDetailDTO) (*models.PregnancyDetail, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	weeks, days := elapsed(dto.StartDate, now)
	height, weight := growthEstimates(weeks)

	detail := &models.PregnancyDetail{
		ID:            uuid.NewString(),
		UserID:        dto.UserID,
		StartDate:     dto.StartDate.UTC(),
		WeeksPregnant: weeks,
		DaysPregnant:  days,
		BabyHeightCm:  height,
		BabyWeightG:   weight,
		DueDate:       dto.DueDate.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.DB(ctx).Exec(`INSERT INTO pregnancy_details
  (id, user_id, start_date, weeks_pregnant, days_pregnant, baby_height_cm, baby_weight_g, due_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
  start_date = excluded.start_date,
  weeks_pregnant = excluded.weeks_pregnant,
  days_pregnant = excluded.days_pregnant,
  baby_height_cm = excluded.baby_height_cm,
  baby_weight_g = excluded.baby_weight_g,
  due_date = excluded.due_date,
  updated_at = excluded.updated_at`,
		detail.ID, detail.UserID, detail.StartDate, detail.WeeksPregnant, detail.DaysPregnant,
		detail.BabyHeightCm, detail.BabyWeightG, detail.DueDate, detail.CreatedAt, detail.UpdatedAt).Error
	if err != nil {
		return nil, db.Translate(err, schema.TablePregnancyDetails)
	}
	return r.GetByUser(ctx, dto.UserID)
}

// GetByUser loads the user's pregnancy record.
func (r *Repository) GetByUser(ctx context.Context, userID string) (*models.PregnancyDetail, error) {
	var detail models.PregnancyDetail
	if err := r.DB(ctx).First(&detail, "user_id = ?", userID).Error; err != nil {
		return nil, db.Translate(err, schema.TablePregnancyDetails)
	}
	return &detail, nil
}

// Delete removes the user's pregnancy record if present.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	err := r.DB(ctx).Delete(&models.PregnancyDetail{}, "user_id = ?", userID).Error
	return db.Translate(err, schema.TablePregnancyDetails)
}

func elapsed(start, now time.Time) (weeks, days int) {
	if now.Before(start) {
		return 0, 0
	}
	totalDays := int(now.Sub(start).Hours() / 24)
	return totalDays / 7, totalDays % 7
}

// growthEstimates returns approximate crown-to-heel length (cm) and weight
// (g) for the gestational week, from standard reference charts.
func growthEstimates(week int) (heightCm, weightG float64) {
	switch {
	case week < 8:
		return 1.6, 1
	case week < 12:
		return 5.4, 14
	case week < 16:
		return 11.6, 100
	case week < 20:
		return 16.4, 300
	case week < 24:
		return 30.0, 600
	case week < 28:
		return 35.6, 1000
	case week < 32:
		return 41.1, 1700
	case week < 36:
		return 46.2, 2600
	default:
		return 51.2, 3400
	}
}
