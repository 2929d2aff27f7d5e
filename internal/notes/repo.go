// Package notes persists per-user calendar notes at day granularity.
package notes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/validate"
)

// DateLayout is the day-granularity storage format for note dates.
const DateLayout = "2006-01-02"

// CreateNoteDTO carries caller input for a calendar note.
type CreateNoteDTO struct {
	UserID string    `json:"user_id" validate:"required"`
	Date   time.Time `json:"date" validate:"required"`
	Note   string    `json:"note" validate:"required"`
}

// Repository exposes calendar-note persistence.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository constructs a notes repo bound to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Create stores a note pinned to the given calendar day.
func (r *Repository) Create(ctx context.Context, dto CreateNoteDTO) (*models.CalendarNote, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	note := &models.CalendarNote{
		ID:        uuid.NewString(),
		UserID:    dto.UserID,
		NoteDate:  dto.Date.UTC().Format(DateLayout),
		Note:      dto.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.DB(ctx).Create(note).Error; err != nil {
		return nil, db.Translate(err, schema.TableCalendarNotes)
	}
	return note, nil
}

// UpdateText replaces the note body.
func (r *Repository) UpdateText(ctx context.Context, id, text string) error {
	if text == "" {
		return apperrors.New(apperrors.CodeValidation, "note text is required")
	}
	result := r.DB(ctx).Model(&models.CalendarNote{}).Where("id = ?", id).Updates(map[string]any{
		"note":       text,
		"updated_at": r.now().UTC(),
	})
	if result.Error != nil {
		return db.Translate(result.Error, schema.TableCalendarNotes)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "calendar note not found")
	}
	return nil
}

// ListForDay returns a user's notes pinned to one calendar day.
func (r *Repository) ListForDay(ctx context.Context, userID string, day time.Time) ([]models.CalendarNote, error) {
	var out []models.CalendarNote
	err := r.DB(ctx).Where("user_id = ? AND note_date = ?", userID, day.UTC().Format(DateLayout)).
		Order("created_at").Find(&out).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableCalendarNotes)
	}
	return out, nil
}

// ListForRange returns a user's notes between from and to, inclusive.
func (r *Repository) ListForRange(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarNote, error) {
	var out []models.CalendarNote
	err := r.DB(ctx).Where("user_id = ? AND note_date >= ? AND note_date <= ?",
		userID, from.UTC().Format(DateLayout), to.UTC().Format(DateLayout)).
		Order("note_date, created_at").Find(&out).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableCalendarNotes)
	}
	return out, nil
}

// Delete removes a note by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.DB(ctx).Delete(&models.CalendarNote{}, "id = ?", id).Error
	return db.Translate(err, schema.TableCalendarNotes)
}
