package pregnancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/validate"
)

// AddEventDTO carries caller input for a timeline milestone.
type AddEventDTO struct {
	UserID    string    `json:"user_id" validate:"required"`
	Week      int       `json:"week" validate:"min=0,max=45"`
	Title     string    `json:"title" validate:"required"`
	Details   string    `json:"details"`
	EventDate time.Time `json:"event_date" validate:"required"`
}

// AddEvent appends a milestone to the user's pregnancy timeline.
func (r *Repository) AddEvent(ctx context.Context, dto AddEventDTO) (*models.TimelineEvent, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	event := &models.TimelineEvent{
		ID:          uuid.NewString(),
		UserID:      dto.UserID,
		Week:        dto.Week,
		Title:       dto.Title,
		Description: dto.Details,
		EventDate:   dto.EventDate.UTC(),
		CreatedAt:   r.now().UTC(),
	}
	if err := r.DB(ctx).Create(event).Error; err != nil {
		return nil, db.Translate(err, schema.TableTimelineEvents)
	}
	return event, nil
}

// ListEvents returns the user's timeline ordered by week then date.
func (r *Repository) ListEvents(ctx context.Context, userID string) ([]models.TimelineEvent, error) {
	var events []models.TimelineEvent
	err := r.DB(ctx).Where("user_id = ?", userID).
		Order("week, event_date").Find(&events).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableTimelineEvents)
	}
	return events, nil
}
