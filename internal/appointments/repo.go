// Package appointments manages the appointment lifecycle. Every status
// transition is checked against the current row inside one transaction, so a
// concurrent or repeated transition surfaces as a state conflict instead of
// silently overwriting.
package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/enums"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/validate"
	"gorm.io/gorm"
)

// RequestDTO carries caller input for a new appointment.
type RequestDTO struct {
	UserID      string    `json:"user_id" validate:"required"`
	DoctorID    string    `json:"doctor_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Reason      string    `json:"reason" validate:"required"`
	Notes       string    `json:"notes"`
}

// Repository exposes appointment persistence and transitions.
type Repository struct {
	repo.Base

	now func() time.Time
}

// NewRepository constructs an appointments repo.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Request creates a pending appointment. The scheduled time must be in the
// future at request time.
func (r *Repository) Request(ctx context.Context, dto RequestDTO) (*models.Appointment, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	if !dto.ScheduledAt.After(now) {
		return nil, apperrors.New(apperrors.CodeValidation, "scheduled time must be in the future")
	}

	appointment := models.Appointment{
		ID:          uuid.NewString(),
		UserID:      dto.UserID,
		DoctorID:    dto.DoctorID,
		ScheduledAt: dto.ScheduledAt.UTC(),
		Reason:      dto.Reason,
		Notes:       dto.Notes,
		Status:      enums.AppointmentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.DB(ctx).Create(&appointment).Error; err != nil {
		return nil, db.Translate(err, schema.TableAppointments)
	}
	return &appointment, nil
}

// GetByID loads one appointment.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.DB(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, schema.TableAppointments)
	}
	return &appointment, nil
}

// ListByUser returns a patient's appointments, soonest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	var out []models.Appointment
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableAppointments)
	}
	return out, nil
}

// ListByDoctor returns a doctor's appointments, soonest first, optionally
// filtered to one status.
func (r *Repository) ListByDoctor(ctx context.Context, doctorID string, status *enums.AppointmentStatus) ([]models.Appointment, error) {
	query := r.DB(ctx).Where("doctor_id = ?", doctorID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var out []models.Appointment
	if err := query.Order("scheduled_at ASC").Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableAppointments)
	}
	return out, nil
}

// Confirm moves a pending or rescheduled appointment to confirmed.
func (r *Repository) Confirm(ctx context.Context, id string) (*models.Appointment, error) {
	return r.transition(ctx, id, enums.AppointmentStatusConfirmed, enums.AppointmentStatus.CanConfirm)
}

// Decline moves a pending or rescheduled appointment to declined.
func (r *Repository) Decline(ctx context.Context, id string) (*models.Appointment, error) {
	return r.transition(ctx, id, enums.AppointmentStatusDeclined, enums.AppointmentStatus.CanConfirm)
}

// Cancel moves an active appointment to cancelled.
func (r *Repository) Cancel(ctx context.Context, id string) (*models.Appointment, error) {
	return r.transition(ctx, id, enums.AppointmentStatusCancelled, enums.AppointmentStatus.CanCancel)
}

// Complete moves a confirmed appointment to completed.
func (r *Repository) Complete(ctx context.Context, id string) (*models.Appointment, error) {
	return r.transition(ctx, id, enums.AppointmentStatusCompleted, enums.AppointmentStatus.CanComplete)
}

// Reschedule moves an active appointment to rescheduled with a new future
// slot.
func (r *Repository) Reschedule(ctx context.Context, id string, scheduledAt time.Time) (*models.Appointment, error) {
	if !scheduledAt.After(r.now().UTC()) {
		return nil, apperrors.New(apperrors.CodeValidation, "scheduled time must be in the future")
	}

	var updated *models.Appointment
	err := r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		appointment, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !appointment.Status.CanCancel() {
			return stateConflict(appointment.Status, enums.AppointmentStatusRescheduled)
		}
		appointment.Status = enums.AppointmentStatusRescheduled
		appointment.ScheduledAt = scheduledAt.UTC()
		appointment.UpdatedAt = r.now().UTC()
		if err := r.DB(ctx).Save(appointment).Error; err != nil {
			return db.Translate(err, schema.TableAppointments)
		}
		updated = appointment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) transition(
	ctx context.Context,
	id string,
	target enums.AppointmentStatus,
	allowed func(enums.AppointmentStatus) bool,
) (*models.Appointment, error) {
	var updated *models.Appointment
	err := r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		appointment, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !allowed(appointment.Status) {
			return stateConflict(appointment.Status, target)
		}
		appointment.Status = target
		appointment.UpdatedAt = r.now().UTC()
		if err := r.DB(ctx).Save(appointment).Error; err != nil {
			return db.Translate(err, schema.TableAppointments)
		}
		updated = appointment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func stateConflict(current, target enums.AppointmentStatus) error {
	return apperrors.New(
		apperrors.CodeStateConflict,
		fmt.Sprintf("appointment is %s and cannot move to %s", current, target),
	)
}
