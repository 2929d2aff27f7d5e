package models

import (
	"time"

	"github.com/mamacare/engine/pkg/enums"
)

// Appointment links a patient to a doctor at a scheduled time. Status
// transitions are guarded in the appointments repository.
type Appointment struct {
	ID          string                  `gorm:"column:id;primaryKey"`
	UserID      string                  `gorm:"column:user_id;not null;index"`
	DoctorID    string                  `gorm:"column:doctor_id;not null;index"`
	ScheduledAt time.Time               `gorm:"column:scheduled_at;not null"`
	Reason      string                  `gorm:"column:reason;not null"`
	Notes       string                  `gorm:"column:notes"`
	Status      enums.AppointmentStatus `gorm:"column:status;not null;default:pending"`
	CreatedAt   time.Time               `gorm:"column:created_at"`
	UpdatedAt   time.Time               `gorm:"column:updated_at"`
}

func (Appointment) TableName() string { return "appointments" }
