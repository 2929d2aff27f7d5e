package models

import "time"

// PregnancyDetail holds the single per-user pregnancy record. WeeksPregnant,
// DaysPregnant and the growth estimates are derived from StartDate at write
// time.
type PregnancyDetail struct {
	ID            string    `gorm:"column:id;primaryKey"`
	UserID        string    `gorm:"column:user_id;not null;uniqueIndex"`
	StartDate     time.Time `gorm:"column:start_date;not null"`
	WeeksPregnant int       `gorm:"column:weeks_pregnant;not null"`
	DaysPregnant  int       `gorm:"column:days_pregnant;not null"`
	BabyHeightCm  float64   `gorm:"column:baby_height_cm"`
	BabyWeightG   float64   `gorm:"column:baby_weight_g"`
	DueDate       time.Time `gorm:"column:due_date;not null"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (PregnancyDetail) TableName() string { return "pregnancy_details" }

// TimelineEvent is a per-user pregnancy milestone entry.
type TimelineEvent struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id;not null;index"`
	Week        int       `gorm:"column:week;not null"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	EventDate   time.Time `gorm:"column:event_date;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (TimelineEvent) TableName() string { return "timeline_events" }
