package models

import "time"

// CalendarNote is a free-text note pinned to a calendar day. NoteDate is
// stored as YYYY-MM-DD so equality works at day granularity.
type CalendarNote struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	NoteDate  string    `gorm:"column:note_date;not null;index"`
	Note      string    `gorm:"column:note;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CalendarNote) TableName() string { return "calendar_notes" }
