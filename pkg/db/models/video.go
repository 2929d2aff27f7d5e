package models

import "time"

// Video is a row in the shared catalog. Per-user interaction state lives in
// UserVideoPreference, never here.
type Video struct {
	ID              string     `gorm:"column:id;primaryKey"`
	Title           string     `gorm:"column:title;not null"`
	URL             string     `gorm:"column:url;not null;uniqueIndex"`
	Description     string     `gorm:"column:description"`
	Category        string     `gorm:"column:category;index"`
	Recommended     bool       `gorm:"column:recommended;not null;default:false"`
	DurationSeconds int        `gorm:"column:duration_seconds"`
	PublishedAt     *time.Time `gorm:"column:published_at;index"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (Video) TableName() string { return "videos" }

// UserVideoPreference keys on (user, video) and tracks watch state.
type UserVideoPreference struct {
	UserID          string     `gorm:"column:user_id;primaryKey"`
	VideoID         string     `gorm:"column:video_id;primaryKey"`
	PositionSeconds int        `gorm:"column:position_seconds;not null;default:0"`
	Liked           bool       `gorm:"column:liked;not null;default:false"`
	Completed       bool       `gorm:"column:completed;not null;default:false"`
	LastWatchedAt   *time.Time `gorm:"column:last_watched_at"`
}

func (UserVideoPreference) TableName() string { return "user_video_preferences" }
