package models

import "time"

// PushToken stores a device registration for notification targeting. The
// user reference is nulled (not cascaded) on user delete so device history
// survives account removal.
type PushToken struct {
	Token     string    `gorm:"column:token;primaryKey"`
	UserID    *string   `gorm:"column:user_id;index"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (PushToken) TableName() string { return "push_tokens" }
