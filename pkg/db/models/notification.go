package models

import (
	"time"

	"github.com/mamacare/engine/pkg/enums"
)

// Notification is a locally stored notification record. Delivery is an
// external concern; this table feeds the in-app inbox and the retention
// sweep.
type Notification struct {
	ID        string                 `gorm:"column:id;primaryKey"`
	UserID    string                 `gorm:"column:user_id;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body"`
	Read      bool                   `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time              `gorm:"column:created_at;index"`
}

func (Notification) TableName() string { return "notifications" }
