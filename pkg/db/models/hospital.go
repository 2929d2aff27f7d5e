package models

import (
	"time"

	"gorm.io/datatypes"
)

// FavoriteHospital is a saved place per user, unique on (user, place).
type FavoriteHospital struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string         `gorm:"column:user_id;not null;uniqueIndex:idx_favorite_hospitals_user_place"`
	PlaceID   string         `gorm:"column:place_id;not null;uniqueIndex:idx_favorite_hospitals_user_place"`
	Name      string         `gorm:"column:name;not null"`
	Latitude  float64        `gorm:"column:latitude"`
	Longitude float64        `gorm:"column:longitude"`
	Rating    float64        `gorm:"column:rating"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (FavoriteHospital) TableName() string { return "favorite_hospitals" }
