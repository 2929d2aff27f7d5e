// Package hospitals persists per-user favorite places. Place lookup itself is
// an external maps concern; only the saved result lands here.
package hospitals

import (
	"context"
	"time"

	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/validate"
	"gorm.io/datatypes"
)

// SaveFavoriteDTO carries caller input for a favorite hospital.
type SaveFavoriteDTO struct {
	UserID    string         `json:"user_id" validate:"required"`
	PlaceID   string         `json:"place_id" validate:"required"`
	Name      string         `json:"name" validate:"required"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Rating    float64        `json:"rating"`
	Metadata  datatypes.JSON `json:"metadata"`
}

// Repository exposes favorite-hospital persistence.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository constructs a hospitals repo bound to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Save upserts a favorite on the (user, place) pair.
func (r *Repository) Save(ctx context.Context, dto SaveFavoriteDTO) error {
	if err := validate.Struct(dto); err != nil {
		return err
	}
	metadata := dto.Metadata
	if metadata == nil {
		metadata = datatypes.JSON([]byte("{}"))
	}
	err := r.DB(ctx).Exec(`INSERT INTO favorite_hospitals
  (user_id, place_id, name, latitude, longitude, rating, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, place_id) DO UPDATE SET
  name = excluded.name,
  latitude = excluded.latitude,
  longitude = excluded.longitude,
  rating = excluded.rating,
  metadata = excluded.metadata`,
		dto.UserID, dto.PlaceID, dto.Name, dto.Latitude, dto.Longitude, dto.Rating, string(metadata), r.now().UTC()).Error
	return db.Translate(err, schema.TableFavoriteHospitals)
}

// List returns a user's favorites, most recently saved first.
func (r *Repository) List(ctx context.Context, userID string) ([]models.FavoriteHospital, error) {
	var favorites []models.FavoriteHospital
	err := r.DB(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&favorites).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableFavoriteHospitals)
	}
	return favorites, nil
}

// Remove deletes the (user, place) favorite if it exists.
func (r *Repository) Remove(ctx context.Context, userID, placeID string) error {
	err := r.DB(ctx).Where("user_id = ? AND place_id = ?", userID, placeID).
		Delete(&models.FavoriteHospital{}).Error
	return db.Translate(err, schema.TableFavoriteHospitals)
}
