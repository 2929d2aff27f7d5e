package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/pkg/db/models"
	dbtypes "github.com/mamacare/engine/pkg/db/types"
	"github.com/mamacare/engine/pkg/enums"
)

// CreateUserDTO carries caller input for a new local user. Password is plain
// text here and hashed before storage; it is empty for remote-auth-only
// accounts.
type CreateUserDTO struct {
	ID           string   `json:"id"`
	Email        string   `json:"email" validate:"required,email"`
	Name         string   `json:"name" validate:"required"`
	Password     string   `json:"password"`
	Phone        *string  `json:"phone"`
	ProfileImage *string  `json:"profile_image"`
	RemoteID     *string  `json:"remote_id"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	Verified     bool     `json:"verified"`
}

// ToModel normalizes the DTO into a User: email lower-cased, role defaulted
// to patient, permissions defaulted to the role's canonical set. The password
// hash is attached by the repository.
func (dto CreateUserDTO) ToModel(now time.Time) *models.User {
	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := enums.ParseRole(dto.Role)
	perms := dto.Permissions
	if len(perms) == 0 {
		perms = enums.DefaultPermissions(role)
	}
	return &models.User{
		ID:           id,
		RemoteID:     dto.RemoteID,
		Email:        strings.ToLower(strings.TrimSpace(dto.Email)),
		Name:         dto.Name,
		Phone:        dto.Phone,
		ProfileImage: dto.ProfileImage,
		Verified:     dto.Verified,
		Role:         role,
		Permissions:  dbtypes.StringList(perms),
		SyncStatus:   enums.SyncStatusNeedsPush,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateProfileDTO carries mutable profile fields; nil means unchanged.
type UpdateProfileDTO struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	ProfileImage *string `json:"profile_image"`
	Verified     *bool   `json:"verified"`
}
