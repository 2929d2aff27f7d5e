package models

import (
	"time"

	dbtypes "github.com/mamacare/engine/pkg/db/types"
	"github.com/mamacare/engine/pkg/enums"
)

// User represents the canonical identity entity in the local cache.
// PasswordHash is nil for accounts that only exist through the remote
// credential provider.
type User struct {
	ID           string             `gorm:"column:id;primaryKey"`
	RemoteID     *string            `gorm:"column:remote_id;uniqueIndex"`
	Email        string             `gorm:"column:email;not null;uniqueIndex"`
	Name         string             `gorm:"column:name;not null"`
	Phone        *string            `gorm:"column:phone;uniqueIndex"`
	ProfileImage *string            `gorm:"column:profile_image"`
	PasswordHash *string            `gorm:"column:password_hash"`
	Verified     bool               `gorm:"column:verified;not null;default:false"`
	Role         enums.Role         `gorm:"column:role;not null;default:patient"`
	Permissions  dbtypes.StringList `gorm:"column:permissions;type:text;not null;default:'[]'"`
	SyncStatus   enums.SyncStatus   `gorm:"column:sync_status;not null;default:needs_push"`
	LastSyncedAt *time.Time         `gorm:"column:last_synced_at"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at"`
	UpdatedAt    time.Time          `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// Session is created on login and removed on logout or expiry.
type Session struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

func (Session) TableName() string { return "sessions" }

// PasswordResetToken allows at most one live token per user; issuing a new
// one deletes the rest.
type PasswordResetToken struct {
	Token     string    `gorm:"column:token;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

func (PasswordResetToken) TableName() string { return "password_reset_tokens" }
