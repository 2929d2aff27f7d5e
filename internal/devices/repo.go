// Package devices persists push-notification device tokens. The engine only
// stores and retrieves them; delivery is an external concern.
package devices

import (
	"context"
	"time"

	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
)

// Repository exposes push-token persistence.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository constructs a devices repo bound to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Register upserts a device token: re-registering replaces the prior record,
// including its user association and active flag.
func (r *Repository) Register(ctx context.Context, token string, userID *string, active bool) error {
	if token == "" {
		return apperrors.New(apperrors.CodeValidation, "push token is required")
	}
	err := r.DB(ctx).Exec(`INSERT INTO push_tokens (token, user_id, active, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT (token) DO UPDATE SET user_id = excluded.user_id, active = excluded.active, created_at = excluded.created_at`,
		token, userID, active, r.now().UTC()).Error
	return db.Translate(err, schema.TablePushTokens)
}

// Associate links an existing token to a user without touching its other
// fields.
func (r *Repository) Associate(ctx context.Context, token, userID string) error {
	if token == "" || userID == "" {
		return apperrors.New(apperrors.CodeValidation, "token and user id are required")
	}
	result := r.DB(ctx).Model(&models.PushToken{}).Where("token = ?", token).
		UpdateColumn("user_id", userID)
	if result.Error != nil {
		return db.Translate(result.Error, schema.TablePushTokens)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "push token not found")
	}
	return nil
}

// Deactivate flips a token inactive; typically after the provider reports it
// unregistered.
func (r *Repository) Deactivate(ctx context.Context, token string) error {
	err := r.DB(ctx).Model(&models.PushToken{}).Where("token = ?", token).
		UpdateColumn("active", false).Error
	return db.Translate(err, schema.TablePushTokens)
}

// GetActiveTokens lists active tokens, optionally scoped to one user.
func (r *Repository) GetActiveTokens(ctx context.Context, userID *string) ([]models.PushToken, error) {
	query := r.DB(ctx).Where("active = ?", true)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var tokens []models.PushToken
	if err := query.Order("created_at").Find(&tokens).Error; err != nil {
		return nil, db.Translate(err, schema.TablePushTokens)
	}
	return tokens, nil
}

// Get loads one token record.
func (r *Repository) Get(ctx context.Context, token string) (*models.PushToken, error) {
	var stored models.PushToken
	if err := r.DB(ctx).First(&stored, "token = ?", token).Error; err != nil {
		return nil, db.Translate(err, schema.TablePushTokens)
	}
	return &stored, nil
}
