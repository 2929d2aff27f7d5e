package users

import (
	"context"
	"time"

	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/security"
	"gorm.io/gorm"
)

const resetTokenBytes = 32

// CreateResetToken issues a password-reset token for the account holding
// email. Unknown emails return (nil, nil) so callers cannot enumerate
// accounts. Accounts without a local password get a CONFLICT: their
// credential lives with the remote provider.
func (r *Repository) CreateResetToken(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	if email == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "email is required")
	}

	var token *models.PasswordResetToken
	err := r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		user, err := r.GetByEmail(ctx, email)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if user.PasswordHash == nil {
			return apperrors.New(apperrors.CodeConflict, "password reset must be performed through the credential provider")
		}

		// At most one live token per user.
		if err := tx.Delete(&models.PasswordResetToken{}, "user_id = ?", user.ID).Error; err != nil {
			return db.Translate(err, schema.TablePasswordResetTokens)
		}

		raw, err := security.GenerateToken(resetTokenBytes)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "generating reset token")
		}
		fresh := &models.PasswordResetToken{
			Token:     raw,
			UserID:    user.ID,
			ExpiresAt: r.now().UTC().Add(r.resetTTL),
		}
		if err := tx.Create(fresh).Error; err != nil {
			return db.Translate(err, schema.TablePasswordResetTokens)
		}
		token = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// ConsumeResetToken validates a token and, when live, replaces the user's
// password hash and burns the token, all in one transaction. Invalid or
// expired tokens return (false, nil), not an error.
func (r *Repository) ConsumeResetToken(ctx context.Context, token, newPassword string) (bool, error) {
	if newPassword == "" {
		return false, apperrors.New(apperrors.CodeValidation, "new password is required")
	}

	consumed := false
	err := r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var stored models.PasswordResetToken
		if err := tx.First(&stored, "token = ?", token).Error; err != nil {
			if apperrors.IsNotFound(db.Translate(err, schema.TablePasswordResetTokens)) {
				return nil
			}
			return db.Translate(err, schema.TablePasswordResetTokens)
		}

		now := r.now().UTC()
		if !stored.ExpiresAt.After(now) {
			return tx.Delete(&models.PasswordResetToken{}, "token = ?", token).Error
		}

		hash, err := r.hasher.Hash(newPassword)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "hashing password")
		}
		result := tx.Model(&models.User{}).Where("id = ?", stored.UserID).Updates(map[string]any{
			"password_hash": hash,
			"updated_at":    now,
		})
		if result.Error != nil {
			return db.Translate(result.Error, schema.TableUsers)
		}
		if err := tx.Delete(&models.PasswordResetToken{}, "token = ?", token).Error; err != nil {
			return db.Translate(err, schema.TablePasswordResetTokens)
		}
		consumed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return consumed, nil
}

// PurgeExpiredResetTokens deletes tokens past expiry.
func (r *Repository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, db.Translate(result.Error, schema.TablePasswordResetTokens)
	}
	return result.RowsAffected, nil
}
