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

const sessionTokenBytes = 32

// CreateSession issues a cryptographically random session token for a user.
// A zero duration falls back to the configured TTL.
func (r *Repository) CreateSession(ctx context.Context, userID string, duration time.Duration) (*models.Session, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if duration <= 0 {
		duration = r.sessionTTL
	}

	token, err := security.GenerateToken(sessionTokenBytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "generating session token")
	}

	now := r.now().UTC()
	session := &models.Session{
		ID:        token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
	if err := r.DB(ctx).Create(session).Error; err != nil {
		return nil, db.Translate(err, schema.TableSessions)
	}
	return session, nil
}

// ValidateSession resolves a token to its user, only while unexpired. Expired
// and orphaned sessions are deleted opportunistically; both cases read as
// NOT_FOUND to the caller. The NOT_FOUND is surfaced only after the
// transaction commits, so the cleanup delete is not rolled back with it.
func (r *Repository) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	var user *models.User
	var invalid error
	err := r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var session models.Session
		if err := tx.First(&session, "id = ?", token).Error; err != nil {
			translated := db.Translate(err, schema.TableSessions)
			if apperrors.IsNotFound(translated) {
				invalid = translated
				return nil
			}
			return translated
		}

		now := r.now().UTC()
		if !session.ExpiresAt.After(now) {
			invalid = apperrors.New(apperrors.CodeNotFound, "session expired")
			return db.Translate(tx.Delete(&models.Session{}, "id = ?", token).Error, schema.TableSessions)
		}

		var found models.User
		if err := tx.First(&found, "id = ?", session.UserID).Error; err != nil {
			translated := db.Translate(err, schema.TableUsers)
			if apperrors.IsNotFound(translated) {
				invalid = apperrors.New(apperrors.CodeNotFound, "session user no longer exists")
				return db.Translate(tx.Delete(&models.Session{}, "id = ?", token).Error, schema.TableSessions)
			}
			return translated
		}
		user = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if invalid != nil {
		return nil, invalid
	}
	return user, nil
}

// DeleteSession removes a session (logout). Unknown tokens are a no-op.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	err := r.DB(ctx).Delete(&models.Session{}, "id = ?", token).Error
	return db.Translate(err, schema.TableSessions)
}

// PurgeExpiredSessions deletes sessions past their expiry, returning the
// number of rows removed.
func (r *Repository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, db.Translate(result.Error, schema.TableSessions)
	}
	return result.RowsAffected, nil
}
