package users

import (
	"context"
	"strings"
	"time"

	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/enums"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/logger"
	"github.com/mamacare/engine/pkg/security"
	"github.com/mamacare/engine/pkg/validate"
	"gorm.io/gorm"
)

// Repository exposes user, session and password-reset persistence.
type Repository struct {
	repo.Base
	hasher security.Hasher
	logg   *logger.Logger

	sessionTTL time.Duration
	resetTTL   time.Duration

	now func() time.Time
}

// RepositoryParams configure the users repository.
type RepositoryParams struct {
	Client     *db.Client
	Hasher     security.Hasher
	Logger     *logger.Logger
	SessionTTL time.Duration
	ResetTTL   time.Duration
}

// NewRepository constructs a users repo.
func NewRepository(params RepositoryParams) *Repository {
	sessionTTL := params.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}
	resetTTL := params.ResetTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Repository{
		Base:       repo.NewBase(params.Client),
		hasher:     params.Hasher,
		logg:       params.Logger,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// Create inserts a new user. The caller-assigned (or generated) id and email
// must be unique; duplicates surface as STORE_ERROR with a unique kind, never
// an upsert.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	// Normalize before validating so padded input passes the email check.
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}

	user := dto.ToModel(r.now().UTC())
	if dto.Password != "" {
		hash, err := r.hasher.Hash(dto.Password)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "hashing password")
		}
		user.PasswordHash = &hash
	}

	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, db.Translate(err, schema.TableUsers)
	}
	return user, nil
}

// Insert stores an already-built user row, used by the sync pull phase.
func (r *Repository) Insert(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return db.Translate(err, schema.TableUsers)
	}
	return nil
}

// Save persists all columns of an existing user row.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	user.UpdatedAt = r.now().UTC()
	if err := r.DB(ctx).Save(user).Error; err != nil {
		return db.Translate(err, schema.TableUsers)
	}
	return nil
}

// GetByID loads a user by local id.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, schema.TableUsers)
	}
	return &user, nil
}

// GetByEmail loads a user by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableUsers)
	}
	return &user, nil
}

// GetByRemoteID loads a user by their remote document id.
func (r *Repository) GetByRemoteID(ctx context.Context, remoteID string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "remote_id = ?", remoteID).Error; err != nil {
		return nil, db.Translate(err, schema.TableUsers)
	}
	return &user, nil
}

// ListBySyncStatus returns users carrying the given sync flag.
func (r *Repository) ListBySyncStatus(ctx context.Context, status enums.SyncStatus) ([]models.User, error) {
	var out []models.User
	if err := r.DB(ctx).Where("sync_status = ?", status).Order("created_at").Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableUsers)
	}
	return out, nil
}

// UpdateProfile applies the non-nil fields of dto and flags the row for push.
func (r *Repository) UpdateProfile(ctx context.Context, id string, dto UpdateProfileDTO) (*models.User, error) {
	updates := map[string]any{
		"updated_at":  r.now().UTC(),
		"sync_status": enums.SyncStatusNeedsPush,
	}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Phone != nil {
		updates["phone"] = *dto.Phone
	}
	if dto.ProfileImage != nil {
		updates["profile_image"] = *dto.ProfileImage
	}
	if dto.Verified != nil {
		updates["verified"] = *dto.Verified
	}

	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, db.Translate(result.Error, schema.TableUsers)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return r.GetByID(ctx, id)
}

// LinkRemoteIdentity attaches the credential provider's id to a local user
// and marks the row synced; this is the second half of the create-unlinked
// push flow.
func (r *Repository) LinkRemoteIdentity(ctx context.Context, id, remoteID string) error {
	if remoteID == "" {
		return apperrors.New(apperrors.CodeValidation, "remote id is required")
	}
	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"remote_id":   remoteID,
		"sync_status": enums.SyncStatusSynced,
		"updated_at":  r.now().UTC(),
	})
	if result.Error != nil {
		return db.Translate(result.Error, schema.TableUsers)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}

// MarkSyncStatus sets the per-row sync flag, optionally stamping
// last_synced_at when the row reaches Synced.
func (r *Repository) MarkSyncStatus(ctx context.Context, id string, status enums.SyncStatus, syncedAt *time.Time) error {
	updates := map[string]any{"sync_status": status}
	if syncedAt != nil {
		updates["last_synced_at"] = *syncedAt
	}
	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return db.Translate(result.Error, schema.TableUsers)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	err := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
	return db.Translate(err, schema.TableUsers)
}

// SetPassword replaces the stored credential hash.
func (r *Repository) SetPassword(ctx context.Context, id, password string) error {
	if password == "" {
		return apperrors.New(apperrors.CodeValidation, "password is required")
	}
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "hashing password")
	}
	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash": hash,
		"updated_at":    r.now().UTC(),
	})
	if result.Error != nil {
		return db.Translate(result.Error, schema.TableUsers)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}

// VerifyPassword checks a plain password against the stored hash. Accounts
// without a local credential always fail closed.
func (r *Repository) VerifyPassword(ctx context.Context, id, password string) (bool, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user.PasswordHash == nil {
		return false, nil
	}
	return r.hasher.Verify(password, *user.PasswordHash)
}

// Delete removes a user. Foreign keys cascade every owned table except
// push_tokens, whose user reference is set null.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return db.Translate(result.Error, schema.TableUsers)
		}
		if result.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return nil
	})
}
