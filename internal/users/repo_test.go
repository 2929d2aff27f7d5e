package users

import (
	"context"
	"testing"
	"time"

	"github.com/mamacare/engine/internal/enginetest"
	"github.com/mamacare/engine/pkg/config"
	"github.com/mamacare/engine/pkg/db"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	client, _ := enginetest.OpenDB(t)
	hasher := security.NewArgonHasher(config.PasswordConfig{
		ArgonMemoryKiB:   8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLength:  16,
		ArgonKeyLength:   32,
	})
	return NewRepository(RepositoryParams{
		Client:     client,
		Hasher:     hasher,
		Logger:     enginetest.Logger(),
		SessionTTL: time.Hour,
		ResetTTL:   time.Hour,
	})
}

func TestCreateNormalizesAndDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:    "  Amina@Example.COM ",
		Name:     "Amina",
		Password: "hunter22",
	})
	require.NoError(t, err)

	assert.Equal(t, "amina@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "patient", string(user.Role))
	assert.Contains(t, []string(user.Permissions), "profile:read")
	assert.Equal(t, "needs_push", string(user.SyncStatus))
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "hunter22", *user.PasswordHash)

	// Round-trips through storage intact.
	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Permissions, loaded.Permissions)
	assert.Equal(t, user.Role, loaded.Role)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "not-an-email", Name: "X"})
	assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "a@b.com"})
	assert.True(t, apperrors.IsValidation(err), "missing name should fail, got %v", err)
}

func TestCreateDuplicateEmailIsStoreConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "dup@example.com", Name: "First"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "DUP@example.com", Name: "Second"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStore))
	storeErr := db.AsStoreError(err)
	require.NotNil(t, storeErr)
	assert.Equal(t, db.ConstraintUnique, storeErr.Kind)
}

func TestGetByEmailIsCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Email: "case@example.com", Name: "Case"})
	require.NoError(t, err)

	loaded, err := repo.GetByEmail(ctx, "CASE@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
}

func TestUpdateProfileFlagsForPush(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "p@example.com", Name: "Before"})
	require.NoError(t, err)
	syncedAt := time.Now().UTC()
	require.NoError(t, repo.MarkSyncStatus(ctx, user.ID, "synced", &syncedAt))

	name := "After"
	updated, err := repo.UpdateProfile(ctx, user.ID, UpdateProfileDTO{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "needs_push", string(updated.SyncStatus))

	_, err = repo.UpdateProfile(ctx, "missing", UpdateProfileDTO{Name: &name})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLinkRemoteIdentity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "link@example.com", Name: "Link"})
	require.NoError(t, err)

	require.NoError(t, repo.LinkRemoteIdentity(ctx, user.ID, "remote-123"))

	loaded, err := repo.GetByRemoteID(ctx, "remote-123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loaded.ID)
	assert.Equal(t, "synced", string(loaded.SyncStatus))

	assert.True(t, apperrors.IsValidation(repo.LinkRemoteIdentity(ctx, user.ID, "")))
	assert.True(t, apperrors.IsNotFound(repo.LinkRemoteIdentity(ctx, "missing", "remote-456")))
}

func TestVerifyPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "v@example.com", Name: "V", Password: "secret-pw"})
	require.NoError(t, err)

	ok, err := repo.VerifyPassword(ctx, user.ID, "secret-pw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.VerifyPassword(ctx, user.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// Remote-only accounts fail closed.
	remote, err := repo.Create(ctx, CreateUserDTO{Email: "r@example.com", Name: "R"})
	require.NoError(t, err)
	ok, err = repo.VerifyPassword(ctx, remote.ID, "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteCascadesOwnedRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "gone@example.com", Name: "Gone", Password: "pw-123456"})
	require.NoError(t, err)

	_, err = repo.CreateSession(ctx, user.ID, time.Hour)
	require.NoError(t, err)
	err = repo.DB(ctx).Exec(`INSERT INTO notifications (id, user_id, type, title, created_at)
VALUES ('n1', ?, 'system', 'Welcome', CURRENT_TIMESTAMP)`, user.ID).Error
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))

	var sessions, notifications int64
	require.NoError(t, repo.DB(ctx).Table("sessions").Where("user_id = ?", user.ID).Count(&sessions).Error)
	require.NoError(t, repo.DB(ctx).Table("notifications").Where("user_id = ?", user.ID).Count(&notifications).Error)
	assert.Zero(t, sessions)
	assert.Zero(t, notifications)

	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, user.ID)))
}
