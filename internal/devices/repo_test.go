package devices

import (
	"context"
	"testing"

	"github.com/mamacare/engine/internal/enginetest"
	apperrors "github.com/mamacare/engine/pkg/errors"
)

func seedUser(t *testing.T, repo *Repository, id string) {
	t.Helper()
	err := repo.DB(context.Background()).Exec(`INSERT INTO users (id, email, name, created_at, updated_at)
VALUES (?, ?, 'Test', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, id, id+"@example.com").Error
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

func TestRegisterBeforeLoginThenAssociate(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	repo := NewRepository(client)
	ctx := context.Background()

	// Tokens can exist before any user does.
	if err := repo.Register(ctx, "tok-1", nil, true); err != nil {
		t.Fatalf("Register: %v", err)
	}
	stored, err := repo.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.UserID != nil {
		t.Fatal("expected unassociated token")
	}

	seedUser(t, repo, "u1")
	if err := repo.Associate(ctx, "tok-1", "u1"); err != nil {
		t.Fatalf("Associate: %v", err)
	}
	stored, err = repo.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.UserID == nil || *stored.UserID != "u1" {
		t.Fatalf("expected association to u1, got %v", stored.UserID)
	}
}

func TestRegisterIsUpsert(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	repo := NewRepository(client)
	ctx := context.Background()

	seedUser(t, repo, "u1")
	userID := "u1"
	if err := repo.Register(ctx, "tok-1", &userID, true); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Re-registering replaces the record rather than failing unique.
	if err := repo.Register(ctx, "tok-1", nil, false); err != nil {
		t.Fatalf("re-Register: %v", err)
	}

	stored, err := repo.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Active {
		t.Fatal("expected token inactive after re-register")
	}
	if stored.UserID != nil {
		t.Fatal("expected association cleared after re-register")
	}
}

func TestAssociateUnknownToken(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	repo := NewRepository(client)

	err := repo.Associate(context.Background(), "missing", "u1")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetActiveTokens(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	repo := NewRepository(client)
	ctx := context.Background()

	seedUser(t, repo, "u1")
	seedUser(t, repo, "u2")
	u1, u2 := "u1", "u2"
	if err := repo.Register(ctx, "tok-1", &u1, true); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.Register(ctx, "tok-2", &u2, true); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.Register(ctx, "tok-3", &u1, true); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.Deactivate(ctx, "tok-3"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	all, err := repo.GetActiveTokens(ctx, nil)
	if err != nil {
		t.Fatalf("GetActiveTokens: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 active tokens, got %d", len(all))
	}

	mine, err := repo.GetActiveTokens(ctx, &u1)
	if err != nil {
		t.Fatalf("GetActiveTokens(u1): %v", err)
	}
	if len(mine) != 1 || mine[0].Token != "tok-1" {
		t.Fatalf("expected only tok-1 for u1, got %v", mine)
	}
}

func TestUserDeletionKeepsToken(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	repo := NewRepository(client)
	ctx := context.Background()

	seedUser(t, repo, "u1")
	u1 := "u1"
	if err := repo.Register(ctx, "tok-1", &u1, true); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := repo.DB(ctx).Exec(`DELETE FROM users WHERE id = 'u1'`).Error; err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	// The token survives with its association nulled, not cascaded away.
	stored, err := repo.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.UserID != nil {
		t.Fatalf("expected user_id cleared, got %v", *stored.UserID)
	}
}
