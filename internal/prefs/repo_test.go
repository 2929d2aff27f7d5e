package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/mamacare/engine/internal/enginetest"
	apperrors "github.com/mamacare/engine/pkg/errors"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	client, _ := enginetest.OpenDB(t)
	return NewRepository(client)
}

func TestGetFallsBackWhenAbsent(t *testing.T) {
	repo := newTestRepo(t)
	value, err := repo.Get(context.Background(), "ui.theme", "light")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "light" {
		t.Fatalf("expected fallback, got %q", value)
	}
}

func TestSetOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "ui.theme", "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, "ui.theme", "dark"); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	value, err := repo.Get(ctx, "ui.theme", "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "dark" {
		t.Fatalf("expected dark, got %q", value)
	}
}

func TestSetRequiresKey(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Set(context.Background(), "", "x"); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "ui.theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Delete(ctx, "ui.theme"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "ui.theme"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	value, err := repo.Get(ctx, "ui.theme", "fallback")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "fallback" {
		t.Fatalf("expected fallback after delete, got %q", value)
	}
}

func TestSyncWatermark(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at, err := repo.GetLastSynced(ctx, "users")
	if err != nil {
		t.Fatalf("GetLastSynced: %v", err)
	}
	if !at.IsZero() {
		t.Fatalf("expected zero watermark before first sync, got %v", at)
	}

	mark := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if err := repo.SetLastSynced(ctx, "users", mark); err != nil {
		t.Fatalf("SetLastSynced: %v", err)
	}
	// Advancing the watermark overwrites in place.
	if err := repo.SetLastSynced(ctx, "users", mark.Add(time.Hour)); err != nil {
		t.Fatalf("second SetLastSynced: %v", err)
	}

	at, err = repo.GetLastSynced(ctx, "users")
	if err != nil {
		t.Fatalf("GetLastSynced: %v", err)
	}
	if !at.Equal(mark.Add(time.Hour)) {
		t.Fatalf("expected %v, got %v", mark.Add(time.Hour), at)
	}
}
