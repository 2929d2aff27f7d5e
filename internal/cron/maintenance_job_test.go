package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mamacare/engine/internal/enginetest"
	"github.com/mamacare/engine/internal/notifications"
	"github.com/mamacare/engine/internal/users"
	"github.com/mamacare/engine/pkg/db"
)

func newMaintenanceFixture(t *testing.T) (*db.Client, Job) {
	t.Helper()
	client, _ := enginetest.OpenDB(t)
	logg := enginetest.Logger()

	userRepo := users.NewRepository(users.RepositoryParams{Client: client, Logger: logg})
	job, err := NewMaintenanceJob(MaintenanceJobParams{
		Logger:        logg,
		Client:        client,
		Sessions:      userRepo,
		Notifications: notifications.NewRepository(client),
		RetentionDays: 90,
	})
	if err != nil {
		t.Fatalf("NewMaintenanceJob: %v", err)
	}

	err = client.DB(context.Background()).Exec(`INSERT INTO users (id, email, name, created_at, updated_at)
VALUES ('u1', 'u1@example.com', 'Test', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return client, job
}

func countRows(t *testing.T, client *db.Client, table string) int64 {
	t.Helper()
	var count int64
	if err := client.DB(context.Background()).Table(table).Count(&count).Error; err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return count
}

func TestMaintenanceJobSweeps(t *testing.T) {
	client, job := newMaintenanceFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	job.(*maintenanceJob).now = func() time.Time { return now }

	gdb := client.DB(ctx)
	seed := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ('s-old', 'u1', ?, ?)`,
			[]any{now.Add(-48 * time.Hour), now.Add(-time.Hour)}},
		{`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ('s-live', 'u1', ?, ?)`,
			[]any{now, now.Add(time.Hour)}},
		{`INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES ('t-old', 'u1', ?)`,
			[]any{now.Add(-time.Minute)}},
		{`INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES ('t-live', 'u1', ?)`,
			[]any{now.Add(time.Hour)}},
		{`INSERT INTO notifications (id, user_id, type, title, created_at) VALUES ('n-old', 'u1', 'system', 'stale', ?)`,
			[]any{now.Add(-120 * 24 * time.Hour)}},
		{`INSERT INTO notifications (id, user_id, type, title, created_at) VALUES ('n-live', 'u1', 'system', 'fresh', ?)`,
			[]any{now.Add(-time.Hour)}},
	}
	for _, row := range seed {
		if err := gdb.Exec(row.sql, row.args...).Error; err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := countRows(t, client, "sessions"); got != 1 {
		t.Fatalf("expected 1 live session, got %d", got)
	}
	if got := countRows(t, client, "password_reset_tokens"); got != 1 {
		t.Fatalf("expected 1 live reset token, got %d", got)
	}
	if got := countRows(t, client, "notifications"); got != 1 {
		t.Fatalf("expected 1 live notification, got %d", got)
	}

	// A second run has nothing left to sweep.
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}

type failingSweeper struct{}

func (failingSweeper) PurgeExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, fmt.Errorf("sessions table locked")
}

func (failingSweeper) PurgeExpiredResetTokens(context.Context, time.Time) (int64, error) {
	return 0, fmt.Errorf("tokens table locked")
}

type failingNotifications struct{}

func (failingNotifications) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, fmt.Errorf("notifications table locked")
}

func TestMaintenanceJobToleratesPartialFailure(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	logg := enginetest.Logger()

	job, err := NewMaintenanceJob(MaintenanceJobParams{
		Logger:        logg,
		Client:        client,
		Sessions:      failingSweeper{},
		Notifications: notifications.NewRepository(client),
	})
	if err != nil {
		t.Fatalf("NewMaintenanceJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected partial failure to be tolerated, got %v", err)
	}
}

func TestMaintenanceJobFailsWhenEveryStepFails(t *testing.T) {
	client, _ := enginetest.OpenDB(t)
	job, err := NewMaintenanceJob(MaintenanceJobParams{
		Logger:        enginetest.Logger(),
		Client:        client,
		Sessions:      failingSweeper{},
		Notifications: failingNotifications{},
	})
	if err != nil {
		t.Fatalf("NewMaintenanceJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when every step fails")
	}
}
