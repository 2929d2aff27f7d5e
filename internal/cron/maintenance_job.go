package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/logger"
	"gorm.io/gorm"
)

const defaultNotificationRetentionDays = 90

// sessionSweeper is the slice of the users repository the job needs.
type sessionSweeper interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// notificationSweeper is the slice of the notifications repository the job
// needs.
type notificationSweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceJobParams configure the local maintenance job.
type MaintenanceJobParams struct {
	Logger        *logger.Logger
	Client        *db.Client
	Sessions      sessionSweeper
	Notifications notificationSweeper
	RetentionDays int
}

// NewMaintenanceJob builds the daily database sweep: expired sessions,
// expired reset tokens and stale notifications. All steps share one
// transaction; one failing step is logged and the rest still run.
func NewMaintenanceJob(params MaintenanceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultNotificationRetentionDays
	}
	return &maintenanceJob{
		logg:          params.Logger,
		client:        params.Client,
		sessions:      params.Sessions,
		notifications: params.Notifications,
		retention:     retention,
		now:           time.Now,
	}, nil
}

type maintenanceJob struct {
	logg          *logger.Logger
	client        *db.Client
	sessions      sessionSweeper
	notifications notificationSweeper
	retention     int
	now           func() time.Time
}

func (j *maintenanceJob) Name() string { return "maintenance" }

func (j *maintenanceJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.retention) * 24 * time.Hour)

	var sessions, tokens, notifications int64
	failed := 0
	err := j.client.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		steps := []struct {
			name string
			run  func() error
		}{
			{"expired-sessions", func() (err error) {
				sessions, err = j.sessions.PurgeExpiredSessions(ctx, now)
				return
			}},
			{"expired-reset-tokens", func() (err error) {
				tokens, err = j.sessions.PurgeExpiredResetTokens(ctx, now)
				return
			}},
			{"stale-notifications", func() (err error) {
				notifications, err = j.notifications.DeleteOlderThan(ctx, cutoff)
				return
			}},
		}
		for _, step := range steps {
			if stepErr := step.run(); stepErr != nil {
				failed++
				j.logg.Error(j.logg.WithField(ctx, "step", step.name), "maintenance step failed", stepErr)
			}
		}
		if failed == len(steps) {
			return fmt.Errorf("all maintenance steps failed")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("maintenance sweep: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sessions_purged":       sessions,
		"reset_tokens_purged":   tokens,
		"notifications_deleted": notifications,
		"steps_failed":          failed,
		"retention_days":        j.retention,
	})
	j.logg.Info(logCtx, "maintenance sweep complete")
	return nil
}
