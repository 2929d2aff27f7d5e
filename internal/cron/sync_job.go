package cron

import (
	"context"
	"fmt"

	"github.com/mamacare/engine/internal/sync"
	"github.com/mamacare/engine/pkg/logger"
)

// cycleRunner is the slice of the reconciler the job needs.
type cycleRunner interface {
	RunCycle(ctx context.Context) (*sync.CycleResult, error)
}

// SyncJobParams configure the remote reconciliation job.
type SyncJobParams struct {
	Logger     *logger.Logger
	Reconciler cycleRunner
}

// NewSyncJob wraps the reconciler as a scheduled job.
func NewSyncJob(params SyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	return &syncJob{logg: params.Logger, reconciler: params.Reconciler}, nil
}

type syncJob struct {
	logg       *logger.Logger
	reconciler cycleRunner
}

func (j *syncJob) Name() string { return "remote-sync" }

func (j *syncJob) Run(ctx context.Context) error {
	result, err := j.reconciler.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("sync cycle: %w", err)
	}
	if result.PushErrors > 0 || result.PullErrors > 0 {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"push_errors": result.PushErrors,
			"pull_errors": result.PullErrors,
		}), "sync cycle finished with row errors")
	}
	return nil
}
