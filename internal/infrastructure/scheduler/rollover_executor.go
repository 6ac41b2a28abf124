package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"go.uber.org/zap"
)

// RolloverRunner closes one tenant's period. A nil error covers both an
// archived and a skipped rollover.
type RolloverRunner interface {
	RunRollover(ctx context.Context, tenantID uuid.UUID, target mess.Period) error
}

// RolloverExecutor adapts a RolloverRunner to the worker pool
type RolloverExecutor struct {
	runner RolloverRunner
	logger *zap.Logger
}

// NewRolloverExecutor creates a new rollover executor
func NewRolloverExecutor(runner RolloverRunner, logger *zap.Logger) *RolloverExecutor {
	return &RolloverExecutor{runner: runner, logger: logger}
}

// Execute runs the rollover of the job's tenant
func (e *RolloverExecutor) Execute(ctx context.Context, job *Job) error {
	if job.TenantID == uuid.Nil || job.Target.IsZero() {
		return fmt.Errorf("%w: job %s has no tenant or target", ErrInvalidConfig, job.ID)
	}
	if err := e.runner.RunRollover(ctx, job.TenantID, job.Target); err != nil {
		return fmt.Errorf("%w: tenant %s: %w", ErrRolloverFailed, job.TenantID, err)
	}
	return nil
}

var _ JobExecutor = (*RolloverExecutor)(nil)
