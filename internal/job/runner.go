package job

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runner executes queued jobs. It claims the job with a compare-and-set so
// that duplicate deliveries and competing workers settle on one execution.
type Runner struct {
	repo     Repository
	registry *Registry
	logger   *zap.Logger
}

func NewRunner(repo Repository, registry *Registry, logger ...*zap.Logger) *Runner {
	l := zap.L().Named("job.runner")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("job.runner")
	}
	return &Runner{repo: repo, registry: registry, logger: l}
}

func (r *Runner) Process(ctx context.Context, jobID string) error {
	j, err := r.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("job not found, dropping", zap.String("job_id", jobID))
			return nil
		}
		return err
	}
	if j.Terminal() {
		r.logger.Info("job already finished, skipping",
			zap.String("job_id", jobID),
			zap.String("status", j.Status),
		)
		return nil
	}

	exec, err := r.registry.Resolve(j.Type)
	if err != nil {
		r.logger.Error("job type has no executor",
			zap.String("job_id", jobID),
			zap.String("job_type", j.Type),
		)
		if claimed, claimErr := r.repo.ClaimPending(ctx, jobID, time.Now().UTC()); claimErr == nil && claimed {
			_ = r.repo.MarkFailed(ctx, jobID, err.Error())
		}
		return nil
	}

	claimed, err := r.repo.ClaimPending(ctx, jobID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !claimed {
		r.logger.Info("job claim lost", zap.String("job_id", jobID))
		return nil
	}

	report := func(progress int, message string) {
		if err := r.repo.UpdateProgress(ctx, jobID, progress, message); err != nil {
			r.logger.Warn("update job progress failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}

	started := time.Now()
	result, execErr := exec.Execute(ctx, *j, report)
	elapsed := time.Since(started)

	switch {
	case execErr == nil:
		if err := r.repo.MarkSucceeded(ctx, jobID, result); err != nil {
			return err
		}
		r.logger.Info("job succeeded",
			zap.String("job_id", jobID),
			zap.String("job_type", j.Type),
			zap.Duration("elapsed", elapsed),
		)
	case errors.Is(execErr, ErrCancelled):
		if err := r.repo.MarkCancelled(ctx, jobID, "cancelled while running"); err != nil {
			return err
		}
		r.logger.Info("job cancelled",
			zap.String("job_id", jobID),
			zap.String("job_type", j.Type),
		)
	default:
		if err := r.repo.MarkFailed(ctx, jobID, execErr.Error()); err != nil {
			return err
		}
		r.logger.Error("job failed",
			zap.String("job_id", jobID),
			zap.String("job_type", j.Type),
			zap.Duration("elapsed", elapsed),
			zap.Error(execErr),
		)
	}

	return nil
}
