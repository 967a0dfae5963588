package payrollrun

import (
	"context"
	"encoding/json"
	"errors"

	"go-payroll/internal/job"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cancelPoller interface {
	IsCancelRequested(ctx context.Context, id string) (bool, error)
}

// ComputeExecutor runs the engine for a queued compute job, relaying job
// progress and honoring cancel requests at engine checkpoints.
type ComputeExecutor struct {
	engine *Engine
	repo   Repository
	jobs   cancelPoller
	logger *zap.Logger
}

func NewComputeExecutor(engine *Engine, repo Repository, jobs cancelPoller, logger ...*zap.Logger) *ComputeExecutor {
	l := zap.L().Named("payrollrun.compute_executor")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.compute_executor")
	}
	return &ComputeExecutor{engine: engine, repo: repo, jobs: jobs, logger: l}
}

func (x *ComputeExecutor) Execute(ctx context.Context, j job.Job, report job.ProgressFunc) (json.RawMessage, error) {
	var payload computeJobPayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return nil, err
	}

	run, err := x.repo.FindByIDAndCompany(ctx, payload.CompanyID, payload.RunID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrollrunerrors.ErrRunNotFound
		}
		return nil, err
	}
	if run.Status != StatusDraft && run.Status != StatusComputed {
		return nil, payrollrunerrors.ErrComputeOnlyDraft
	}

	summary, err := x.engine.Execute(ctx, *run, ExecuteOptions{
		Progress: report,
		Cancelled: func(ctx context.Context) (bool, error) {
			return x.jobs.IsCancelRequested(ctx, j.ID.String())
		},
	})
	if err != nil {
		if errors.Is(err, ErrComputeCancelled) {
			x.logger.Info("compute cancelled",
				zap.String("run_id", payload.RunID),
				zap.String("job_id", j.ID.String()),
			)
			return nil, job.ErrCancelled
		}
		return nil, err
	}

	return json.Marshal(summary)
}
