package payrollrun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-payroll/internal/adjustment"
	"go-payroll/internal/job"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/period"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobTypeCompute is the queued job that executes the computation engine.
const JobTypeCompute = "payroll_run.compute"

func computeDedupKey(runID string) string {
	return "compute:" + runID
}

type adjustmentResolver interface {
	ResolvePeriod(ctx context.Context, companyID, periodKey string) (map[string][]adjustment.Item, error)
}

//go:generate mockgen -source=payrollrun_service.go -destination=mock/payrollrun_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateRunRequest) (RunResponse, error)
	GetAll(ctx context.Context, companyID string, filter RunQueryFilter) ([]RunResponse, error)
	GetByID(ctx context.Context, companyID, id string) (RunDetailResponse, error)

	Compute(ctx context.Context, companyID, actorID, id string) (job.JobResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	Post(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	Unpost(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	Delete(ctx context.Context, companyID, id string) error

	GeneratePayslip(ctx context.Context, companyID, runID, employeeID string) ([]byte, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	jobs        job.Service
	adjustments adjustmentResolver
	logger      *zap.Logger
}

func NewService(db *sql.DB, repo Repository, jobs job.Service, adjustments adjustmentResolver, logger ...*zap.Logger) Service {
	l := zap.L().Named("payrollrun.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.service")
	}
	return &service{db: db, repo: repo, jobs: jobs, adjustments: adjustments, logger: l}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateRunRequest) (RunResponse, error) {
	if _, err := period.ParseMonth(req.PeriodKey); err != nil {
		return RunResponse{}, payrollrunerrors.ErrInvalidPeriod
	}
	if !validCode(req.Code) {
		return RunResponse{}, payrollrunerrors.ErrInvalidCode
	}

	run := &PayrollRun{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		PeriodKey: req.PeriodKey,
		Code:      req.Code,
		Status:    StatusDraft,
		CreatedBy: uuid.MustParse(actorID),
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("payroll run created",
		zap.String("run_id", run.ID.String()),
		zap.String("period_key", run.PeriodKey),
		zap.String("code", run.Code),
	)

	return mapRunResponse(*run), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, filter RunQueryFilter) ([]RunResponse, error) {
	runs, err := s.repo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]RunResponse, len(runs))
	for i, run := range runs {
		resp[i] = mapRunResponse(run)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (RunDetailResponse, error) {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return RunDetailResponse{}, err
	}

	rows, err := s.repo.ListRowsByRun(ctx, companyID, id)
	if err != nil {
		return RunDetailResponse{}, err
	}

	return mapRunDetailResponse(*run, rows), nil
}

// Compute queues the computation job. The dedup key collapses repeated
// clicks onto one active job per run.
func (s *service) Compute(ctx context.Context, companyID, actorID, id string) (job.JobResponse, error) {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return job.JobResponse{}, err
	}
	if run.Status != StatusDraft && run.Status != StatusComputed {
		return job.JobResponse{}, payrollrunerrors.ErrComputeOnlyDraft
	}

	return s.jobs.Submit(ctx, companyID, job.SubmitRequest{
		Type:        JobTypeCompute,
		DedupKey:    computeDedupKey(id),
		Payload:     computeJobPayload{RunID: id, CompanyID: companyID},
		SubmittedBy: actorID,
	})
}

// Approve locks the run and snapshots the adjustment inputs into its rows so
// later edits to adjustments cannot silently drift from what was approved.
func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}
	if run.Status != StatusComputed {
		return RunResponse{}, payrollrunerrors.ErrApproveOnlyComputed
	}

	items, err := s.adjustments.ResolvePeriod(ctx, companyID, period.Key(run.PeriodKey, run.Code))
	if err != nil {
		return RunResponse{}, err
	}

	rows, err := s.repo.ListRowsByRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}
	for i := range rows {
		snapshot, err := mergeAdjustmentSnapshot(rows[i].InputsSnapshot, items[rows[i].EmployeeID.String()])
		if err != nil {
			return RunResponse{}, err
		}
		rows[i].InputsSnapshot = snapshot
	}

	approver := uuid.MustParse(actorID)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	updated, err := qtx.UpdateStatusIf(ctx, id, StatusComputed, map[string]any{
		"status":      StatusApproved,
		"approved_by": approver,
		"approved_at": now,
	})
	if err != nil {
		return RunResponse{}, err
	}
	if !updated {
		return RunResponse{}, payrollrunerrors.ErrApproveOnlyComputed
	}

	if err := qtx.UpdateRowSnapshots(ctx, rows); err != nil {
		return RunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return RunResponse{}, err
	}

	s.logger.Info("payroll run approved",
		zap.String("request_id", rid),
		zap.String("run_id", id),
		zap.String("approved_by", actorID),
	)

	run.Status = StatusApproved
	run.ApprovedBy = &approver
	run.ApprovedAt = &now
	return mapRunResponse(*run), nil
}

// Post copies the run's rows into immutable history and flips the status.
// Both happen in one transaction so the history can never half-exist.
func (s *service) Post(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}
	if run.Status != StatusApproved {
		return RunResponse{}, payrollrunerrors.ErrPostOnlyApproved
	}

	rows, err := s.repo.ListRowsByRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}

	poster := uuid.MustParse(actorID)
	now := time.Now().UTC()

	history := make([]PayrollHistory, len(rows))
	for i, row := range rows {
		history[i] = PayrollHistory{
			ID:         uuid.New(),
			RunID:      row.RunID,
			CompanyID:  row.CompanyID,
			EmployeeID: row.EmployeeID,
			PeriodKey:  run.PeriodKey,
			Code:       run.Code,
			GrossPay:   row.GrossPay,
			TaxablePay: row.TaxablePay,
			NetPay:     row.NetPay,
			DeMinimis:  row.DeMinimis,
			Benefits:   row.Benefits,
			PostedAt:   now,
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	updated, err := qtx.UpdateStatusIf(ctx, id, StatusApproved, map[string]any{
		"status":    StatusPosted,
		"posted_by": poster,
		"posted_at": now,
	})
	if err != nil {
		return RunResponse{}, err
	}
	if !updated {
		return RunResponse{}, payrollrunerrors.ErrPostOnlyApproved
	}

	if err := qtx.CreateHistoryRows(ctx, history); err != nil {
		return RunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return RunResponse{}, err
	}

	s.logger.Info("payroll run posted",
		zap.String("run_id", id),
		zap.String("posted_by", actorID),
		zap.Int("history_rows", len(history)),
	)

	run.Status = StatusPosted
	run.PostedBy = &poster
	run.PostedAt = &now
	return mapRunResponse(*run), nil
}

// Unpost reverses posting: the history rows vanish, the row snapshots taken
// at approval are cleared, and the run drops back to APPROVED, from where it
// can be re-approved or posted again. All of it in one transaction.
func (s *service) Unpost(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}
	if run.Status != StatusPosted {
		return RunResponse{}, payrollrunerrors.ErrUnpostOnlyPosted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	updated, err := qtx.UpdateStatusIf(ctx, id, StatusPosted, map[string]any{
		"status":    StatusApproved,
		"posted_by": nil,
		"posted_at": nil,
	})
	if err != nil {
		return RunResponse{}, err
	}
	if !updated {
		return RunResponse{}, payrollrunerrors.ErrUnpostOnlyPosted
	}

	if err := qtx.DeleteHistoryByRun(ctx, id); err != nil {
		return RunResponse{}, err
	}

	// Stale snapshots would otherwise leak into the next approval's merge.
	if err := qtx.ClearRowSnapshotsByRun(ctx, id); err != nil {
		return RunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return RunResponse{}, err
	}

	s.logger.Info("payroll run unposted",
		zap.String("run_id", id),
		zap.String("unposted_by", actorID),
	)

	run.Status = StatusApproved
	run.PostedBy = nil
	run.PostedAt = nil
	return mapRunResponse(*run), nil
}

// Delete removes a run and its rows. Posted runs must be unposted first; an
// in-flight compute job for the run is cancelled.
func (s *service) Delete(ctx context.Context, companyID, id string) error {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return err
	}
	if run.Status == StatusPosted {
		return payrollrunerrors.ErrDeleteOnlyUnposted
	}

	if err := s.jobs.CancelActive(ctx, companyID, computeDedupKey(id)); err != nil {
		s.logger.Warn("cancel active compute job failed",
			zap.String("run_id", id),
			zap.Error(err),
		)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.DeleteRowsByRun(ctx, id); err != nil {
		return err
	}
	if err := qtx.Delete(ctx, companyID, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("payroll run deleted", zap.String("run_id", id))
	return nil
}

func (s *service) GeneratePayslip(ctx context.Context, companyID, runID, employeeID string) ([]byte, error) {
	run, err := s.findRun(ctx, companyID, runID)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.FindRow(ctx, companyID, runID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrollrunerrors.ErrRowNotFound
		}
		return nil, err
	}

	return renderPayslip(*run, *row)
}

func (s *service) findRun(ctx context.Context, companyID, id string) (*PayrollRun, error) {
	run, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrollrunerrors.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func validCode(code string) bool {
	switch code {
	case CodeFirstHalf, CodeSecondHalf, CodeMonthly, CodeSpecial:
		return true
	}
	return false
}

type computeJobPayload struct {
	RunID     string `json:"run_id"`
	CompanyID string `json:"company_id"`
}

func mergeAdjustmentSnapshot(existing []byte, items []adjustment.Item) ([]byte, error) {
	snapshot := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &snapshot); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []adjustment.Item{}
	}
	snapshot["adjustments"] = items
	return json.Marshal(snapshot)
}
