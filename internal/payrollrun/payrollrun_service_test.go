package payrollrun_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-payroll/internal/adjustment"
	"go-payroll/internal/job"
	"go-payroll/internal/payrollrun"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeJobService struct {
	submitFn       func(ctx context.Context, companyID string, req job.SubmitRequest) (job.JobResponse, error)
	cancelActiveFn func(ctx context.Context, companyID, dedupKey string) error
}

func (f *fakeJobService) Submit(ctx context.Context, companyID string, req job.SubmitRequest) (job.JobResponse, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, companyID, req)
	}
	return job.JobResponse{ID: uuid.NewString(), Type: req.Type, Status: job.StatusPending}, nil
}

func (f *fakeJobService) GetByID(ctx context.Context, companyID, id string) (job.JobResponse, error) {
	return job.JobResponse{}, nil
}

func (f *fakeJobService) GetAll(ctx context.Context, companyID string) ([]job.JobResponse, error) {
	return nil, nil
}

func (f *fakeJobService) Cancel(ctx context.Context, companyID, id string) (job.JobResponse, error) {
	return job.JobResponse{}, nil
}

func (f *fakeJobService) CancelActive(ctx context.Context, companyID, dedupKey string) error {
	if f.cancelActiveFn != nil {
		return f.cancelActiveFn(ctx, companyID, dedupKey)
	}
	return nil
}

type fakeResolver struct {
	items map[string][]adjustment.Item
}

func (f *fakeResolver) ResolvePeriod(ctx context.Context, companyID, periodKey string) (map[string][]adjustment.Item, error) {
	return f.items, nil
}

type runServiceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	repo     *fakeRunRepository
	jobs     *fakeJobService
	resolver *fakeResolver
	service  payrollrun.Service
}

func setupRunServiceTest(t *testing.T) *runServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRunRepository{}
	jobs := &fakeJobService{}
	resolver := &fakeResolver{items: map[string][]adjustment.Item{}}
	svc := payrollrun.NewService(db, repo, jobs, resolver)

	return &runServiceDeps{db: db, sqlMock: sqlMock, repo: repo, jobs: jobs, resolver: resolver, service: svc}
}

func storedRun(companyID uuid.UUID, status string) *payrollrun.PayrollRun {
	return &payrollrun.PayrollRun{
		ID:        uuid.New(),
		CompanyID: companyID,
		PeriodKey: "2025-06",
		Code:      payrollrun.CodeMonthly,
		Status:    status,
		CreatedBy: uuid.New(),
	}
}

func TestCreateRun_RejectsBadPeriod(t *testing.T) {
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.Create(context.Background(), uuid.NewString(), uuid.NewString(), payrollrun.CreateRunRequest{
		PeriodKey: "June 2025",
		Code:      payrollrun.CodeMonthly,
	})

	assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidPeriod)
}

func TestCreateRun_RejectsUnknownCode(t *testing.T) {
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.Create(context.Background(), uuid.NewString(), uuid.NewString(), payrollrun.CreateRunRequest{
		PeriodKey: "2025-06",
		Code:      "C",
	})

	assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidCode)
}

func TestCreateRun_StartsAsDraft(t *testing.T) {
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	var created *payrollrun.PayrollRun
	deps.repo.createFn = func(ctx context.Context, run *payrollrun.PayrollRun) error {
		created = run
		return nil
	}

	resp, err := deps.service.Create(context.Background(), uuid.NewString(), uuid.NewString(), payrollrun.CreateRunRequest{
		PeriodKey: "2025-06",
		Code:      payrollrun.CodeFirstHalf,
	})

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusDraft, resp.Status)
	assert.Equal(t, payrollrun.StatusDraft, created.Status)
}

func TestCompute_SubmitsDedupedJob(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusDraft)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	var submitted job.SubmitRequest
	deps.jobs.submitFn = func(ctx context.Context, cid string, req job.SubmitRequest) (job.JobResponse, error) {
		submitted = req
		return job.JobResponse{ID: uuid.NewString(), Type: req.Type, Status: job.StatusPending}, nil
	}

	resp, err := deps.service.Compute(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.JobTypeCompute, resp.Type)
	assert.Equal(t, payrollrun.JobTypeCompute, submitted.Type)
	assert.Equal(t, "compute:"+run.ID.String(), submitted.DedupKey)
}

func TestCompute_AllowedFromComputedForRecompute(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.Compute(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.NoError(t, err)
}

func TestCompute_RejectedOnceApproved(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusApproved)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.Compute(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrComputeOnlyDraft)
}

func TestApprove_SnapshotsAdjustmentsIntoRows(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.repo.listRowsByRunFn = func(ctx context.Context, cid, runID string) ([]payrollrun.PayrollRow, error) {
		return []payrollrun.PayrollRow{{
			ID:             uuid.New(),
			RunID:          run.ID,
			CompanyID:      companyID,
			EmployeeID:     employeeID,
			InputsSnapshot: []byte(`{"monthly_rate":"25000"}`),
		}}, nil
	}
	deps.resolver.items[employeeID.String()] = []adjustment.Item{
		{Name: "Overtime", Category: adjustment.CategoryOvertime, Amount: dec("1200")},
	}

	var snapshots []payrollrun.PayrollRow
	deps.repo.updateRowSnapshotsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
		snapshots = rows
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.Approve(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusApproved, resp.Status)
	assert.Len(t, snapshots, 1)

	var snapshot map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(snapshots[0].InputsSnapshot, &snapshot))
	assert.Contains(t, snapshot, "monthly_rate")
	assert.Contains(t, snapshot, "adjustments")

	var items []adjustment.Item
	assert.NoError(t, json.Unmarshal(snapshot["adjustments"], &items))
	assert.Len(t, items, 1)
	assert.Equal(t, "Overtime", items[0].Name)
}

func TestApprove_RejectsDraftRun(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusDraft)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.Approve(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrApproveOnlyComputed)
}

func TestApprove_LosingStatusRaceFails(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.repo.updateStatusIfFn = func(ctx context.Context, id, fromStatus string, apply map[string]any) (bool, error) {
		return false, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	_, err := deps.service.Approve(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrApproveOnlyComputed)
}

func TestPost_CopiesRowsIntoHistory(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusApproved)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.repo.listRowsByRunFn = func(ctx context.Context, cid, runID string) ([]payrollrun.PayrollRow, error) {
		return []payrollrun.PayrollRow{{
			RunID:      run.ID,
			CompanyID:  companyID,
			EmployeeID: employeeID,
			GrossPay:   dec("25000"),
			TaxablePay: dec("23175"),
			NetPay:     dec("22323.70"),
			DeMinimis:  dec("2000"),
		}}, nil
	}

	var history []payrollrun.PayrollHistory
	deps.repo.createHistoryRowsFn = func(ctx context.Context, rows []payrollrun.PayrollHistory) error {
		history = rows
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.Post(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusPosted, resp.Status)
	assert.NotNil(t, resp.PostedAt)
	assert.Len(t, history, 1)
	assert.Equal(t, run.PeriodKey, history[0].PeriodKey)
	assert.Equal(t, run.Code, history[0].Code)
	assert.True(t, history[0].DeMinimis.Equal(dec("2000")))
}

func TestPost_RejectsComputedRun(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.Post(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrPostOnlyApproved)
}

func TestUnpost_RestoresApprovedAndDropsHistory(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	now := time.Now().UTC()
	poster := uuid.New()
	run := storedRun(companyID, payrollrun.StatusPosted)
	run.PostedBy = &poster
	run.PostedAt = &now
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	var deletedHistoryFor string
	deps.repo.deleteHistoryFn = func(ctx context.Context, runID string) error {
		deletedHistoryFor = runID
		return nil
	}

	var clearedSnapshotsFor string
	deps.repo.clearRowSnapshotsFn = func(ctx context.Context, runID string) error {
		clearedSnapshotsFor = runID
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.Unpost(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusApproved, resp.Status)
	assert.Nil(t, resp.PostedAt)
	assert.Equal(t, run.ID.String(), deletedHistoryFor)
	// A later approval rebuilds its snapshot from scratch, not on top of the
	// one taken before posting.
	assert.Equal(t, run.ID.String(), clearedSnapshotsFor)
}

func TestUnpost_RejectsUnpostedRun(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusApproved)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.Unpost(context.Background(), companyID.String(), uuid.NewString(), run.ID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrUnpostOnlyPosted)
}

func TestDelete_RefusesPostedRun(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusPosted)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	err := deps.service.Delete(context.Background(), companyID.String(), run.ID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrDeleteOnlyUnposted)
}

func TestDelete_CancelsActiveComputeJob(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	var cancelledKey string
	deps.jobs.cancelActiveFn = func(ctx context.Context, cid, dedupKey string) error {
		cancelledKey = dedupKey
		return nil
	}

	var rowsDeleted, runDeleted bool
	deps.repo.deleteRowsByRunFn = func(ctx context.Context, runID string) error {
		rowsDeleted = true
		return nil
	}
	deps.repo.deleteFn = func(ctx context.Context, cid, id string) error {
		runDeleted = true
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	err := deps.service.Delete(context.Background(), companyID.String(), run.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, "compute:"+run.ID.String(), cancelledKey)
	assert.True(t, rowsDeleted)
	assert.True(t, runDeleted)
}

func TestGeneratePayslip_RendersPDF(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	components, err := json.Marshal(payrollrun.ComponentDoc{
		SchemaVersion: payrollrun.ComponentSchemaVersion,
		Items: []payrollrun.Component{
			{Name: "Basic Pay", Kind: payrollrun.ComponentKindEarning, Amount: dec("25000")},
			{Name: "Withholding Tax", Kind: payrollrun.ComponentKindTax, Amount: dec("351.30")},
		},
	})
	assert.NoError(t, err)

	deps.repo.findRowFn = func(ctx context.Context, cid, runID, eid string) (*payrollrun.PayrollRow, error) {
		return &payrollrun.PayrollRow{
			RunID:      run.ID,
			CompanyID:  companyID,
			EmployeeID: employeeID,
			GrossPay:   dec("25000"),
			NetPay:     dec("22323.70"),
			Components: components,
		}, nil
	}

	pdf, err := deps.service.GeneratePayslip(context.Background(), companyID.String(), run.ID.String(), employeeID.String())

	assert.NoError(t, err)
	assert.True(t, len(pdf) > 0)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestGeneratePayslip_MissingRowFails(t *testing.T) {
	companyID := uuid.New()
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := storedRun(companyID, payrollrun.StatusComputed)
	deps.repo.findByIDFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.GeneratePayslip(context.Background(), companyID.String(), run.ID.String(), uuid.NewString())

	assert.ErrorIs(t, err, payrollrunerrors.ErrRowNotFound)
}

func TestGetByID_MissingRunFails(t *testing.T) {
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetByID(context.Background(), uuid.NewString(), uuid.NewString())

	assert.ErrorIs(t, err, payrollrunerrors.ErrRunNotFound)
}
