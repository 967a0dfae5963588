package payrollrun_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-payroll/internal/adjustment"
	"go-payroll/internal/company"
	"go-payroll/internal/employee"
	"go-payroll/internal/payrollrun"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"
	"go-payroll/internal/statutory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

type fakeRunRepository struct {
	withTxFn             func(tx *sql.Tx) payrollrun.Repository
	createFn             func(ctx context.Context, run *payrollrun.PayrollRun) error
	findByIDFn           func(ctx context.Context, companyID, id string) (*payrollrun.PayrollRun, error)
	findByPeriodFn       func(ctx context.Context, companyID, periodKey, code string) (*payrollrun.PayrollRun, error)
	listByCompanyFn      func(ctx context.Context, companyID string, filter payrollrun.RunQueryFilter) ([]payrollrun.PayrollRun, error)
	updateFn             func(ctx context.Context, run *payrollrun.PayrollRun) error
	deleteFn             func(ctx context.Context, companyID, id string) error
	updateStatusIfFn     func(ctx context.Context, id, fromStatus string, apply map[string]any) (bool, error)
	createRowsFn         func(ctx context.Context, rows []payrollrun.PayrollRow) error
	deleteRowsByRunFn    func(ctx context.Context, runID string) error
	listRowsByRunFn      func(ctx context.Context, companyID, runID string) ([]payrollrun.PayrollRow, error)
	findRowFn            func(ctx context.Context, companyID, runID, employeeID string) (*payrollrun.PayrollRow, error)
	updateRowSnapshotsFn func(ctx context.Context, rows []payrollrun.PayrollRow) error
	clearRowSnapshotsFn  func(ctx context.Context, runID string) error
	createHistoryRowsFn  func(ctx context.Context, rows []payrollrun.PayrollHistory) error
	deleteHistoryFn      func(ctx context.Context, runID string) error
	sumExemptibleYTDFn   func(ctx context.Context, companyID, employeeID string, year int, excludeRunID string) (decimal.Decimal, error)
}

func (f *fakeRunRepository) WithTx(tx *sql.Tx) payrollrun.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRunRepository) Create(ctx context.Context, run *payrollrun.PayrollRun) error {
	if f.createFn != nil {
		return f.createFn(ctx, run)
	}
	return nil
}

func (f *fakeRunRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*payrollrun.PayrollRun, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepository) FindByPeriod(ctx context.Context, companyID, periodKey, code string) (*payrollrun.PayrollRun, error) {
	if f.findByPeriodFn != nil {
		return f.findByPeriodFn(ctx, companyID, periodKey, code)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepository) ListByCompany(ctx context.Context, companyID string, filter payrollrun.RunQueryFilter) ([]payrollrun.PayrollRun, error) {
	if f.listByCompanyFn != nil {
		return f.listByCompanyFn(ctx, companyID, filter)
	}
	return nil, nil
}

func (f *fakeRunRepository) Update(ctx context.Context, run *payrollrun.PayrollRun) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, run)
	}
	return nil
}

func (f *fakeRunRepository) Delete(ctx context.Context, companyID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, companyID, id)
	}
	return nil
}

func (f *fakeRunRepository) UpdateStatusIf(ctx context.Context, id, fromStatus string, apply map[string]any) (bool, error) {
	if f.updateStatusIfFn != nil {
		return f.updateStatusIfFn(ctx, id, fromStatus, apply)
	}
	return true, nil
}

func (f *fakeRunRepository) CreateRows(ctx context.Context, rows []payrollrun.PayrollRow) error {
	if f.createRowsFn != nil {
		return f.createRowsFn(ctx, rows)
	}
	return nil
}

func (f *fakeRunRepository) DeleteRowsByRun(ctx context.Context, runID string) error {
	if f.deleteRowsByRunFn != nil {
		return f.deleteRowsByRunFn(ctx, runID)
	}
	return nil
}

func (f *fakeRunRepository) ListRowsByRun(ctx context.Context, companyID, runID string) ([]payrollrun.PayrollRow, error) {
	if f.listRowsByRunFn != nil {
		return f.listRowsByRunFn(ctx, companyID, runID)
	}
	return nil, nil
}

func (f *fakeRunRepository) FindRow(ctx context.Context, companyID, runID, employeeID string) (*payrollrun.PayrollRow, error) {
	if f.findRowFn != nil {
		return f.findRowFn(ctx, companyID, runID, employeeID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepository) UpdateRowSnapshots(ctx context.Context, rows []payrollrun.PayrollRow) error {
	if f.updateRowSnapshotsFn != nil {
		return f.updateRowSnapshotsFn(ctx, rows)
	}
	return nil
}

func (f *fakeRunRepository) ClearRowSnapshotsByRun(ctx context.Context, runID string) error {
	if f.clearRowSnapshotsFn != nil {
		return f.clearRowSnapshotsFn(ctx, runID)
	}
	return nil
}

func (f *fakeRunRepository) CreateHistoryRows(ctx context.Context, rows []payrollrun.PayrollHistory) error {
	if f.createHistoryRowsFn != nil {
		return f.createHistoryRowsFn(ctx, rows)
	}
	return nil
}

func (f *fakeRunRepository) DeleteHistoryByRun(ctx context.Context, runID string) error {
	if f.deleteHistoryFn != nil {
		return f.deleteHistoryFn(ctx, runID)
	}
	return nil
}

func (f *fakeRunRepository) SumExemptibleYTD(ctx context.Context, companyID, employeeID string, year int, excludeRunID string) (decimal.Decimal, error) {
	if f.sumExemptibleYTDFn != nil {
		return f.sumExemptibleYTDFn(ctx, companyID, employeeID, year, excludeRunID)
	}
	return decimal.Zero, nil
}

type fakeRoster struct {
	profiles []employee.PayProfile
}

func (f *fakeRoster) Roster(ctx context.Context, companyID string, asOf time.Time) ([]employee.PayProfile, error) {
	return f.profiles, nil
}

type fakeProfiles struct {
	profile company.Profile
}

func (f *fakeProfiles) ResolveProfile(ctx context.Context, companyID string) (company.Profile, error) {
	return f.profile, nil
}

type fakeTables struct {
	tables statutory.Tables
}

func (f *fakeTables) ResolveOrProvision(ctx context.Context, country string, asOf time.Time) (statutory.Tables, error) {
	return f.tables, nil
}

type fakeAdjustments struct {
	items   map[string][]adjustment.Item
	lastKey string
}

func (f *fakeAdjustments) ResolvePeriod(ctx context.Context, companyID, periodKey string) (map[string][]adjustment.Item, error) {
	f.lastKey = periodKey
	return f.items, nil
}

func engineTables() statutory.Tables {
	return statutory.Tables{
		Version: statutory.StatutoryVersion{ID: uuid.New(), Country: "PH", Status: statutory.StatusPublished},
		SSSBrackets: []statutory.ContributionBracket{
			{Scheme: statutory.SchemeSSS, CompensationMin: dec("0"), CompensationMax: decPtr("10000"), EmployeeAmount: dec("500"), EmployerAmount: dec("1000")},
			{Scheme: statutory.SchemeSSS, CompensationMin: dec("10000"), EmployeeAmount: dec("1000"), EmployerAmount: dec("2000")},
		},
		TaxTables: map[string][]statutory.TaxBracket{
			statutory.FrequencyMonthly: {
				{PayFrequency: statutory.FrequencyMonthly, Threshold: dec("0"), BaseTax: dec("0"), Rate: dec("0")},
				{PayFrequency: statutory.FrequencyMonthly, Threshold: dec("20833"), BaseTax: dec("0"), Rate: dec("0.15")},
			},
			statutory.FrequencySemiMonthly: {
				{PayFrequency: statutory.FrequencySemiMonthly, Threshold: dec("0"), BaseTax: dec("0"), Rate: dec("0")},
				{PayFrequency: statutory.FrequencySemiMonthly, Threshold: dec("10417"), BaseTax: dec("0"), Rate: dec("0.15")},
			},
		},
	}
}

type engineDeps struct {
	db          *sql.DB
	sqlMock     sqlmock.Sqlmock
	repo        *fakeRunRepository
	roster      *fakeRoster
	adjustments *fakeAdjustments
	engine      *payrollrun.Engine
}

func setupEngineTest(t *testing.T, profiles []employee.PayProfile) *engineDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRunRepository{}
	roster := &fakeRoster{profiles: profiles}
	adjustments := &fakeAdjustments{items: map[string][]adjustment.Item{}}

	engine := payrollrun.NewEngine(
		db,
		repo,
		roster,
		&fakeProfiles{profile: company.DefaultProfile(uuid.New(), "Acme PH")},
		&fakeTables{tables: engineTables()},
		adjustments,
	)

	return &engineDeps{db: db, sqlMock: sqlMock, repo: repo, roster: roster, adjustments: adjustments, engine: engine}
}

func monthlyRun(companyID uuid.UUID) payrollrun.PayrollRun {
	return payrollrun.PayrollRun{
		ID:        uuid.New(),
		CompanyID: companyID,
		PeriodKey: "2025-06",
		Code:      payrollrun.CodeMonthly,
		Status:    payrollrun.StatusDraft,
	}
}

func TestEngineExecute_MonthlyNetPay(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: employeeID, FullName: "Ana Cruz", EmployeeNo: "EMP-000001", MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	deps.adjustments.items[employeeID.String()] = []adjustment.Item{
		{Name: "SSS Loan", Category: adjustment.CategoryDeduction, Amount: dec("500")},
	}

	var saved []payrollrun.PayrollRow
	deps.repo.createRowsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
		saved = rows
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	summary, err := deps.engine.Execute(context.Background(), monthlyRun(companyID), payrollrun.ExecuteOptions{})

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.EmployeeCount)
	assert.Len(t, saved, 1)

	row := saved[0]
	// employee statutory: SSS 1000 + PhilHealth 625 + Pag-IBIG 200 = 1825
	assert.True(t, row.SSSEmployee.Equal(dec("1000")), "sss %s", row.SSSEmployee)
	assert.True(t, row.PhilHealthEmployee.Equal(dec("625")), "philhealth %s", row.PhilHealthEmployee)
	assert.True(t, row.PagIbigEmployee.Equal(dec("200")), "pagibig %s", row.PagIbigEmployee)

	// taxable 25000 - 1825 = 23175; tax (23175 - 20833) * 0.15 = 351.30
	assert.True(t, row.TaxablePay.Equal(dec("23175")), "taxable %s", row.TaxablePay)
	assert.True(t, row.WithholdingTax.Equal(dec("351.30")), "tax %s", row.WithholdingTax)

	// net 25000 - 1825 - 351.30 - 500 = 22323.70
	assert.True(t, row.GrossPay.Equal(dec("25000")), "gross %s", row.GrossPay)
	assert.True(t, row.NetPay.Equal(dec("22323.70")), "net %s", row.NetPay)

	assert.True(t, summary.TotalEmployer.Equal(dec("2825")), "employer %s", summary.TotalEmployer)
}

func TestEngineExecute_FirstHalfSkipsContributions(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: employeeID, MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	var saved []payrollrun.PayrollRow
	deps.repo.createRowsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
		saved = rows
		return nil
	}

	run := monthlyRun(companyID)
	run.Code = payrollrun.CodeFirstHalf

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	_, err := deps.engine.Execute(context.Background(), run, payrollrun.ExecuteOptions{})

	assert.NoError(t, err)
	assert.Len(t, saved, 1)

	row := saved[0]
	assert.True(t, row.BasicPay.Equal(dec("12500")), "basic %s", row.BasicPay)
	assert.True(t, row.SSSEmployee.IsZero())
	assert.True(t, row.PhilHealthEmployee.IsZero())
	// semi-monthly table: (12500 - 10417) * 0.15 = 312.45
	assert.True(t, row.WithholdingTax.Equal(dec("312.45")), "tax %s", row.WithholdingTax)
	assert.True(t, row.NetPay.Equal(dec("12187.55")), "net %s", row.NetPay)
}

func TestEngineExecute_SemiMonthlyHalvesSumToMonthlyRate(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()

	rate := dec("25000.55")
	var basics []decimal.Decimal
	for _, code := range []string{payrollrun.CodeFirstHalf, payrollrun.CodeSecondHalf} {
		deps := setupEngineTest(t, []employee.PayProfile{{EmployeeID: employeeID, MonthlyRate: rate}})

		var saved []payrollrun.PayrollRow
		deps.repo.createRowsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
			saved = rows
			return nil
		}

		run := monthlyRun(companyID)
		run.Code = code

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		_, err := deps.engine.Execute(context.Background(), run, payrollrun.ExecuteOptions{})
		assert.NoError(t, err)
		assert.Len(t, saved, 1)
		basics = append(basics, saved[0].BasicPay)
		deps.db.Close()
	}

	assert.True(t, basics[0].Add(basics[1]).Equal(rate), "halves %s + %s", basics[0], basics[1])
}

func TestEngineExecute_SpecialRunPaysAdjustmentsOnly(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: employeeID, MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	deps.adjustments.items[employeeID.String()] = []adjustment.Item{
		{Name: "13th Month", Category: adjustment.CategoryBenefit, Amount: dec("25000")},
	}

	var saved []payrollrun.PayrollRow
	deps.repo.createRowsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
		saved = rows
		return nil
	}

	run := monthlyRun(companyID)
	run.Code = payrollrun.CodeSpecial

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	_, err := deps.engine.Execute(context.Background(), run, payrollrun.ExecuteOptions{})

	assert.NoError(t, err)
	assert.Len(t, saved, 1)
	// Adjustments for a special run live under the bare month key, shared
	// with the monthly run.
	assert.Equal(t, "2025-06", deps.adjustments.lastKey)

	row := saved[0]
	assert.True(t, row.BasicPay.IsZero())
	assert.True(t, row.SSSEmployee.IsZero())
	assert.True(t, row.GrossPay.Equal(dec("25000")), "gross %s", row.GrossPay)
	// fully under the annual ceiling: nothing taxable
	assert.True(t, row.TaxablePay.IsZero(), "taxable %s", row.TaxablePay)
	assert.True(t, row.NetPay.Equal(dec("25000")), "net %s", row.NetPay)
	assert.True(t, row.Benefits.Equal(dec("25000")))
}

func TestEngineExecute_ExemptionCeilingSpillsToTaxable(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: employeeID, MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	deps.adjustments.items[employeeID.String()] = []adjustment.Item{
		{Name: "Rice Subsidy", Category: adjustment.CategoryDeMinimis, Amount: dec("2000")},
	}
	// 89000 already posted this year leaves only 1000 of headroom.
	deps.repo.sumExemptibleYTDFn = func(ctx context.Context, cid, eid string, year int, exclude string) (decimal.Decimal, error) {
		assert.Equal(t, 2025, year)
		return dec("89000"), nil
	}

	var saved []payrollrun.PayrollRow
	deps.repo.createRowsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
		saved = rows
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	_, err := deps.engine.Execute(context.Background(), monthlyRun(companyID), payrollrun.ExecuteOptions{})

	assert.NoError(t, err)
	assert.Len(t, saved, 1)

	row := saved[0]
	assert.True(t, row.GrossPay.Equal(dec("27000")), "gross %s", row.GrossPay)
	// taxable 25000 + 1000 spill - 1825 contributions = 24175
	assert.True(t, row.TaxablePay.Equal(dec("24175")), "taxable %s", row.TaxablePay)
	assert.True(t, row.DeMinimis.Equal(dec("2000")))
}

func TestEngineExecute_ConcurrentTransitionFailsBusy(t *testing.T) {
	companyID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: uuid.New(), MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	deps.repo.updateStatusIfFn = func(ctx context.Context, id, fromStatus string, apply map[string]any) (bool, error) {
		return false, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	_, err := deps.engine.Execute(context.Background(), monthlyRun(companyID), payrollrun.ExecuteOptions{})

	assert.ErrorIs(t, err, payrollrunerrors.ErrRunBusy)
}

func TestEngineExecute_CancelRequestAbortsComputation(t *testing.T) {
	companyID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: uuid.New(), MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	_, err := deps.engine.Execute(context.Background(), monthlyRun(companyID), payrollrun.ExecuteOptions{
		Cancelled: func(ctx context.Context) (bool, error) { return true, nil },
	})

	assert.ErrorIs(t, err, payrollrun.ErrComputeCancelled)
}

func TestEngineExecute_ComponentsCarrySchemaVersion(t *testing.T) {
	companyID := uuid.New()
	employeeID := uuid.New()

	deps := setupEngineTest(t, []employee.PayProfile{
		{EmployeeID: employeeID, MonthlyRate: dec("25000")},
	})
	defer deps.db.Close()

	var saved []payrollrun.PayrollRow
	deps.repo.createRowsFn = func(ctx context.Context, rows []payrollrun.PayrollRow) error {
		saved = rows
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	_, err := deps.engine.Execute(context.Background(), monthlyRun(companyID), payrollrun.ExecuteOptions{})

	assert.NoError(t, err)
	assert.Len(t, saved, 1)

	var doc payrollrun.ComponentDoc
	assert.NoError(t, json.Unmarshal(saved[0].Components, &doc))
	assert.Equal(t, payrollrun.ComponentSchemaVersion, doc.SchemaVersion)
	assert.Equal(t, "Basic Pay", doc.Items[0].Name)
	assert.Equal(t, payrollrun.ComponentKindEarning, doc.Items[0].Kind)
	assert.Equal(t, "Withholding Tax", doc.Items[len(doc.Items)-1].Name)
}
