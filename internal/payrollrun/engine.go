package payrollrun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go-payroll/internal/adjustment"
	"go-payroll/internal/company"
	"go-payroll/internal/contribution"
	"go-payroll/internal/employee"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"
	"go-payroll/internal/shared/money"
	"go-payroll/internal/shared/period"
	"go-payroll/internal/statutory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnnualExemptionCeiling caps tax-free de-minimis and benefit amounts per
// employee per calendar year; anything granted beyond it is taxed.
var AnnualExemptionCeiling = decimal.NewFromInt(90000)

// ErrComputeCancelled reports cooperative cancellation mid-run.
var ErrComputeCancelled = errors.New("computation cancelled")

const computeWorkers = 8

type rosterSource interface {
	Roster(ctx context.Context, companyID string, asOf time.Time) ([]employee.PayProfile, error)
}

type profileSource interface {
	ResolveProfile(ctx context.Context, companyID string) (company.Profile, error)
}

type tableSource interface {
	ResolveOrProvision(ctx context.Context, country string, asOf time.Time) (statutory.Tables, error)
}

type adjustmentSource interface {
	ResolvePeriod(ctx context.Context, companyID, periodKey string) (map[string][]adjustment.Item, error)
}

type ExecuteOptions struct {
	Progress  func(progress int, message string)
	Cancelled func(ctx context.Context) (bool, error)
}

type Summary struct {
	EmployeeCount int             `json:"employee_count"`
	TotalGross    decimal.Decimal `json:"total_gross"`
	TotalNet      decimal.Decimal `json:"total_net"`
	TotalEmployer decimal.Decimal `json:"total_employer"`
}

// Engine computes a run: resolve inputs once, fan out per-employee work, and
// replace the run's rows atomically at the end.
type Engine struct {
	db          *sql.DB
	repo        Repository
	roster      rosterSource
	profiles    profileSource
	tables      tableSource
	adjustments adjustmentSource
	logger      *zap.Logger
}

func NewEngine(
	db *sql.DB,
	repo Repository,
	roster rosterSource,
	profiles profileSource,
	tables tableSource,
	adjustments adjustmentSource,
	logger ...*zap.Logger,
) *Engine {
	l := zap.L().Named("payrollrun.engine")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.engine")
	}
	return &Engine{
		db:          db,
		repo:        repo,
		roster:      roster,
		profiles:    profiles,
		tables:      tables,
		adjustments: adjustments,
		logger:      l,
	}
}

func (e *Engine) Execute(ctx context.Context, run PayrollRun, opts ExecuteOptions) (Summary, error) {
	report := opts.Progress
	if report == nil {
		report = func(int, string) {}
	}
	cancelled := opts.Cancelled
	if cancelled == nil {
		cancelled = func(context.Context) (bool, error) { return false, nil }
	}

	companyID := run.CompanyID.String()

	month, err := period.ParseMonth(run.PeriodKey)
	if err != nil {
		return Summary{}, payrollrunerrors.ErrInvalidPeriod
	}
	payDate := period.PayDate(month, run.Code)

	profile, err := e.profiles.ResolveProfile(ctx, companyID)
	if err != nil {
		return Summary{}, err
	}

	tables, err := e.tables.ResolveOrProvision(ctx, profile.Country, payDate)
	if err != nil {
		return Summary{}, err
	}

	roster, err := e.roster.Roster(ctx, companyID, payDate)
	if err != nil {
		return Summary{}, err
	}

	adjustmentsByEmployee, err := e.adjustments.ResolvePeriod(ctx, companyID, period.Key(run.PeriodKey, run.Code))
	if err != nil {
		return Summary{}, err
	}

	report(10, "inputs resolved")

	rows := make([]PayrollRow, len(roster))
	var done int64
	var doneMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(computeWorkers)

	for i, emp := range roster {
		i, emp := i, emp
		g.Go(func() error {
			if i%computeWorkers == 0 {
				stop, err := cancelled(gctx)
				if err != nil {
					return err
				}
				if stop {
					return ErrComputeCancelled
				}
			}

			row, err := e.computeRow(gctx, run, emp, profile, tables, adjustmentsByEmployee[emp.EmployeeID.String()])
			if err != nil {
				return err
			}
			rows[i] = row

			doneMu.Lock()
			done++
			current := done
			doneMu.Unlock()
			if current%50 == 0 {
				report(10+int(current*80/int64(len(roster))), "computing rows")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].EmployeeID.String() < rows[j].EmployeeID.String()
	})

	summary := Summary{
		EmployeeCount: len(rows),
		TotalGross:    decimal.Zero,
		TotalNet:      decimal.Zero,
		TotalEmployer: decimal.Zero,
	}
	for _, row := range rows {
		summary.TotalGross = summary.TotalGross.Add(row.GrossPay)
		summary.TotalNet = summary.TotalNet.Add(row.NetPay)
		summary.TotalEmployer = summary.TotalEmployer.Add(
			row.SSSEmployer.Add(row.PhilHealthEmployer).Add(row.PagIbigEmployer))
	}

	report(95, "persisting rows")

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, err
	}
	defer tx.Rollback()

	qtx := e.repo.WithTx(tx)
	if err := qtx.DeleteRowsByRun(ctx, run.ID.String()); err != nil {
		return Summary{}, err
	}
	if err := qtx.CreateRows(ctx, rows); err != nil {
		return Summary{}, err
	}

	now := time.Now().UTC()
	versionID := tables.Version.ID
	updated, err := qtx.UpdateStatusIf(ctx, run.ID.String(), run.Status, map[string]any{
		"status":           StatusComputed,
		"employee_count":   summary.EmployeeCount,
		"total_gross":      summary.TotalGross,
		"total_net":        summary.TotalNet,
		"total_employer":   summary.TotalEmployer,
		"statutory_ref_id": versionID,
		"computed_at":      now,
	})
	if err != nil {
		return Summary{}, err
	}
	if !updated {
		// The run moved on (approved or deleted) while we were computing.
		return Summary{}, payrollrunerrors.ErrRunBusy
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, err
	}

	e.logger.Info("run computed",
		zap.String("run_id", run.ID.String()),
		zap.String("period_key", run.PeriodKey),
		zap.String("code", run.Code),
		zap.Int("employee_count", summary.EmployeeCount),
		zap.String("total_net", summary.TotalNet.StringFixed(2)),
	)

	return summary, nil
}

func (e *Engine) computeRow(
	ctx context.Context,
	run PayrollRun,
	emp employee.PayProfile,
	profile company.Profile,
	tables statutory.Tables,
	items []adjustment.Item,
) (PayrollRow, error) {
	basic := basicPayFor(run.Code, emp.MonthlyRate)
	totals := adjustment.Summarize(items)

	deMinimis, benefits := exemptibleByCategory(items)

	// The exemption ceiling counts amounts already posted this year; the
	// taxable spill-over is whatever the current grant pushes past it.
	month, _ := period.ParseMonth(run.PeriodKey)
	usedYTD, err := e.repo.SumExemptibleYTD(ctx, run.CompanyID.String(), emp.EmployeeID.String(), month.Year(), run.ID.String())
	if err != nil {
		return PayrollRow{}, err
	}
	room := AnnualExemptionCeiling.Sub(usedYTD)
	if room.IsNegative() {
		room = decimal.Zero
	}
	exempt := decimal.Min(totals.Exemptible, room)
	taxableExcess := totals.Exemptible.Sub(exempt)

	gross := basic.Add(totals.Earnings).Add(totals.Exemptible)

	var contrib contribution.Result
	if contributionsDue(run.Code) {
		contrib, err = contribution.Compute(emp.MonthlyRate, tables.SSSBrackets, profile.ContributionProfile())
		if err != nil {
			return PayrollRow{}, err
		}
	}

	taxable := basic.Add(totals.Earnings).Add(taxableExcess).Sub(contrib.EmployeeTotal())
	tax := contribution.Withholding(taxable, tables.TaxTables[taxTableFor(run.Code)])

	net := gross.
		Sub(contrib.EmployeeTotal()).
		Sub(tax).
		Sub(totals.Deductions).
		Add(totals.Additions)

	components, err := buildComponents(basic, items, contrib, tax)
	if err != nil {
		return PayrollRow{}, err
	}

	snapshot, err := json.Marshal(map[string]any{
		"monthly_rate":       emp.MonthlyRate,
		"statutory_version":  tables.Version.ID.String(),
		"pay_frequency":      profile.PayFrequency,
		"exemptible_used":    usedYTD,
		"exemptible_granted": totals.Exemptible,
	})
	if err != nil {
		return PayrollRow{}, err
	}

	return PayrollRow{
		RunID:      run.ID,
		CompanyID:  run.CompanyID,
		EmployeeID: emp.EmployeeID,

		BasicPay:   basic,
		GrossPay:   money.Round(gross),
		TaxablePay: money.Round(decimal.Max(taxable, decimal.Zero)),
		NetPay:     money.Round(net),

		SSSEmployee:        contrib.SSSEmployee,
		SSSEmployer:        contrib.SSSEmployer,
		PhilHealthEmployee: contrib.PhilHealthEmployee,
		PhilHealthEmployer: contrib.PhilHealthEmployer,
		PagIbigEmployee:    contrib.PagIbigEmployee,
		PagIbigEmployer:    contrib.PagIbigEmployer,
		WithholdingTax:     tax,

		DeMinimis: deMinimis,
		Benefits:  benefits,

		Components:     components,
		InputsSnapshot: snapshot,
	}, nil
}

// basicPayFor derives the cutoff's basic pay from the monthly rate. The two
// semi-monthly halves always sum back to the exact monthly rate.
func basicPayFor(code string, monthlyRate decimal.Decimal) decimal.Decimal {
	switch code {
	case CodeFirstHalf:
		first, _ := money.SplitHalf(monthlyRate)
		return first
	case CodeSecondHalf:
		_, second := money.SplitHalf(monthlyRate)
		return second
	case CodeMonthly:
		return money.Round(monthlyRate)
	}
	// SPECIAL runs pay adjustments only.
	return decimal.Zero
}

// contributionsDue reports whether statutory contributions are withheld on
// this cutoff. The full monthly amounts land on the second half (or the
// monthly run); special runs never withhold.
func contributionsDue(code string) bool {
	return code == CodeSecondHalf || code == CodeMonthly
}

func taxTableFor(code string) string {
	if code == CodeFirstHalf || code == CodeSecondHalf {
		return statutory.FrequencySemiMonthly
	}
	return statutory.FrequencyMonthly
}

func exemptibleByCategory(items []adjustment.Item) (deMinimis, benefits decimal.Decimal) {
	deMinimis, benefits = decimal.Zero, decimal.Zero
	for _, item := range items {
		switch item.Category {
		case adjustment.CategoryDeMinimis:
			deMinimis = deMinimis.Add(item.Amount)
		case adjustment.CategoryBenefit:
			benefits = benefits.Add(item.Amount)
		}
	}
	return deMinimis, benefits
}

// buildComponents lays out the payslip lines in a fixed order: basic pay,
// then adjustments as given, then employee and employer statutory amounts,
// then tax.
func buildComponents(
	basic decimal.Decimal,
	items []adjustment.Item,
	contrib contribution.Result,
	tax decimal.Decimal,
) ([]byte, error) {
	doc := ComponentDoc{SchemaVersion: ComponentSchemaVersion}

	if basic.IsPositive() {
		doc.Items = append(doc.Items, Component{Name: "Basic Pay", Kind: ComponentKindEarning, Amount: basic})
	}

	for _, item := range items {
		kind := ComponentKindEarning
		traits := item.Category.Traits()
		switch {
		case traits.AffectsGross:
			kind = ComponentKindEarning
		case traits.Sign < 0:
			kind = ComponentKindDeduction
		default:
			kind = ComponentKindAddition
		}
		doc.Items = append(doc.Items, Component{Name: item.Name, Kind: kind, Amount: item.Amount})
	}

	statutoryLines := []struct {
		name     string
		amount   decimal.Decimal
		employer bool
	}{
		{"SSS", contrib.SSSEmployee, false},
		{"PhilHealth", contrib.PhilHealthEmployee, false},
		{"Pag-IBIG", contrib.PagIbigEmployee, false},
		{"SSS (Employer)", contrib.SSSEmployer, true},
		{"PhilHealth (Employer)", contrib.PhilHealthEmployer, true},
		{"Pag-IBIG (Employer)", contrib.PagIbigEmployer, true},
	}
	for _, line := range statutoryLines {
		if line.amount.IsZero() {
			continue
		}
		doc.Items = append(doc.Items, Component{
			Name:     line.name,
			Kind:     ComponentKindContribution,
			Amount:   line.amount,
			Employer: line.employer,
		})
	}

	if tax.IsPositive() {
		doc.Items = append(doc.Items, Component{Name: "Withholding Tax", Kind: ComponentKindTax, Amount: tax})
	}

	return json.Marshal(doc)
}
