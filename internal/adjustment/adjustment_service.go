package adjustment

import (
	"context"
	"database/sql"
	"errors"

	adjustmenterrors "go-payroll/internal/adjustment/errors"
	"go-payroll/internal/shared/money"
	"go-payroll/internal/shared/period"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=adjustment_service.go -destination=mock/adjustment_service_mock.go -package=mock
type Service interface {
	CreateType(ctx context.Context, companyID string, req CreateTypeRequest) (TypeResponse, error)
	GetTypes(ctx context.Context, companyID string) ([]TypeResponse, error)
	DeleteType(ctx context.Context, companyID, typeID string) error

	UpsertBatch(ctx context.Context, companyID string, req BatchUpsertRequest) error
	GetByPeriod(ctx context.Context, companyID, periodKey string) ([]AdjustmentResponse, error)
	Resolve(ctx context.Context, companyID, employeeID, periodKey string) ([]Item, error)
	ResolvePeriod(ctx context.Context, companyID, periodKey string) (map[string][]Item, error)

	CreateRecurring(ctx context.Context, companyID string, req CreateRecurringRequest) (RecurringResponse, error)
	UpdateRecurring(ctx context.Context, companyID, recurringID string, req UpdateRecurringRequest) (RecurringResponse, error)
	GetRecurring(ctx context.Context, companyID string) ([]RecurringResponse, error)
	ApplyRecurring(ctx context.Context, companyID string, req ApplyRecurringRequest) (ApplyResult, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("adjustment.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("adjustment.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) CreateType(ctx context.Context, companyID string, req CreateTypeRequest) (TypeResponse, error) {
	company, err := uuid.Parse(companyID)
	if err != nil {
		return TypeResponse{}, adjustmenterrors.ErrInvalidCompanyID
	}

	category := Category(req.Category)
	if !category.Valid() {
		return TypeResponse{}, adjustmenterrors.ErrInvalidCategory
	}

	t := &AdjustmentType{
		CompanyID: company,
		Name:      req.Name,
		Category:  category,
	}
	if err := s.repo.CreateType(ctx, t); err != nil {
		return TypeResponse{}, mapRepositoryError(err)
	}

	return mapTypeResponse(*t), nil
}

func (s *service) GetTypes(ctx context.Context, companyID string) ([]TypeResponse, error) {
	types, err := s.repo.ListTypes(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]TypeResponse, len(types))
	for i, t := range types {
		resp[i] = mapTypeResponse(t)
	}
	return resp, nil
}

func (s *service) DeleteType(ctx context.Context, companyID, typeID string) error {
	return s.repo.DeleteType(ctx, companyID, typeID)
}

// UpsertBatch replaces the named entries for the period in one transaction.
// Category comes from the tenant catalog when the name is registered there,
// so ad-hoc entries cannot reclassify a known adjustment.
func (s *service) UpsertBatch(ctx context.Context, companyID string, req BatchUpsertRequest) error {
	company, err := uuid.Parse(companyID)
	if err != nil {
		return adjustmenterrors.ErrInvalidCompanyID
	}
	if err := validatePeriodKey(req.PeriodKey); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	for _, entry := range req.Entries {
		employee, err := uuid.Parse(entry.EmployeeID)
		if err != nil {
			return adjustmenterrors.ErrInvalidEmployeeID
		}

		amount, ok := parseAmount(entry.Amount)
		if !ok {
			return adjustmenterrors.ErrInvalidAmount
		}

		category, err := s.resolveCategory(ctx, companyID, entry.Name, entry.Category)
		if err != nil {
			return err
		}

		if amount.IsZero() {
			if err := qtx.Delete(ctx, companyID, entry.EmployeeID, entry.Name, req.PeriodKey); err != nil {
				return err
			}
			continue
		}

		adj := &Adjustment{
			CompanyID:  company,
			EmployeeID: employee,
			Name:       entry.Name,
			PeriodKey:  req.PeriodKey,
			Category:   category,
			Amount:     money.Round(amount),
			Source:     SourceManual,
		}
		if err := qtx.Upsert(ctx, adj); err != nil {
			return mapRepositoryError(err)
		}
	}

	return tx.Commit()
}

func (s *service) GetByPeriod(ctx context.Context, companyID, periodKey string) ([]AdjustmentResponse, error) {
	if err := validatePeriodKey(periodKey); err != nil {
		return nil, err
	}

	adjustments, err := s.repo.ListByPeriod(ctx, companyID, periodKey)
	if err != nil {
		return nil, err
	}

	resp := make([]AdjustmentResponse, len(adjustments))
	for i, a := range adjustments {
		resp[i] = mapAdjustmentResponse(a)
	}
	return resp, nil
}

// Resolve returns the employee's materialized items for one period key.
func (s *service) Resolve(ctx context.Context, companyID, employeeID, periodKey string) ([]Item, error) {
	adjustments, err := s.repo.ListByEmployeePeriod(ctx, companyID, employeeID, periodKey)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(adjustments))
	for i, a := range adjustments {
		items[i] = Item{Name: a.Name, Category: a.Category, Amount: a.Amount}
	}
	return items, nil
}

// ResolvePeriod loads the whole period in one query and groups items per
// employee, which is what the computation engine iterates over.
func (s *service) ResolvePeriod(ctx context.Context, companyID, periodKey string) (map[string][]Item, error) {
	adjustments, err := s.repo.ListByPeriod(ctx, companyID, periodKey)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string][]Item)
	for _, a := range adjustments {
		id := a.EmployeeID.String()
		byEmployee[id] = append(byEmployee[id], Item{Name: a.Name, Category: a.Category, Amount: a.Amount})
	}
	return byEmployee, nil
}

func (s *service) CreateRecurring(ctx context.Context, companyID string, req CreateRecurringRequest) (RecurringResponse, error) {
	company, err := uuid.Parse(companyID)
	if err != nil {
		return RecurringResponse{}, adjustmenterrors.ErrInvalidCompanyID
	}
	employee, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return RecurringResponse{}, adjustmenterrors.ErrInvalidEmployeeID
	}

	category := Category(req.Category)
	if !category.Valid() {
		return RecurringResponse{}, adjustmenterrors.ErrInvalidCategory
	}

	amount, ok := parseAmount(req.Amount)
	if !ok {
		return RecurringResponse{}, adjustmenterrors.ErrInvalidAmount
	}

	var maxAmount *decimal.Decimal
	if req.MaxAmount != nil && *req.MaxAmount != "" {
		parsed, ok := parseAmount(*req.MaxAmount)
		if !ok {
			return RecurringResponse{}, adjustmenterrors.ErrInvalidAmount
		}
		maxAmount = &parsed
	}

	startDate, ok := parseDatePtr(req.StartDate)
	if !ok {
		return RecurringResponse{}, adjustmenterrors.ErrInvalidDateFormat
	}
	endDate, ok := parseDatePtr(req.EndDate)
	if !ok {
		return RecurringResponse{}, adjustmenterrors.ErrInvalidDateFormat
	}

	rec := &RecurringAdjustment{
		CompanyID:  company,
		EmployeeID: employee,
		Name:       req.Name,
		Category:   category,
		Amount:     money.Round(amount),
		Mode:       req.Mode,
		MaxAmount:  maxAmount,
		StartDate:  startDate,
		EndDate:    endDate,
		Active:     true,
	}
	if err := s.repo.CreateRecurring(ctx, rec); err != nil {
		return RecurringResponse{}, err
	}

	return mapRecurringResponse(*rec), nil
}

func (s *service) UpdateRecurring(ctx context.Context, companyID, recurringID string, req UpdateRecurringRequest) (RecurringResponse, error) {
	rec, err := s.repo.FindRecurringByID(ctx, companyID, recurringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecurringResponse{}, adjustmenterrors.ErrRecurringNotFound
		}
		return RecurringResponse{}, err
	}

	if req.Amount != nil {
		amount, ok := parseAmount(*req.Amount)
		if !ok {
			return RecurringResponse{}, adjustmenterrors.ErrInvalidAmount
		}
		rec.Amount = money.Round(amount)
	}
	if req.Mode != nil {
		rec.Mode = *req.Mode
	}
	if req.MaxAmount != nil {
		if *req.MaxAmount == "" {
			rec.MaxAmount = nil
		} else {
			parsed, ok := parseAmount(*req.MaxAmount)
			if !ok {
				return RecurringResponse{}, adjustmenterrors.ErrInvalidAmount
			}
			rec.MaxAmount = &parsed
		}
	}
	if req.EndDate != nil {
		endDate, ok := parseDatePtr(req.EndDate)
		if !ok {
			return RecurringResponse{}, adjustmenterrors.ErrInvalidDateFormat
		}
		rec.EndDate = endDate
	}
	if req.Active != nil {
		rec.Active = *req.Active
	}

	if err := s.repo.UpdateRecurring(ctx, rec); err != nil {
		return RecurringResponse{}, err
	}
	return mapRecurringResponse(*rec), nil
}

func (s *service) GetRecurring(ctx context.Context, companyID string) ([]RecurringResponse, error) {
	recs, err := s.repo.ListRecurring(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]RecurringResponse, len(recs))
	for i, r := range recs {
		resp[i] = mapRecurringResponse(r)
	}
	return resp, nil
}

// ApplyRecurring materializes active recurring definitions into one-time
// entries for the cutoff. Re-applying overwrites the same keys, so the
// operation is idempotent per cutoff.
func (s *service) ApplyRecurring(ctx context.Context, companyID string, req ApplyRecurringRequest) (ApplyResult, error) {
	month, err := period.ParseMonth(req.Month)
	if err != nil {
		return ApplyResult{}, adjustmenterrors.ErrInvalidPeriodKey
	}
	if !period.ValidCutoff(req.Cutoff) {
		return ApplyResult{}, adjustmenterrors.ErrInvalidPeriodKey
	}

	periodKey := period.Key(req.Month, req.Cutoff)
	start, end := period.Bounds(month)

	recs, err := s.repo.ListActiveRecurring(ctx, companyID)
	if err != nil {
		return ApplyResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	result := ApplyResult{PeriodKey: periodKey}
	for _, rec := range recs {
		if rec.StartDate != nil && rec.StartDate.After(end) {
			result.Skipped++
			continue
		}
		if rec.EndDate != nil && rec.EndDate.Before(start) {
			result.Skipped++
			continue
		}

		portion, applies := portionFor(rec, req.Cutoff)
		if !applies {
			result.Skipped++
			continue
		}

		if rec.MaxAmount != nil {
			prior, err := qtx.SumMaterialized(ctx, companyID, rec.EmployeeID.String(), rec.Name, periodKey)
			if err != nil {
				return ApplyResult{}, err
			}
			remaining := rec.MaxAmount.Sub(prior)
			if remaining.LessThanOrEqual(decimal.Zero) {
				// Cap already exhausted: remove any earlier materialization
				// for this cutoff so re-applies converge.
				if err := qtx.Delete(ctx, companyID, rec.EmployeeID.String(), rec.Name, periodKey); err != nil {
					return ApplyResult{}, err
				}
				result.Capped++
				continue
			}
			if portion.GreaterThan(remaining) {
				portion = remaining
				result.Capped++
			}
		}

		adj := &Adjustment{
			CompanyID:  rec.CompanyID,
			EmployeeID: rec.EmployeeID,
			Name:       rec.Name,
			PeriodKey:  periodKey,
			Category:   rec.Category,
			Amount:     portion,
			Source:     SourceRecurring,
		}
		if err := qtx.Upsert(ctx, adj); err != nil {
			return ApplyResult{}, mapRepositoryError(err)
		}
		result.Applied++
	}

	if err := tx.Commit(); err != nil {
		return ApplyResult{}, err
	}

	s.logger.Info("recurring adjustments applied",
		zap.String("company_id", companyID),
		zap.String("period_key", periodKey),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
		zap.Int("capped", result.Capped),
	)

	return result, nil
}

// portionFor resolves how much of a recurring amount lands on the given
// cutoff. A monthly run always carries the full amount; semi-monthly cutoffs
// follow the definition's mode.
func portionFor(rec RecurringAdjustment, cutoff string) (decimal.Decimal, bool) {
	if cutoff == period.CutoffMonthly {
		return rec.Amount, true
	}

	switch rec.Mode {
	case ModeSplit:
		first, second := money.SplitHalf(rec.Amount)
		if cutoff == period.CutoffFirst {
			return first, true
		}
		return second, true
	case Mode1st:
		if cutoff == period.CutoffFirst {
			return rec.Amount, true
		}
	case Mode2nd:
		if cutoff == period.CutoffSecond {
			return rec.Amount, true
		}
	}
	return decimal.Zero, false
}

func (s *service) resolveCategory(ctx context.Context, companyID, name, requested string) (Category, error) {
	t, err := s.repo.FindTypeByName(ctx, companyID, name)
	if err == nil {
		return t.Category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	category := Category(requested)
	if !category.Valid() {
		return "", adjustmenterrors.ErrInvalidCategory
	}
	return category, nil
}

func validatePeriodKey(key string) error {
	monthKey, cutoff := period.SplitKey(key)
	if _, err := period.ParseMonth(monthKey); err != nil {
		return adjustmenterrors.ErrInvalidPeriodKey
	}
	if !period.ValidCutoff(cutoff) {
		return adjustmenterrors.ErrInvalidPeriodKey
	}
	return nil
}
