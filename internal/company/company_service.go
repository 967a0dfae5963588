package company

import (
	"context"
	"database/sql"
	"errors"

	companyerrors "go-payroll/internal/company/errors"
	"go-payroll/internal/statutory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=company_service.go -destination=mock/company_service_mock.go -package=mock
type Service interface {
	UpsertProfile(ctx context.Context, companyID string, req UpsertProfileRequest) (ProfileResponse, error)
	GetProfile(ctx context.Context, companyID string) (ProfileResponse, error)
	// ResolveProfile returns the stored profile, falling back to defaults for
	// tenants that never configured one. Used by the computation engine.
	ResolveProfile(ctx context.Context, companyID string) (Profile, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("company.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("company.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) UpsertProfile(ctx context.Context, companyID string, req UpsertProfileRequest) (ProfileResponse, error) {
	company, err := uuid.Parse(companyID)
	if err != nil {
		return ProfileResponse{}, companyerrors.ErrInvalidCompanyID
	}
	if req.PayFrequency != statutory.FrequencyMonthly && req.PayFrequency != statutory.FrequencySemiMonthly {
		return ProfileResponse{}, companyerrors.ErrInvalidFrequency
	}

	profile := DefaultProfile(company, req.Name)
	profile.PayFrequency = req.PayFrequency
	if req.Country != "" {
		profile.Country = req.Country
	}
	if req.WorkingDaysPerYear > 0 {
		profile.WorkingDaysPerYear = req.WorkingDaysPerYear
	}

	overrides := []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{req.PhilHealthRate, &profile.PhilHealthRate},
		{req.PhilHealthMinBase, &profile.PhilHealthMinBase},
		{req.PhilHealthMaxBase, &profile.PhilHealthMaxBase},
		{req.PagIbigEmployeeRate, &profile.PagIbigEmployeeRate},
		{req.PagIbigEmployerRate, &profile.PagIbigEmployerRate},
		{req.PagIbigMaxBase, &profile.PagIbigMaxBase},
	}
	for _, o := range overrides {
		if o.raw == "" {
			continue
		}
		parsed, err := decimal.NewFromString(o.raw)
		if err != nil || parsed.IsNegative() {
			return ProfileResponse{}, companyerrors.ErrInvalidParameter
		}
		*o.dest = parsed
	}

	if err := s.repo.Upsert(ctx, &profile); err != nil {
		return ProfileResponse{}, err
	}

	s.logger.Info("company profile saved",
		zap.String("company_id", companyID),
		zap.String("pay_frequency", profile.PayFrequency),
	)

	return mapProfileResponse(profile), nil
}

func (s *service) GetProfile(ctx context.Context, companyID string) (ProfileResponse, error) {
	profile, err := s.ResolveProfile(ctx, companyID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return mapProfileResponse(profile), nil
}

func (s *service) ResolveProfile(ctx context.Context, companyID string) (Profile, error) {
	profile, err := s.repo.FindByCompany(ctx, companyID)
	if err == nil {
		return *profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, err
	}

	company, err := uuid.Parse(companyID)
	if err != nil {
		return Profile{}, companyerrors.ErrInvalidCompanyID
	}
	return DefaultProfile(company, ""), nil
}
