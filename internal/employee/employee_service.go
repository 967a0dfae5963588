package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	employeeerrors "go-payroll/internal/employee/errors"
	"go-payroll/internal/shared/contextutil"
	"go-payroll/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const RosterOptionsKeyPrefix = "employees:options:"

func GetRosterOptionsKey(companyID string) string {
	return RosterOptionsKeyPrefix + companyID
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, companyID, id string) error

	AddCompensation(ctx context.Context, companyID, employeeID string, req AddCompensationRequest) (CompensationResponse, error)
	GetCompensation(ctx context.Context, companyID, employeeID string) ([]CompensationResponse, error)
	Roster(ctx context.Context, companyID string, asOf time.Time) ([]PayProfile, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	rdb     *redis.Client
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counterRepo counter.Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		counter: counterRepo,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		logger:  l,
	}
}

// Create registers an employee together with the initial compensation row,
// effective on the hire date, in one transaction.
func (s *service) Create(ctx context.Context, companyID string, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	company, err := uuid.Parse(companyID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidCompanyID
	}

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidDateFormat
	}

	rate, err := parseRate(req.MonthlyRate)
	if err != nil {
		return EmployeeResponse{}, err
	}

	if req.EmployeeNo == "" {
		nextVal, err := s.counter.GetNextValue(ctx, companyID, "employee_no")
		if err != nil {
			s.logger.Error("create employee generate number failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeNo = fmt.Sprintf("EMP-%06d", nextVal)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	emp := &Employee{
		ID:         uuid.New(),
		CompanyID:  company,
		EmployeeNo: req.EmployeeNo,
		FullName:   req.FullName,
		Email:      req.Email,
		Status:     StatusActive,
		HireDate:   hireDate,
	}
	if err := qtx.Create(ctx, emp); err != nil {
		s.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	comp := &Compensation{
		ID:            uuid.New(),
		CompanyID:     company,
		EmployeeID:    emp.ID,
		MonthlyRate:   rate,
		EffectiveDate: hireDate,
	}
	if err := qtx.AddCompensation(ctx, comp); err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx, companyID)
	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", emp.ID.String()),
		zap.String("employee_no", emp.EmployeeNo),
	)

	return mapToResponse(*emp), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(employees), nil
}

// GetOptions serves the dropdown roster, cached in redis; singleflight keeps
// a cold cache from stampeding the database.
func (s *service) GetOptions(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	cacheKey := GetRosterOptionsKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		employees, err := s.repo.FindAllByCompany(ctx, companyID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(employees)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 1*time.Hour)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error) {
	emp, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*emp), nil
}

func (s *service) Update(ctx context.Context, companyID, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	emp, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if req.Status != StatusActive && req.Status != StatusInactive {
		return EmployeeResponse{}, employeeerrors.ErrInvalidStatus
	}

	emp.FullName = req.FullName
	emp.Email = req.Email
	emp.Status = req.Status
	if req.EndDate != nil && *req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidDateFormat
		}
		emp.EndDate = &endDate
	} else {
		emp.EndDate = nil
	}

	if err := s.repo.Update(ctx, emp); err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.invalidateOptions(ctx, companyID)
	return mapToResponse(*emp), nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return mapRepositoryError(err)
	}
	s.invalidateOptions(ctx, companyID)
	return nil
}

func (s *service) AddCompensation(ctx context.Context, companyID, employeeID string, req AddCompensationRequest) (CompensationResponse, error) {
	emp, err := s.repo.FindByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		return CompensationResponse{}, mapRepositoryError(err)
	}

	effectiveDate, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		return CompensationResponse{}, employeeerrors.ErrInvalidDateFormat
	}

	rate, err := parseRate(req.MonthlyRate)
	if err != nil {
		return CompensationResponse{}, err
	}

	comp := &Compensation{
		ID:            uuid.New(),
		CompanyID:     emp.CompanyID,
		EmployeeID:    emp.ID,
		MonthlyRate:   rate,
		EffectiveDate: effectiveDate,
	}
	if err := s.repo.AddCompensation(ctx, comp); err != nil {
		return CompensationResponse{}, mapRepositoryError(err)
	}

	return mapCompensationResponse(*comp), nil
}

func (s *service) GetCompensation(ctx context.Context, companyID, employeeID string) ([]CompensationResponse, error) {
	comps, err := s.repo.ListCompensation(ctx, companyID, employeeID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	resp := make([]CompensationResponse, len(comps))
	for i, c := range comps {
		resp[i] = mapCompensationResponse(c)
	}
	return resp, nil
}

// Roster is the computation engine's view: active employees with their rate
// in force at asOf. Uncached, a run computes against current data.
func (s *service) Roster(ctx context.Context, companyID string, asOf time.Time) ([]PayProfile, error) {
	return s.repo.ListActiveWithRate(ctx, companyID, asOf)
}

func (s *service) invalidateOptions(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetRosterOptionsKey(companyID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}
