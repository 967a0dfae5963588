package statutory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	statutoryerrors "go-payroll/internal/statutory/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=statutory_service.go -destination=mock/statutory_service_mock.go -package=mock
type Service interface {
	CreateVersion(ctx context.Context, req CreateVersionRequest) (VersionResponse, error)
	GetVersions(ctx context.Context, country string) ([]VersionResponse, error)
	SetBrackets(ctx context.Context, versionID, scheme string, inputs []BracketInput) error
	SetTaxBrackets(ctx context.Context, versionID, frequency string, inputs []TaxBracketInput) error
	Publish(ctx context.Context, versionID string) (VersionResponse, error)
	Resolve(ctx context.Context, country string, asOf time.Time) (Tables, error)
	ResolveOrProvision(ctx context.Context, country string, asOf time.Time) (Tables, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("statutory.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("statutory.service")
	}
	return &service{db: db, repo: repo, sf: &singleflight.Group{}, logger: l}
}

func (s *service) CreateVersion(ctx context.Context, req CreateVersionRequest) (VersionResponse, error) {
	if len(req.Country) != 2 {
		return VersionResponse{}, statutoryerrors.ErrInvalidCountry
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return VersionResponse{}, statutoryerrors.ErrInvalidDateFormat
	}

	version := &StatutoryVersion{
		Country:       req.Country,
		Status:        StatusDraft,
		EffectiveFrom: effectiveFrom,
	}

	if err := s.repo.CreateVersion(ctx, version); err != nil {
		return VersionResponse{}, err
	}

	return mapVersionResponse(*version), nil
}

func (s *service) GetVersions(ctx context.Context, country string) ([]VersionResponse, error) {
	versions, err := s.repo.ListVersions(ctx, country)
	if err != nil {
		return nil, err
	}

	resp := make([]VersionResponse, len(versions))
	for i, v := range versions {
		resp[i] = mapVersionResponse(v)
	}
	return resp, nil
}

func (s *service) SetBrackets(ctx context.Context, versionID, scheme string, inputs []BracketInput) error {
	version, err := s.findVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if version.Status != StatusDraft {
		return statutoryerrors.ErrVersionNotDraft
	}

	brackets, err := mapBracketInputs(version.ID, scheme, inputs)
	if err != nil {
		return err
	}
	if err := ValidateBrackets(brackets); err != nil {
		return err
	}

	return s.repo.ReplaceBrackets(ctx, versionID, scheme, brackets)
}

func (s *service) SetTaxBrackets(ctx context.Context, versionID, frequency string, inputs []TaxBracketInput) error {
	if frequency != FrequencyMonthly && frequency != FrequencySemiMonthly {
		return statutoryerrors.ErrInvalidDateFormat
	}

	version, err := s.findVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if version.Status != StatusDraft {
		return statutoryerrors.ErrVersionNotDraft
	}
	if len(inputs) == 0 {
		return statutoryerrors.ErrEmptyTaxTable
	}

	brackets, err := mapTaxBracketInputs(version.ID, frequency, inputs)
	if err != nil {
		return err
	}

	return s.repo.ReplaceTaxBrackets(ctx, versionID, frequency, brackets)
}

// Publish validates the draft's tables, closes the current open-ended tail at
// the new effective date, and flips the version to PUBLISHED. All inside one
// transaction so the non-overlap invariant survives a crash mid-way.
func (s *service) Publish(ctx context.Context, versionID string) (VersionResponse, error) {
	version, err := s.findVersion(ctx, versionID)
	if err != nil {
		return VersionResponse{}, err
	}
	if version.Status == StatusPublished {
		return VersionResponse{}, statutoryerrors.ErrVersionAlreadyPublished
	}

	brackets, err := s.repo.ListBrackets(ctx, versionID, SchemeSSS)
	if err != nil {
		return VersionResponse{}, err
	}
	if err := ValidateBrackets(brackets); err != nil {
		return VersionResponse{}, err
	}

	monthlyTax, err := s.repo.ListTaxBrackets(ctx, versionID, FrequencyMonthly)
	if err != nil {
		return VersionResponse{}, err
	}
	if len(monthlyTax) == 0 {
		return VersionResponse{}, statutoryerrors.ErrEmptyTaxTable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return VersionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	tail, err := qtx.FindOpenTail(ctx, version.Country)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return VersionResponse{}, err
	}
	if tail != nil && tail.ID != version.ID {
		if !tail.EffectiveFrom.Before(version.EffectiveFrom) {
			return VersionResponse{}, statutoryerrors.ErrOverlappingVersion
		}
		to := version.EffectiveFrom
		tail.EffectiveTo = &to
		if err := qtx.UpdateVersion(ctx, tail); err != nil {
			return VersionResponse{}, err
		}
	}

	now := time.Now().UTC()
	version.Status = StatusPublished
	version.PublishedAt = &now
	if err := qtx.UpdateVersion(ctx, version); err != nil {
		return VersionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return VersionResponse{}, err
	}

	s.logger.Info("statutory version published",
		zap.String("version_id", version.ID.String()),
		zap.String("country", version.Country),
		zap.Time("effective_from", version.EffectiveFrom),
	)

	return mapVersionResponse(*version), nil
}

// Resolve loads the tables effective at asOf. Concurrent lookups for the same
// country/date collapse into a single query round-trip.
func (s *service) Resolve(ctx context.Context, country string, asOf time.Time) (Tables, error) {
	key := fmt.Sprintf("%s|%s", country, asOf.Format("2006-01-02"))

	v, err, _ := s.sf.Do(key, func() (any, error) {
		version, err := s.repo.FindPublishedAsOf(ctx, country, asOf)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Tables{}, statutoryerrors.ErrNoStatutoryVersion
			}
			return Tables{}, err
		}
		return s.loadTables(ctx, *version)
	})
	if err != nil {
		return Tables{}, err
	}
	return v.(Tables), nil
}

// ResolveOrProvision auto-creates the default open-ended version for the
// country rather than failing a user-facing computation.
func (s *service) ResolveOrProvision(ctx context.Context, country string, asOf time.Time) (Tables, error) {
	tables, err := s.Resolve(ctx, country, asOf)
	if err == nil {
		return tables, nil
	}
	if !errors.Is(err, statutoryerrors.ErrNoStatutoryVersion) {
		return Tables{}, err
	}

	if err := s.provisionDefault(ctx, country); err != nil {
		return Tables{}, err
	}

	return s.Resolve(ctx, country, asOf)
}

func (s *service) provisionDefault(ctx context.Context, country string) error {
	now := time.Now().UTC()
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	version := &StatutoryVersion{
		Country:       country,
		Status:        StatusPublished,
		EffectiveFrom: from,
		PublishedAt:   &now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.CreateVersion(ctx, version); err != nil {
		return err
	}

	brackets := defaultSSSBrackets()
	for i := range brackets {
		brackets[i].VersionID = version.ID
	}
	if err := qtx.ReplaceBrackets(ctx, version.ID.String(), SchemeSSS, brackets); err != nil {
		return err
	}

	for frequency, rows := range defaultTaxBrackets() {
		for i := range rows {
			rows[i].VersionID = version.ID
		}
		if err := qtx.ReplaceTaxBrackets(ctx, version.ID.String(), frequency, rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("default statutory version provisioned", zap.String("country", country))
	return nil
}

func (s *service) loadTables(ctx context.Context, version StatutoryVersion) (Tables, error) {
	brackets, err := s.repo.ListBrackets(ctx, version.ID.String(), SchemeSSS)
	if err != nil {
		return Tables{}, err
	}

	taxTables := map[string][]TaxBracket{}
	for _, frequency := range []string{FrequencyMonthly, FrequencySemiMonthly} {
		rows, err := s.repo.ListTaxBrackets(ctx, version.ID.String(), frequency)
		if err != nil {
			return Tables{}, err
		}
		taxTables[frequency] = rows
	}

	return Tables{Version: version, SSSBrackets: brackets, TaxTables: taxTables}, nil
}

func (s *service) findVersion(ctx context.Context, versionID string) (*StatutoryVersion, error) {
	version, err := s.repo.FindVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, statutoryerrors.ErrVersionNotFound
		}
		return nil, err
	}
	return version, nil
}
