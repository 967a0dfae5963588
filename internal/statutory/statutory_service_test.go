package statutory_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-payroll/internal/statutory"
	statutoryerrors "go-payroll/internal/statutory/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeStatutoryRepository struct {
	withTxFn            func(tx *sql.Tx) statutory.Repository
	createVersionFn     func(ctx context.Context, version *statutory.StatutoryVersion) error
	findVersionByIDFn   func(ctx context.Context, id string) (*statutory.StatutoryVersion, error)
	listVersionsFn      func(ctx context.Context, country string) ([]statutory.StatutoryVersion, error)
	updateVersionFn     func(ctx context.Context, version *statutory.StatutoryVersion) error
	findPublishedAsOfFn func(ctx context.Context, country string, asOf time.Time) (*statutory.StatutoryVersion, error)
	findOpenTailFn      func(ctx context.Context, country string) (*statutory.StatutoryVersion, error)
	replaceBracketsFn   func(ctx context.Context, versionID, scheme string, brackets []statutory.ContributionBracket) error
	listBracketsFn      func(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error)
	replaceTaxFn        func(ctx context.Context, versionID, frequency string, brackets []statutory.TaxBracket) error
	listTaxFn           func(ctx context.Context, versionID, frequency string) ([]statutory.TaxBracket, error)
}

func (f *fakeStatutoryRepository) WithTx(tx *sql.Tx) statutory.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeStatutoryRepository) CreateVersion(ctx context.Context, version *statutory.StatutoryVersion) error {
	if f.createVersionFn != nil {
		return f.createVersionFn(ctx, version)
	}
	version.ID = uuid.New()
	return nil
}

func (f *fakeStatutoryRepository) FindVersionByID(ctx context.Context, id string) (*statutory.StatutoryVersion, error) {
	if f.findVersionByIDFn != nil {
		return f.findVersionByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStatutoryRepository) ListVersions(ctx context.Context, country string) ([]statutory.StatutoryVersion, error) {
	if f.listVersionsFn != nil {
		return f.listVersionsFn(ctx, country)
	}
	return nil, nil
}

func (f *fakeStatutoryRepository) UpdateVersion(ctx context.Context, version *statutory.StatutoryVersion) error {
	if f.updateVersionFn != nil {
		return f.updateVersionFn(ctx, version)
	}
	return nil
}

func (f *fakeStatutoryRepository) FindPublishedAsOf(ctx context.Context, country string, asOf time.Time) (*statutory.StatutoryVersion, error) {
	if f.findPublishedAsOfFn != nil {
		return f.findPublishedAsOfFn(ctx, country, asOf)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStatutoryRepository) FindOpenTail(ctx context.Context, country string) (*statutory.StatutoryVersion, error) {
	if f.findOpenTailFn != nil {
		return f.findOpenTailFn(ctx, country)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStatutoryRepository) ReplaceBrackets(ctx context.Context, versionID, scheme string, brackets []statutory.ContributionBracket) error {
	if f.replaceBracketsFn != nil {
		return f.replaceBracketsFn(ctx, versionID, scheme, brackets)
	}
	return nil
}

func (f *fakeStatutoryRepository) ListBrackets(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error) {
	if f.listBracketsFn != nil {
		return f.listBracketsFn(ctx, versionID, scheme)
	}
	return nil, nil
}

func (f *fakeStatutoryRepository) ReplaceTaxBrackets(ctx context.Context, versionID, frequency string, brackets []statutory.TaxBracket) error {
	if f.replaceTaxFn != nil {
		return f.replaceTaxFn(ctx, versionID, frequency, brackets)
	}
	return nil
}

func (f *fakeStatutoryRepository) ListTaxBrackets(ctx context.Context, versionID, frequency string) ([]statutory.TaxBracket, error) {
	if f.listTaxFn != nil {
		return f.listTaxFn(ctx, versionID, frequency)
	}
	return nil, nil
}

type statutoryServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service statutory.Service
	repo    *fakeStatutoryRepository
}

func setupStatutoryServiceTest(t *testing.T) *statutoryServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeStatutoryRepository{}
	svc := statutory.NewService(db, repo)

	return &statutoryServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func validBrackets(versionID uuid.UUID) []statutory.ContributionBracket {
	return []statutory.ContributionBracket{
		bracketWithVersion(versionID, "0", "10000", "500", "1000"),
		bracketWithVersion(versionID, "10000", "", "1000", "2000"),
	}
}

func bracketWithVersion(versionID uuid.UUID, min, max, ee, er string) statutory.ContributionBracket {
	b := bracket(min, max, ee, er)
	b.VersionID = versionID
	return b
}

func draftVersion(from time.Time) *statutory.StatutoryVersion {
	return &statutory.StatutoryVersion{
		ID:            uuid.New(),
		Country:       "PH",
		Status:        statutory.StatusDraft,
		EffectiveFrom: from,
	}
}

func TestCreateVersion_RejectsBadCountry(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.CreateVersion(context.Background(), statutory.CreateVersionRequest{
		Country:       "PHL",
		EffectiveFrom: "2025-01-01",
	})

	assert.ErrorIs(t, err, statutoryerrors.ErrInvalidCountry)
}

func TestSetBrackets_RejectsPublishedVersion(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	version := draftVersion(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	version.Status = statutory.StatusPublished
	deps.repo.findVersionByIDFn = func(ctx context.Context, id string) (*statutory.StatutoryVersion, error) {
		return version, nil
	}

	err := deps.service.SetBrackets(context.Background(), version.ID.String(), statutory.SchemeSSS, []statutory.BracketInput{
		{CompensationMin: "0", EmployeeAmount: "500", EmployerAmount: "1000"},
	})

	assert.ErrorIs(t, err, statutoryerrors.ErrVersionNotDraft)
}

func TestPublish_ClosesOpenTailAtNewEffectiveDate(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	newFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	version := draftVersion(newFrom)
	tail := &statutory.StatutoryVersion{
		ID:            uuid.New(),
		Country:       "PH",
		Status:        statutory.StatusPublished,
		EffectiveFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	deps.repo.findVersionByIDFn = func(ctx context.Context, id string) (*statutory.StatutoryVersion, error) {
		return version, nil
	}
	deps.repo.listBracketsFn = func(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error) {
		return validBrackets(version.ID), nil
	}
	deps.repo.listTaxFn = func(ctx context.Context, versionID, frequency string) ([]statutory.TaxBracket, error) {
		return []statutory.TaxBracket{{Threshold: dec("0"), BaseTax: dec("0"), Rate: dec("0")}}, nil
	}
	deps.repo.findOpenTailFn = func(ctx context.Context, country string) (*statutory.StatutoryVersion, error) {
		return tail, nil
	}

	var updated []statutory.StatutoryVersion
	deps.repo.updateVersionFn = func(ctx context.Context, v *statutory.StatutoryVersion) error {
		updated = append(updated, *v)
		return nil
	}

	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Publish(context.Background(), version.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, statutory.StatusPublished, resp.Status)
	assert.Len(t, updated, 2)
	assert.Equal(t, tail.ID, updated[0].ID)
	assert.NotNil(t, updated[0].EffectiveTo)
	assert.True(t, updated[0].EffectiveTo.Equal(newFrom))
}

func TestPublish_RejectsOverlappingEffectiveDate(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	version := draftVersion(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tail := &statutory.StatutoryVersion{
		ID:            uuid.New(),
		Country:       "PH",
		Status:        statutory.StatusPublished,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	deps.repo.findVersionByIDFn = func(ctx context.Context, id string) (*statutory.StatutoryVersion, error) {
		return version, nil
	}
	deps.repo.listBracketsFn = func(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error) {
		return validBrackets(version.ID), nil
	}
	deps.repo.listTaxFn = func(ctx context.Context, versionID, frequency string) ([]statutory.TaxBracket, error) {
		return []statutory.TaxBracket{{Threshold: dec("0"), BaseTax: dec("0"), Rate: dec("0")}}, nil
	}
	deps.repo.findOpenTailFn = func(ctx context.Context, country string) (*statutory.StatutoryVersion, error) {
		return tail, nil
	}

	expectTx(t, deps.sqlMock, false)
	_, err := deps.service.Publish(context.Background(), version.ID.String())

	assert.ErrorIs(t, err, statutoryerrors.ErrOverlappingVersion)
}

func TestPublish_RejectsAlreadyPublished(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	version := draftVersion(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	version.Status = statutory.StatusPublished
	deps.repo.findVersionByIDFn = func(ctx context.Context, id string) (*statutory.StatutoryVersion, error) {
		return version, nil
	}

	_, err := deps.service.Publish(context.Background(), version.ID.String())

	assert.ErrorIs(t, err, statutoryerrors.ErrVersionAlreadyPublished)
}

func TestPublish_RejectsEmptyTaxTable(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	version := draftVersion(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	deps.repo.findVersionByIDFn = func(ctx context.Context, id string) (*statutory.StatutoryVersion, error) {
		return version, nil
	}
	deps.repo.listBracketsFn = func(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error) {
		return validBrackets(version.ID), nil
	}

	_, err := deps.service.Publish(context.Background(), version.ID.String())

	assert.ErrorIs(t, err, statutoryerrors.ErrEmptyTaxTable)
}

func TestResolve_NoPublishedVersionFails(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.Resolve(context.Background(), "PH", time.Now())

	assert.ErrorIs(t, err, statutoryerrors.ErrNoStatutoryVersion)
}

func TestResolve_PicksVersionEffectiveAtDate(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	version := draftVersion(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	version.Status = statutory.StatusPublished

	var askedFor time.Time
	deps.repo.findPublishedAsOfFn = func(ctx context.Context, country string, asOf time.Time) (*statutory.StatutoryVersion, error) {
		askedFor = asOf
		return version, nil
	}
	deps.repo.listBracketsFn = func(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error) {
		return validBrackets(version.ID), nil
	}

	payDate := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	tables, err := deps.service.Resolve(context.Background(), "PH", payDate)

	assert.NoError(t, err)
	assert.Equal(t, version.ID, tables.Version.ID)
	assert.True(t, askedFor.Equal(payDate))
	assert.Len(t, tables.SSSBrackets, 2)
}

func TestResolveOrProvision_SeedsDefaultsWhenMissing(t *testing.T) {
	deps := setupStatutoryServiceTest(t)
	defer deps.db.Close()

	var provisioned *statutory.StatutoryVersion
	deps.repo.createVersionFn = func(ctx context.Context, v *statutory.StatutoryVersion) error {
		v.ID = uuid.New()
		provisioned = v
		return nil
	}

	replaced := map[string]int{}
	deps.repo.replaceBracketsFn = func(ctx context.Context, versionID, scheme string, brackets []statutory.ContributionBracket) error {
		replaced[scheme] = len(brackets)
		return nil
	}
	deps.repo.replaceTaxFn = func(ctx context.Context, versionID, frequency string, brackets []statutory.TaxBracket) error {
		replaced[frequency] = len(brackets)
		return nil
	}

	// First Resolve misses, provision runs in a tx, second Resolve hits.
	calls := 0
	deps.repo.findPublishedAsOfFn = func(ctx context.Context, country string, asOf time.Time) (*statutory.StatutoryVersion, error) {
		calls++
		if provisioned == nil {
			return nil, gorm.ErrRecordNotFound
		}
		return provisioned, nil
	}
	deps.repo.listBracketsFn = func(ctx context.Context, versionID, scheme string) ([]statutory.ContributionBracket, error) {
		return validBrackets(uuid.New()), nil
	}

	expectTx(t, deps.sqlMock, true)
	tables, err := deps.service.ResolveOrProvision(context.Background(), "PH", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.NotNil(t, provisioned)
	assert.Equal(t, statutory.StatusPublished, provisioned.Status)
	assert.Equal(t, 2, calls)
	assert.Positive(t, replaced[statutory.SchemeSSS])
	assert.Positive(t, replaced[statutory.FrequencyMonthly])
	assert.Positive(t, replaced[statutory.FrequencySemiMonthly])
	assert.Equal(t, provisioned.ID, tables.Version.ID)
}
