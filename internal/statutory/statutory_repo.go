package statutory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=statutory_repo.go -destination=mock/statutory_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreateVersion(ctx context.Context, version *StatutoryVersion) error
	FindVersionByID(ctx context.Context, id string) (*StatutoryVersion, error)
	ListVersions(ctx context.Context, country string) ([]StatutoryVersion, error)
	UpdateVersion(ctx context.Context, version *StatutoryVersion) error
	FindPublishedAsOf(ctx context.Context, country string, asOf time.Time) (*StatutoryVersion, error)
	FindOpenTail(ctx context.Context, country string) (*StatutoryVersion, error)
	ReplaceBrackets(ctx context.Context, versionID string, scheme string, brackets []ContributionBracket) error
	ListBrackets(ctx context.Context, versionID string, scheme string) ([]ContributionBracket, error)
	ReplaceTaxBrackets(ctx context.Context, versionID string, frequency string, brackets []TaxBracket) error
	ListTaxBrackets(ctx context.Context, versionID string, frequency string) ([]TaxBracket, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{Context: r.db.Statement.Context, NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

func (r *repository) CreateVersion(ctx context.Context, version *StatutoryVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *repository) FindVersionByID(ctx context.Context, id string) (*StatutoryVersion, error) {
	var version StatutoryVersion
	err := r.db.WithContext(ctx).First(&version, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &version, err
}

func (r *repository) ListVersions(ctx context.Context, country string) ([]StatutoryVersion, error) {
	var versions []StatutoryVersion
	err := r.db.WithContext(ctx).
		Where("country = ?", country).
		Order("effective_from DESC").
		Find(&versions).Error
	return versions, err
}

func (r *repository) UpdateVersion(ctx context.Context, version *StatutoryVersion) error {
	return r.db.WithContext(ctx).Save(version).Error
}

// FindPublishedAsOf selects the published version whose
// [effective_from, effective_to) interval contains asOf. Most recently
// effective wins should intervals ever be ambiguous.
func (r *repository) FindPublishedAsOf(ctx context.Context, country string, asOf time.Time) (*StatutoryVersion, error) {
	var version StatutoryVersion
	err := r.db.WithContext(ctx).
		Where("country = ? AND status = ?", country, StatusPublished).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to > ?", asOf).
		Order("effective_from DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *repository) FindOpenTail(ctx context.Context, country string) (*StatutoryVersion, error) {
	var version StatutoryVersion
	err := r.db.WithContext(ctx).
		Where("country = ? AND status = ? AND effective_to IS NULL", country, StatusPublished).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *repository) ReplaceBrackets(ctx context.Context, versionID string, scheme string, brackets []ContributionBracket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("version_id = ? AND scheme = ?", versionID, scheme).
			Delete(&ContributionBracket{}).Error; err != nil {
			return err
		}
		if len(brackets) == 0 {
			return nil
		}
		return tx.Create(&brackets).Error
	})
}

func (r *repository) ListBrackets(ctx context.Context, versionID string, scheme string) ([]ContributionBracket, error) {
	var brackets []ContributionBracket
	err := r.db.WithContext(ctx).
		Where("version_id = ? AND scheme = ?", versionID, scheme).
		Order("compensation_min ASC").
		Find(&brackets).Error
	return brackets, err
}

func (r *repository) ReplaceTaxBrackets(ctx context.Context, versionID string, frequency string, brackets []TaxBracket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("version_id = ? AND pay_frequency = ?", versionID, frequency).
			Delete(&TaxBracket{}).Error; err != nil {
			return err
		}
		if len(brackets) == 0 {
			return nil
		}
		return tx.Create(&brackets).Error
	})
}

func (r *repository) ListTaxBrackets(ctx context.Context, versionID string, frequency string) ([]TaxBracket, error) {
	var brackets []TaxBracket
	err := r.db.WithContext(ctx).
		Where("version_id = ? AND pay_frequency = ?", versionID, frequency).
		Order("threshold ASC").
		Find(&brackets).Error
	return brackets, err
}
