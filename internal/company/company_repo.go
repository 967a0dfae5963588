package company

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=company_repo.go -destination=mock/company_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Upsert(ctx context.Context, profile *Profile) error
	FindByCompany(ctx context.Context, companyID string) (*Profile, error)
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

func (r *repository) Upsert(ctx context.Context, profile *Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
}

func (r *repository) FindByCompany(ctx context.Context, companyID string) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).First(&profile, "company_id = ?", companyID).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
