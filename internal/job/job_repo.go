package job

import (
	"context"
	"database/sql"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=job_repo.go -destination=mock/job_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, id string) (*Job, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Job, error)
	FindActiveByDedupKey(ctx context.Context, companyID, dedupKey string) (*Job, error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]Job, error)

	// ClaimPending flips PENDING to RUNNING; false means another worker won
	// the claim or the job was cancelled first.
	ClaimPending(ctx context.Context, id string, startedAt time.Time) (bool, error)
	MarkSucceeded(ctx context.Context, id string, result []byte) error
	MarkFailed(ctx context.Context, id string, message string) error
	MarkCancelled(ctx context.Context, id string, message string) error
	CancelPending(ctx context.Context, id string) (bool, error)
	RequestCancel(ctx context.Context, id string) error
	IsCancelRequested(ctx context.Context, id string) (bool, error)
	UpdateProgress(ctx context.Context, id string, progress int, message string) error
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

func (r *repository) Create(ctx context.Context, j *Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&j, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *repository) FindActiveByDedupKey(ctx context.Context, companyID, dedupKey string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("dedup_key = ? AND status IN ?", dedupKey, []string{StatusPending, StatusRunning}).
		Order("created_at DESC").
		First(&j).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID string, limit int) ([]Job, error) {
	var jobs []Job
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *repository) ClaimPending(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{"status": StatusRunning, "started_at": startedAt})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkSucceeded(ctx context.Context, id string, result []byte) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusRunning).
		Updates(map[string]any{
			"status":      StatusSucceeded,
			"result":      result,
			"progress":    100,
			"message":     "",
			"finished_at": time.Now().UTC(),
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id string, message string) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusRunning).
		Updates(map[string]any{
			"status":      StatusFailed,
			"message":     message,
			"finished_at": time.Now().UTC(),
		}).Error
}

func (r *repository) MarkCancelled(ctx context.Context, id string, message string) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status IN ?", id, []string{StatusPending, StatusRunning}).
		Updates(map[string]any{
			"status":      StatusCancelled,
			"message":     message,
			"finished_at": time.Now().UTC(),
		}).Error
}

func (r *repository) CancelPending(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":      StatusCancelled,
			"finished_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) RequestCancel(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusRunning).
		Update("cancel_requested", true).Error
}

func (r *repository) IsCancelRequested(ctx context.Context, id string) (bool, error) {
	var requested bool
	err := r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", id).
		Select("cancel_requested").
		Scan(&requested).Error
	return requested, err
}

func (r *repository) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	return r.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ? AND status = ?", id, StatusRunning).
		Updates(map[string]any{"progress": progress, "message": message}).Error
}
