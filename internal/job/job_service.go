package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-payroll/internal/events"
	joberrors "go-payroll/internal/job/errors"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmitRequest is the internal submission shape; services queue work through
// it rather than through the HTTP layer.
type SubmitRequest struct {
	Type        string
	DedupKey    string
	Payload     any
	SubmittedBy string
}

//go:generate mockgen -source=job_service.go -destination=mock/job_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID string, req SubmitRequest) (JobResponse, error)
	GetByID(ctx context.Context, companyID, id string) (JobResponse, error)
	GetAll(ctx context.Context, companyID string) ([]JobResponse, error)
	Cancel(ctx context.Context, companyID, id string) (JobResponse, error)
	// CancelActive cancels whichever job currently holds the dedup key; a
	// missing job is not an error.
	CancelActive(ctx context.Context, companyID, dedupKey string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	outbox   kafka.OutboxRepository
	registry *Registry
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, registry *Registry, logger ...*zap.Logger) Service {
	l := zap.L().Named("job.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("job.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, registry: registry, logger: l}
}

// Submit queues a job and its queued event in one transaction. If an active
// job holds the same dedup key, that job is returned instead and nothing is
// written.
func (s *service) Submit(ctx context.Context, companyID string, req SubmitRequest) (JobResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if s.registry != nil && !s.registry.Known(req.Type) {
		return JobResponse{}, joberrors.ErrUnknownJobType
	}

	if req.DedupKey != "" {
		existing, err := s.repo.FindActiveByDedupKey(ctx, companyID, req.DedupKey)
		if err == nil {
			s.logger.Info("job submit deduplicated",
				zap.String("request_id", rid),
				zap.String("dedup_key", req.DedupKey),
				zap.String("job_id", existing.ID.String()),
			)
			return mapJobResponse(*existing), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return JobResponse{}, err
		}
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return JobResponse{}, err
	}

	j := &Job{
		ID:        uuid.New(),
		CompanyID: uuid.MustParse(companyID),
		Type:      req.Type,
		DedupKey:  req.DedupKey,
		Status:    StatusPending,
		Payload:   payload,
	}
	if req.SubmittedBy != "" {
		if actor, err := uuid.Parse(req.SubmittedBy); err == nil {
			j.SubmittedBy = actor
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return JobResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, j); err != nil {
		return JobResponse{}, err
	}

	event := events.JobQueuedEvent{
		EventType:  "job_queued",
		RequestID:  rid,
		JobID:      j.ID.String(),
		JobType:    j.Type,
		CompanyID:  companyID,
		OccurredAt: time.Now().UTC(),
	}
	eventPayload, err := json.Marshal(event)
	if err != nil {
		return JobResponse{}, err
	}

	outboxRepo := s.outbox.WithTx(tx)
	if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "job",
		AggregateID:   j.ID.String(),
		EventType:     event.EventType,
		Topic:         events.JobQueuedTopic,
		Payload:       eventPayload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return JobResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return JobResponse{}, err
	}

	s.logger.Info("job submitted",
		zap.String("request_id", rid),
		zap.String("job_id", j.ID.String()),
		zap.String("job_type", j.Type),
	)

	return mapJobResponse(*j), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (JobResponse, error) {
	j, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JobResponse{}, joberrors.ErrJobNotFound
		}
		return JobResponse{}, err
	}
	return mapJobResponse(*j), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]JobResponse, error) {
	jobs, err := s.repo.ListByCompany(ctx, companyID, 100)
	if err != nil {
		return nil, err
	}

	resp := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = mapJobResponse(j)
	}
	return resp, nil
}

// Cancel stops a pending job outright; a running job only gets a cancel
// request flag, which the executor honors at its next checkpoint.
func (s *service) Cancel(ctx context.Context, companyID, id string) (JobResponse, error) {
	j, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JobResponse{}, joberrors.ErrJobNotFound
		}
		return JobResponse{}, err
	}

	switch j.Status {
	case StatusPending:
		cancelled, err := s.repo.CancelPending(ctx, id)
		if err != nil {
			return JobResponse{}, err
		}
		if !cancelled {
			// Lost the race with the runner: it went RUNNING, fall through
			// to a cancel request.
			if err := s.repo.RequestCancel(ctx, id); err != nil {
				return JobResponse{}, err
			}
		}
	case StatusRunning:
		if err := s.repo.RequestCancel(ctx, id); err != nil {
			return JobResponse{}, err
		}
	default:
		return JobResponse{}, joberrors.ErrJobNotCancellable
	}

	j, err = s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return JobResponse{}, err
	}

	s.logger.Info("job cancel requested",
		zap.String("job_id", id),
		zap.String("status", j.Status),
	)

	return mapJobResponse(*j), nil
}

func (s *service) CancelActive(ctx context.Context, companyID, dedupKey string) error {
	j, err := s.repo.FindActiveByDedupKey(ctx, companyID, dedupKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	_, err = s.Cancel(ctx, companyID, j.ID.String())
	return err
}
