package job

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// Job is one unit of asynchronous work. DedupKey makes submission idempotent:
// while a job with the same key is PENDING or RUNNING, re-submitting returns
// the existing job instead of queueing a duplicate.
type Job struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type            string         `gorm:"type:varchar(60);not null"`
	DedupKey        string         `gorm:"type:varchar(120);not null;index"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Payload         datatypes.JSON `gorm:"type:jsonb"`
	Result          datatypes.JSON `gorm:"type:jsonb"`
	Progress        int            `gorm:"not null;default:0"`
	Message         string         `gorm:"type:varchar(500)"`
	CancelRequested bool           `gorm:"not null;default:false"`
	SubmittedBy     uuid.UUID      `gorm:"type:uuid"`
	StartedAt       *time.Time
	FinishedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (j Job) Terminal() bool {
	switch j.Status {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
