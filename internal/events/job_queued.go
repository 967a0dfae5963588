package events

import "time"

const JobQueuedTopic = "payroll.job.queued.v1"

type JobQueuedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	JobID      string    `json:"job_id"`
	JobType    string    `json:"job_type"`
	CompanyID  string    `json:"company_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
