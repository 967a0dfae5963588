package job

import (
	"encoding/json"
	"time"
)

type JobResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Progress   int             `json:"progress"`
	Message    string          `json:"message,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func mapJobResponse(j Job) JobResponse {
	return JobResponse{
		ID:         j.ID.String(),
		Type:       j.Type,
		Status:     j.Status,
		Progress:   j.Progress,
		Message:    j.Message,
		Result:     json.RawMessage(j.Result),
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		CreatedAt:  j.CreatedAt,
	}
}
