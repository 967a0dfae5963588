package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrCancelled is returned by an executor that stopped because cancellation
// was requested; the runner records the job as CANCELLED, not FAILED.
var ErrCancelled = errors.New("job cancelled")

// ProgressFunc reports coarse progress from inside an executor.
type ProgressFunc func(progress int, message string)

// Executor performs one job type. The returned payload is stored as the
// job's result.
type Executor interface {
	Execute(ctx context.Context, j Job, report ProgressFunc) (json.RawMessage, error)
}

type ExecutorFunc func(ctx context.Context, j Job, report ProgressFunc) (json.RawMessage, error)

func (f ExecutorFunc) Execute(ctx context.Context, j Job, report ProgressFunc) (json.RawMessage, error) {
	return f(ctx, j, report)
}

// Registry maps job types to executors. Registration happens at wiring time,
// before the runner starts consuming.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

func (r *Registry) Register(jobType string, exec Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[jobType] = exec
}

func (r *Registry) Resolve(jobType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[jobType]
	if !ok {
		return nil, fmt.Errorf("no executor registered for job type %q", jobType)
	}
	return exec, nil
}

func (r *Registry) Known(jobType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.executors[jobType]
	return ok
}
