package server

import (
	"sync"
	"time"

	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/pipeline"
)

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	RunStarted  RunStatus = "started"
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// Run is the queryable state of one pipeline run. State lives only for
// the server's lifetime; runs are not persisted.
type Run struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	Status     RunStatus        `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Error      string           `json:"error,omitempty"`
	Result     *pipeline.Result `json:"result,omitempty"`
}

// runRegistry tracks live runs by ID.
type runRegistry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*Run)}
}

func (r *runRegistry) add(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
}

// get returns a copy so callers never see concurrent mutation.
func (r *runRegistry) get(id string) (Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}
	return *run, nil
}

func (r *runRegistry) list() []Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, *run)
	}
	return out
}

func (r *runRegistry) setStatus(id string, status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.Status = status
	}
}

func (r *runRegistry) finish(id string, status RunStatus, result *pipeline.Result, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		now := time.Now()
		run.Status = status
		run.FinishedAt = &now
		run.Result = result
		run.Error = errMsg
	}
}
