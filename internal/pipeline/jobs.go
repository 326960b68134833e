// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/convert-engine/pkg/types"
)

// Job tracks one in-flight conversion. The terminal state is delivered
// exactly once, strictly after every progress event: finish closes the
// tracker's channel before signalling Done.
type Job struct {
	ID        string
	StartTime time.Time

	tracker *Tracker

	mu     sync.Mutex
	status types.JobStatus
	errMsg string
	result *types.Result

	finishOnce sync.Once
	done       chan struct{}
}

func newJob() *Job {
	id := uuid.NewString()
	return &Job{
		ID:        id,
		StartTime: time.Now(),
		status:    types.StatusStarting,
		tracker:   NewTracker(id),
		done:      make(chan struct{}),
	}
}

// Events returns the job's progress side-channel.
func (j *Job) Events() <-chan types.Progress { return j.tracker.Events() }

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result returns the terminal result, or nil before completion.
func (j *Job) Result() *types.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Snapshot returns a point-in-time view of the job.
func (j *Job) Snapshot() types.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return types.JobSnapshot{
		ID:        j.ID,
		Status:    j.status,
		Progress:  j.tracker.Current(),
		StartTime: j.StartTime,
		Error:     j.errMsg,
	}
}

// Status returns the job's current status.
func (j *Job) Status() types.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) setStatus(s types.JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.Terminal() {
		j.status = s
	}
}

// finish moves the job to a terminal state exactly once. Later calls,
// including a completion racing a cancellation, are discarded.
func (j *Job) finish(status types.JobStatus, result *types.Result, errMsg string) {
	j.finishOnce.Do(func() {
		j.mu.Lock()
		j.status = status
		j.result = result
		j.errMsg = errMsg
		j.mu.Unlock()

		if status == types.StatusCompleted {
			j.tracker.Update(100, string(status))
		}
		j.tracker.Close()
		close(j.done)
	})
}

// Jobs is the process-local job map, keyed by job id. Jobs are evicted
// on terminal state; nothing persists across restarts.
type Jobs struct {
	mu sync.Mutex
	m  map[string]*Job
}

// NewJobs creates an empty job map.
func NewJobs() *Jobs {
	return &Jobs{m: make(map[string]*Job)}
}

// create registers a fresh job.
func (js *Jobs) create() *Job {
	j := newJob()
	js.mu.Lock()
	js.m[j.ID] = j
	js.mu.Unlock()
	return j
}

// Get looks up an active job.
func (js *Jobs) Get(id string) (*Job, bool) {
	js.mu.Lock()
	defer js.mu.Unlock()
	j, ok := js.m[id]
	return j, ok
}

// Active returns snapshots of all tracked jobs.
func (js *Jobs) Active() []types.JobSnapshot {
	js.mu.Lock()
	defer js.mu.Unlock()
	out := make([]types.JobSnapshot, 0, len(js.m))
	for _, j := range js.m {
		out = append(out, j.Snapshot())
	}
	return out
}

// Cancel marks a job cancelled and evicts it. Cancellation is
// cooperative: in-flight work is not aborted, its eventual result is
// simply discarded because the job is gone.
func (js *Jobs) Cancel(id string) bool {
	js.mu.Lock()
	j, ok := js.m[id]
	if ok {
		delete(js.m, id)
	}
	js.mu.Unlock()
	if !ok {
		return false
	}
	j.finish(types.StatusCancelled, nil, "cancelled")
	return true
}

// remove evicts a job after terminal delivery.
func (js *Jobs) remove(id string) {
	js.mu.Lock()
	delete(js.m, id)
	js.mu.Unlock()
}
