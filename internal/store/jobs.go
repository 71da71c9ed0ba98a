// Package store holds in-memory state for long-running jobs.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"codeatlas/internal/constants"
)

// JobStatus is the lifecycle state of an asynchronous job
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// Job is one tracked asynchronous operation
type Job struct {
	ID        string      `json:"id"`
	Status    JobStatus   `json:"status"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// JobStore is a bounded in-memory job registry. When full, the oldest job is
// evicted regardless of its state; clients polling an evicted ID see not
// found and must resubmit.
type JobStore struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	order    []string
	capacity int
}

// NewJobStore creates a job store with the given capacity. Zero or negative
// capacity falls back to the default.
func NewJobStore(capacity int) *JobStore {
	if capacity <= 0 {
		capacity = constants.JobStoreCapacity
	}
	return &JobStore{
		jobs:     make(map[string]*Job),
		capacity: capacity,
	}
}

// Create registers a new pending job and returns its ID
func (s *JobStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.jobs, oldest)
	}

	id := uuid.New().String()
	now := time.Now()
	s.jobs[id] = &Job{ID: id, Status: JobPending, CreatedAt: now, UpdatedAt: now}
	s.order = append(s.order, id)
	return id
}

// Get returns a snapshot of the job, or false if unknown or evicted
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// SetRunning marks the job as in progress
func (s *JobStore) SetRunning(id string) {
	s.update(id, func(j *Job) { j.Status = JobRunning })
}

// Complete stores the job's result
func (s *JobStore) Complete(id string, result interface{}) {
	s.update(id, func(j *Job) {
		j.Status = JobComplete
		j.Result = result
	})
}

// Fail records the job's terminal error
func (s *JobStore) Fail(id string, err error) {
	s.update(id, func(j *Job) {
		j.Status = JobFailed
		j.Error = err.Error()
	})
}

// Len reports how many jobs are currently tracked
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evicted jobs are gone; their late updates are dropped
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now()
}
