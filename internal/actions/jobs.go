package actions

import (
	"sync"
	"time"
)

// Kind is the user action a job performs.
type Kind string

const (
	KindSave      Kind = "save"
	KindExport    Kind = "export"
	KindSummarize Kind = "summarize"
)

// Valid reports whether k is a known action.
func (k Kind) Valid() bool {
	switch k {
	case KindSave, KindExport, KindSummarize:
		return true
	}
	return false
}

// JobStatus represents the state of an action job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusRetrying  JobStatus = "retrying"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the state of a single user action.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	Kind   Kind   `json:"kind"`
	DocID  string `json:"document_id"`
	UserID string `json:"user_id"`

	Status   JobStatus `json:"status"`
	Attempts int       `json:"attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	result      []byte
	contentType string
	summary     string
	err         string
}

func newJob(id string, kind Kind, userID, docID string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Kind:      kind,
		DocID:     docID,
		UserID:    userID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// key identifies the (user, document, kind) triple guarded against duplicates.
func (j *Job) key() string {
	return j.UserID + "\x00" + j.DocID + "\x00" + string(j.Kind)
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// IncrAttempts records one more attempt.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed with msg.
func (j *Job) Fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.err = msg
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
}

// SetResult stores a downloadable result.
func (j *Job) SetResult(data []byte, contentType string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = data
	j.contentType = contentType
}

// Result returns the downloadable result, if any.
func (j *Job) Result() ([]byte, string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.contentType
}

// SetSummary stores a generated summary.
func (j *Job) SetSummary(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.summary = s
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Kind      Kind      `json:"kind"`
	DocID     string    `json:"document_id"`
	UserID    string    `json:"user_id"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Summary   string    `json:"summary,omitempty"`
	HasResult bool      `json:"has_result"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		Kind:      j.Kind,
		DocID:     j.DocID,
		UserID:    j.UserID,
		Status:    j.Status,
		Attempts:  j.Attempts,
		Summary:   j.summary,
		HasResult: len(j.result) > 0,
		Error:     j.err,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs that have finished.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if job.Snapshot().Status.Terminal() && now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
