package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/extract"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

// JobStatus tracks extraction job lifecycle.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks one document extraction from upload to published store.
type Job struct {
	ID          string
	Document    string
	Kind        extract.Kind
	ContentHash string
	Status      JobStatus
	Phase       string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	mu        sync.Mutex
	owner     *session.Session
	fileData  []byte
	errs      []string
	report    *extract.Report
	preview   string
	cancelled bool
	cancel    context.CancelFunc
}

// NewJob creates a queued job owning the uploaded bytes. The owner session
// receives the published store when extraction succeeds.
func NewJob(document string, kind extract.Kind, data []byte, owner *session.Session) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Document:    document,
		Kind:        kind,
		ContentHash: ContentHashHex(data),
		Status:      StatusQueued,
		Phase:       "queued",
		CreatedAt:   now,
		UpdatedAt:   now,
		owner:       owner,
		fileData:    data,
	}
}

// SetStatus updates job status and phase.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError appends an error message to the job.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errs = append(j.errs, msg)
	j.UpdatedAt = time.Now()
}

// SetReport attaches the cascade's attempt report.
func (j *Job) SetReport(r *extract.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = r
	j.UpdatedAt = time.Now()
}

// SetPreview stores the extracted-text preview shown on completion.
func (j *Job) SetPreview(p string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.preview = p
}

// Owner returns the session this job publishes into.
func (j *Job) Owner() *session.Session {
	return j.owner
}

// SetCancel installs the cancel hook for the in-flight processing context.
// Workers install it when they pick the job up and clear it when done.
func (j *Job) SetCancel(fn context.CancelFunc) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = fn
}

// Cancel flags the job as cancelled and aborts processing if it is running.
// Queued jobs are skipped when a worker reaches them.
func (j *Job) Cancel() {
	j.mu.Lock()
	j.cancelled = true
	fn := j.cancel
	j.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Cancelled reports whether Cancel was called.
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// SetFileData stores raw file bytes for processing. Workers clear it once
// extraction finishes so completed jobs do not pin uploads in memory.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string          `json:"id"`
	Document    string          `json:"document"`
	Kind        string          `json:"kind"`
	ContentHash string          `json:"content_hash"`
	Status      JobStatus       `json:"status"`
	Phase       string          `json:"phase"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Errors      []string        `json:"errors"`
	Report      *extract.Report `json:"report,omitempty"`
	Preview     string          `json:"preview,omitempty"`
}

// Snapshot returns a consistent copy for API responses.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.errs
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Document:    j.Document,
		Kind:        string(j.Kind),
		ContentHash: j.ContentHash,
		Status:      j.Status,
		Phase:       j.Phase,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Errors:      errs,
		Report:      j.report,
		Preview:     j.preview,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL cleanup.
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

// Cleanup removes jobs older than TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes the SHA-256 of content as a hex string. Clients
// can compare it across uploads to spot identical files.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}
