package extraction

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an async extraction job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job tracks one async extraction run for a document.
type Job struct {
	ID         string    `json:"id"`
	DocumentID int64     `json:"document_id"`
	Filename   string    `json:"filename"`
	Status     JobStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

func (j *Job) active() bool {
	return j.Status == JobPending || j.Status == JobProcessing
}

// JobStore manages in-memory async extraction jobs. It enforces the
// dispatch contract: at most one active job per document at a time.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
	done chan struct{}
}

// NewJobStore creates a job store with background TTL cleanup.
func NewJobStore(ttl time.Duration) *JobStore {
	js := &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go js.cleanup()
	return js
}

// Dispatch creates a pending job. Fresh ingestions pass documentID 0 (the
// document does not exist yet); re-extractions of an existing document fail
// if that document already has an active job, so a stuck job must be failed
// before a new one can start.
func (js *JobStore) Dispatch(documentID int64, filename string) (*Job, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if documentID != 0 {
		for _, j := range js.jobs {
			if j.DocumentID == documentID && j.active() {
				return nil, fmt.Errorf("document %d already has active extraction job %s", documentID, j.ID)
			}
		}
	}

	job := &Job{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Filename:   filename,
		Status:     JobPending,
		CreatedAt:  time.Now(),
	}
	js.jobs[job.ID] = job
	return job, nil
}

// TTL reports the retention window for finished jobs.
func (js *JobStore) TTL() time.Duration {
	return js.ttl
}

// Get retrieves a job by ID.
func (js *JobStore) Get(id string) (*Job, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	job, ok := js.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	copied := *job
	return &copied, nil
}

// Start marks a job as processing.
func (js *JobStore) Start(id string) error {
	return js.transition(id, JobProcessing, "")
}

// Complete marks a job as completed and records the document it produced.
func (js *JobStore) Complete(id string, documentID int64) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	job, ok := js.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	job.Status = JobCompleted
	job.DocumentID = documentID
	job.FinishedAt = time.Now()
	return nil
}

// Fail marks a job as failed with a reason. A failed job releases the
// per-document slot so the extraction can be re-dispatched.
func (js *JobStore) Fail(id, reason string) error {
	return js.transition(id, JobFailed, reason)
}

func (js *JobStore) transition(id string, status JobStatus, errMsg string) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	job, ok := js.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	job.Status = status
	job.Error = errMsg
	if status == JobCompleted || status == JobFailed {
		job.FinishedAt = time.Now()
	}
	return nil
}

// Stop signals the background cleanup goroutine to exit.
func (js *JobStore) Stop() {
	close(js.done)
}

func (js *JobStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-js.done:
			return
		case <-ticker.C:
			js.mu.Lock()
			now := time.Now()
			for id, job := range js.jobs {
				if !job.active() && now.Sub(job.CreatedAt) > js.ttl {
					delete(js.jobs, id)
				}
			}
			js.mu.Unlock()
		}
	}
}
