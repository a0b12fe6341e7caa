package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessMessage represents one chat message on its way to the ledger.
	JobTypeProcessMessage JobType = "process_message"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed. Failed jobs are never retried.
	JobStatusFailed JobStatus = "failed"
)

// MessageJob carries one chat message from the front-end to a pipeline worker.
type MessageJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Source names the front-end the message came from, e.g. "discord".
	Source string `json:"source"`

	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	AuthorID  string `json:"author_id,omitempty"`

	// Text is the raw message content.
	Text string `json:"text"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`
}

// SetStatus moves the job to status, stamping StartedAt when it starts running and
// CompletedAt when it finishes. errorMsg replaces any previous error.
func (j *MessageJob) SetStatus(status JobStatus, errorMsg string, at time.Time) {
	j.Status = status
	j.Error = errorMsg
	switch status {
	case JobStatusRunning:
		j.StartedAt = &at
	case JobStatusCompleted, JobStatusFailed:
		j.CompletedAt = &at
	}
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *MessageJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *MessageJob) GetType() JobType {
	return JobTypeProcessMessage
}

// GetStatus implements the Job interface.
func (j *MessageJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishMessage enqueues a message job. It blocks while the queue is full.
	PublishMessage(ctx context.Context, job *MessageJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// A returned error marks the job failed; it is not retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *MessageJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*MessageJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*MessageJob, error)

	// UpdateJobStatus moves a stored job to status (see MessageJob.SetStatus).
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// ChannelID filters jobs by chat channel.
	ChannelID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
