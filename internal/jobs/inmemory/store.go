package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/household-ledger/internal/jobs"
)

// Store is an in-memory implementation of JobStore.
// It keeps at most capacity jobs, dropping the oldest first. Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	jobs     map[string]*jobs.MessageJob
	capacity int
}

// NewStore creates a new in-memory job store. A capacity of zero keeps every job.
func NewStore(capacity int) *Store {
	return &Store{
		jobs:     make(map[string]*jobs.MessageJob),
		capacity: capacity,
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.MessageJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so callers can keep mutating their job.
	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	if s.capacity > 0 && len(s.jobs) > s.capacity {
		s.evictOldest(job.JobID)
	}

	return nil
}

func (s *Store) evictOldest(keep string) {
	var oldest *jobs.MessageJob
	for id, j := range s.jobs {
		if id == keep {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest != nil {
		delete(s.jobs, oldest.JobID)
	}
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.MessageJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface. Results are ordered newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.MessageJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.MessageJob{}

	for _, job := range s.jobs {
		if filter.ChannelID != "" && job.ChannelID != filter.ChannelID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}

		jobCopy := *job
		result = append(result, &jobCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].JobID < result[j].JobID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.MessageJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus implements the JobStore interface.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}

	job.SetStatus(status, errorMsg, time.Now())
	return nil
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
