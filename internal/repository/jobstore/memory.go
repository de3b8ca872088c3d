package jobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/job"
)

// Compile-time check: MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps job records in a mutex-guarded map. Records live until
// process exit; suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]job.Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]job.Job)}
}

// Create stores a new job record.
func (s *MemoryStore) Create(_ context.Context, j job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; ok {
		return fmt.Errorf("job %s already exists", j.ID)
	}
	s.jobs[j.ID] = j
	return nil
}

// Get returns the job by id or domain.ErrJobNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, domain.ErrJobNotFound
	}
	return j, nil
}

// Complete transitions the job to done and records the result path.
func (s *MemoryStore) Complete(_ context.Context, id, resultPath string) error {
	return s.transition(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.ResultPath = resultPath
	})
}

// Fail transitions the job to error and records the failure message.
func (s *MemoryStore) Fail(_ context.Context, id, message string) error {
	return s.transition(id, func(j *job.Job) {
		j.Status = job.StatusError
		j.Error = message
	})
}

func (s *MemoryStore) transition(id string, apply func(*job.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if j.Terminal() {
		return domain.ErrJobTerminal
	}
	apply(&j)
	s.jobs[id] = j
	return nil
}
