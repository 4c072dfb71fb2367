package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

// MemoryStore is a mutex-guarded, clone-on-read in-memory Store, adapted
// from the teacher's internal/playground/runstore_memory.go InMemoryRunStore
// pattern and extended with the sliding-TTL semantics the Job Store needs.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*entry
	ttl  time.Duration
}

type entry struct {
	job       *jobtypes.Job
	expiresAt time.Time
}

// NewMemoryStore builds a MemoryStore with the given TTL (DefaultTTL if 0).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{jobs: map[string]*entry{}, ttl: ttl}
}

func (s *MemoryStore) Create(ctx context.Context, job *jobtypes.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.jobs[job.JobID]; ok && time.Now().Before(e.expiresAt) {
		return ErrAlreadyExists
	}
	s.jobs[job.JobID] = &entry{job: job.Clone(), expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, jobID string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[jobID]
	if !ok || time.Now().After(e.expiresAt) {
		return ErrNotFound
	}
	working := e.job.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.jobs[jobID] = &entry{job: working, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*jobtypes.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[jobID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e.job.Clone(), nil
}

var _ Store = (*MemoryStore)(nil)
