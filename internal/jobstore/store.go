// Package jobstore implements the pipeline's Job Store: atomic
// read-modify-write access to a Job record, with a sliding 24h TTL. Two
// backends are provided: an in-memory map (tests, single-process CLI use)
// and a Redis-backed one (durable, multi-process use), adapted from the
// teacher's internal/skills/redis_cache.go key/TTL conventions.
package jobstore

import (
	"context"
	"time"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

// DefaultTTL is the sliding expiration applied to every job record, matching
// the 24h window named in the job-store contract.
const DefaultTTL = 24 * time.Hour

// UpdateFunc mutates a Job in place; returning an error aborts the write
// (the store leaves the prior value untouched).
type UpdateFunc func(j *jobtypes.Job) error

// Store is the Job Store contract: create, atomic update, and read.
type Store interface {
	// Create persists a brand-new job, failing if one with the same ID
	// already exists.
	Create(ctx context.Context, job *jobtypes.Job) error

	// Update performs an atomic read-modify-write against the job with the
	// given ID, refreshing its TTL on every successful write.
	Update(ctx context.Context, jobID string, fn UpdateFunc) error

	// Get returns a copy of the current job state.
	Get(ctx context.Context, jobID string) (*jobtypes.Job, error)
}

// ErrNotFound is returned by Get/Update when jobID has no record (or its
// TTL has expired).
var ErrNotFound = jobNotFoundError{}

type jobNotFoundError struct{}

func (jobNotFoundError) Error() string { return "jobstore: job not found" }

// ErrAlreadyExists is returned by Create when jobID is already present.
var ErrAlreadyExists = jobExistsError{}

type jobExistsError struct{}

func (jobExistsError) Error() string { return "jobstore: job already exists" }
