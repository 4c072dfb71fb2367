package jobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

func TestMemoryStore_CreateThenGetRoundTrips(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	job := jobtypes.NewJob("job-1")
	require.NoError(t, s.Create(context.Background(), job))

	got, err := s.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, jobtypes.JobQueued, got.Status)
}

func TestMemoryStore_CreateRejectsDuplicateID(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	job := jobtypes.NewJob("job-1")
	require.NoError(t, s.Create(context.Background(), job))
	err := s.Create(context.Background(), jobtypes.NewJob("job-1"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_GetUnknownIDReturnsNotFound(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateMutatesStoredCopy(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Create(context.Background(), jobtypes.NewJob("job-1")))

	err := s.Update(context.Background(), "job-1", func(j *jobtypes.Job) error {
		j.Status = jobtypes.JobProcessing
		j.StageA["say_means"] = jobtypes.AnalyzerRecord{Slug: "say_means", Status: jobtypes.AnalyzerCompleted}
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobtypes.JobProcessing, got.Status)
	assert.Equal(t, jobtypes.AnalyzerCompleted, got.StageA["say_means"].Status)
}

func TestMemoryStore_UpdateLeavesPriorValueOnError(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Create(context.Background(), jobtypes.NewJob("job-1")))

	wantErr := errors.New("mutation failed")
	err := s.Update(context.Background(), "job-1", func(j *jobtypes.Job) error {
		j.Status = jobtypes.JobError
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	got, getErr := s.Get(context.Background(), "job-1")
	require.NoError(t, getErr)
	assert.Equal(t, jobtypes.JobQueued, got.Status)
}

func TestMemoryStore_UpdateUnknownIDReturnsNotFound(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	err := s.Update(context.Background(), "missing", func(j *jobtypes.Job) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsIndependentClones(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Create(context.Background(), jobtypes.NewJob("job-1")))

	first, err := s.Get(context.Background(), "job-1")
	require.NoError(t, err)
	first.StageA["tamper"] = jobtypes.AnalyzerRecord{Slug: "tamper"}

	second, err := s.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.NotContains(t, second.StageA, "tamper")
}

func TestMemoryStore_EntryExpiresAfterTTL(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	require.NoError(t, s.Create(context.Background(), jobtypes.NewJob("job-1")))

	time.Sleep(20 * time.Millisecond)

	_, err := s.Get(context.Background(), "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ZeroTTLUsesDefault(t *testing.T) {
	s := NewMemoryStore(0)
	assert.Equal(t, DefaultTTL, s.ttl)
}
