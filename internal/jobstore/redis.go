package jobstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

// RedisConfig configures a RedisStore, adapted from the teacher's
// internal/skills/redis_cache.go RedisSkillsCache construction options.
type RedisConfig struct {
	Addr                  string
	Password              string
	DB                    int
	TLSInsecureSkipVerify bool
}

// RedisStore is a Redis-backed Store with job:<job_id> keys and a sliding
// TTL refreshed on every successful write, matching the key layout named in
// the job-store contract.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore and verifies connectivity with Ping, the
// same construction-time check internal/skills/redis_cache.go performs.
func NewRedisStore(ctx context.Context, cfg RedisConfig, ttlSeconds int64) (*RedisStore, error) {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.TLSInsecureSkipVerify {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("jobstore: redis ping: %w", err)
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) key(jobID string) string { return "job:" + jobID }

func (s *RedisStore) Create(ctx context.Context, job *jobtypes.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: marshal job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(job.JobID), b, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("jobstore: redis setnx: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Update performs the read-modify-write inside a WATCH/MULTI transaction so
// concurrent analyzer-result writes for the same job never clobber each
// other, refreshing the TTL on every successful commit.
func (s *RedisStore) Update(ctx context.Context, jobID string, fn UpdateFunc) error {
	key := s.key(jobID)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("jobstore: redis get: %w", err)
		}
		var job jobtypes.Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return fmt.Errorf("jobstore: unmarshal job: %w", err)
		}
		if err := fn(&job); err != nil {
			return err
		}
		updated, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("jobstore: marshal job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Ctx(ctx).Debug().Err(err).Str("job_id", jobID).Msg("jobstore: update failed")
	}
	return err
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*jobtypes.Job, error) {
	raw, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: redis get: %w", err)
	}
	var job jobtypes.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("jobstore: unmarshal job: %w", err)
	}
	return &job, nil
}

var _ Store = (*RedisStore)(nil)
