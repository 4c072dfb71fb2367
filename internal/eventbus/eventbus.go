// Package eventbus implements the pipeline's best-effort progress-event
// pub/sub: job.queued, analyzer.started, analyzer.completed, analyzer.error,
// stage.completed, insights.updated, job.completed, job.error. Two backends
// are provided: an in-process channel fan-out (tests, single-process CLI)
// and a Redis pub/sub backend (multi-process use), the latter grounded on
// the key-namespacing convention of internal/skills/redis_cache.go and the
// publish-closure idiom of internal/orchestrator/handler.go.
package eventbus

import (
	"context"
	"time"
)

// EventType enumerates the fixed set of progress events a job can emit.
type EventType string

const (
	EventJobQueued        EventType = "job.queued"
	EventAnalyzerStarted  EventType = "analyzer.started"
	EventAnalyzerComplete EventType = "analyzer.completed"
	EventAnalyzerError    EventType = "analyzer.error"
	EventStageCompleted   EventType = "stage.completed"
	EventInsightsUpdated  EventType = "insights.updated"
	EventJobCompleted     EventType = "job.completed"
	EventJobError         EventType = "job.error"
)

// Event is the envelope published for every progress event.
type Event struct {
	JobID     string         `json:"job_id"`
	Type      EventType      `json:"type"`
	Analyzer  string         `json:"analyzer,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Bus publishes and subscribes to per-job event streams. Publish is
// best-effort: a subscriber that isn't listening, or a transport hiccup,
// must never fail or slow down the caller (the pipeline itself never
// blocks on event delivery).
type Bus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(ctx context.Context, jobID string) (<-chan Event, func())
}
