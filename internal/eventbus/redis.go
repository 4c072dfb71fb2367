package eventbus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBus publishes JSON event envelopes on a per-job channel
// "job:<job_id>:events", following the key-namespacing convention of the
// teacher's internal/skills/redis_cache.go.
type RedisBus struct {
	client redis.UniversalClient
}

// NewRedisBus wraps an existing Redis client as a Bus.
func NewRedisBus(client redis.UniversalClient) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) channel(jobID string) string { return "job:" + jobID + ":events" }

func (b *RedisBus) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("eventbus: marshal event")
		return
	}
	if err := b.client.Publish(ctx, b.channel(event.JobID), payload).Err(); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("job_id", event.JobID).Msg("eventbus: publish failed (best-effort)")
	}
}

func (b *RedisBus) Subscribe(ctx context.Context, jobID string) (<-chan Event, func()) {
	sub := b.client.Subscribe(ctx, b.channel(jobID))
	out := make(chan Event, 32)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { _ = sub.Close() }
}

var _ Bus = (*RedisBus)(nil)
