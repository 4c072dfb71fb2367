package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// LocalBus is an in-process, channel-fan-out Bus. Each subscriber gets a
// small buffered channel; a full channel has its event dropped rather than
// blocking the publisher, preserving the best-effort contract.
type LocalBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewLocalBus builds an empty LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: map[string]map[chan Event]struct{}{}}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) {
	b.mu.Lock()
	chans := b.subs[event.JobID]
	targets := make([]chan Event, 0, len(chans))
	for ch := range chans {
		targets = append(targets, ch)
	}
	b.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			log.Ctx(ctx).Debug().Str("job_id", event.JobID).Str("event", string(event.Type)).Msg("eventbus: subscriber channel full, dropping event")
		}
	}
}

func (b *LocalBus) Subscribe(ctx context.Context, jobID string) (<-chan Event, func()) {
	ch := make(chan Event, 32)
	b.mu.Lock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = map[chan Event]struct{}{}
	}
	b.subs[jobID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs[jobID], ch)
		if len(b.subs[jobID]) == 0 {
			delete(b.subs, jobID)
		}
		b.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

var _ Bus = (*LocalBus)(nil)
