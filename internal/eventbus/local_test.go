package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_DeliversToSubscriberOfSameJob(t *testing.T) {
	b := NewLocalBus()
	ch, cancel := b.Subscribe(context.Background(), "job-1")
	defer cancel()

	b.Publish(context.Background(), Event{JobID: "job-1", Type: EventAnalyzerStarted, Analyzer: "say_means"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventAnalyzerStarted, ev.Type)
		assert.Equal(t, "say_means", ev.Analyzer)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestLocalBus_DoesNotDeliverToOtherJobsSubscribers(t *testing.T) {
	b := NewLocalBus()
	ch, cancel := b.Subscribe(context.Background(), "job-2")
	defer cancel()

	b.Publish(context.Background(), Event{JobID: "job-1", Type: EventJobCompleted})

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalBus_PublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := NewLocalBus()
	done := make(chan struct{})
	go func() {
		b.Publish(context.Background(), Event{JobID: "job-none", Type: EventJobQueued})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}

func TestLocalBus_PublishDropsEventWhenSubscriberChannelFull(t *testing.T) {
	b := NewLocalBus()
	ch, cancel := b.Subscribe(context.Background(), "job-3")
	defer cancel()

	for i := 0; i < 64; i++ {
		b.Publish(context.Background(), Event{JobID: "job-3", Type: EventInsightsUpdated})
	}

	count := 0
	draining := true
	for draining {
		select {
		case <-ch:
			count++
		default:
			draining = false
		}
	}
	assert.LessOrEqual(t, count, 32)
	assert.Greater(t, count, 0)
}

func TestLocalBus_CancelClosesChannelAndStopsDelivery(t *testing.T) {
	b := NewLocalBus()
	ch, cancel := b.Subscribe(context.Background(), "job-4")
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	b.Publish(context.Background(), Event{JobID: "job-4", Type: EventJobError})
}

func TestLocalBus_MultipleSubscribersEachReceiveTheEvent(t *testing.T) {
	b := NewLocalBus()
	ch1, cancel1 := b.Subscribe(context.Background(), "job-5")
	defer cancel1()
	ch2, cancel2 := b.Subscribe(context.Background(), "job-5")
	defer cancel2()

	b.Publish(context.Background(), Event{JobID: "job-5", Type: EventStageCompleted, Stage: "stage_a"})

	require.Equal(t, EventStageCompleted, (<-ch1).Type)
	require.Equal(t, EventStageCompleted, (<-ch2).Type)
}
